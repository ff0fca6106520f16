package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizrank/internal/app"
)

// WSHandler streams the live leaderboard to websocket clients.
type WSHandler struct {
	leaderboard *app.LeaderboardService
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func NewWSHandler(leaderboard *app.LeaderboardService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		leaderboard: leaderboard,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type wsErrorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and pushes the top entries on connect and after every submission.
// Inbound messages are ignored; reading only detects the client going away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		conn.Close()
		<-readerDone
	}()

	updates, cancel, err := h.leaderboard.Subscribe(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[wsErrorPayload]{Type: "error", Payload: wsErrorPayload{Message: publicMessage(err)}})
		return
	}
	defer cancel()

	for {
		select {
		case entries, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "leaderboard", Payload: entries}); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		case <-readerDone:
			return
		}
	}
}
