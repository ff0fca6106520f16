package http

import (
	"net/http"

	"go.uber.org/zap"
)

// NewRouter assembles every route behind the request logger.
func NewRouter(api *API, ws *WSHandler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	api.Register(mux)
	mux.HandleFunc("/ws/leaderboard", ws.ServeWS)
	return LogRequests(logger, mux)
}
