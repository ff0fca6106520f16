package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"quizrank/internal/app"
	"quizrank/internal/domain"
)

const maxBodyBytes = 4 << 10

// API serves the question, leaderboard and server-timed session endpoints.
type API struct {
	questions   app.QuestionSource
	leaderboard *app.LeaderboardService
	sessions    *app.SessionService
	logger      *zap.Logger
}

func NewAPI(questions app.QuestionSource, leaderboard *app.LeaderboardService, sessions *app.SessionService, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{questions: questions, leaderboard: leaderboard, sessions: sessions, logger: logger}
}

// Register wires the API routes into mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate-question", a.handleGenerateQuestion)
	mux.HandleFunc("/api/leaderboard", a.handleLeaderboard)
	mux.HandleFunc("POST /api/sessions", a.handleStartSession)
	mux.HandleFunc("GET /api/sessions/{id}", a.handleGetSession)
	mux.HandleFunc("POST /api/sessions/{id}/answer", a.handleAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/next", a.handleNext)
	mux.HandleFunc("POST /api/sessions/{id}/restart", a.handleRestart)
	mux.HandleFunc("POST /api/sessions/{id}/submit", a.handleSubmit)
}

func (a *API) handleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q, err := a.questions.NextQuestion(r.Context())
	if err != nil {
		a.logger.Warn("generate question", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate question")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.submitScore(w, r)
	case http.MethodGet:
		a.topScores(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// submissionRequest uses pointers so absent fields can be told apart from zero values.
type submissionRequest struct {
	Name  *string  `json:"name"`
	Score *float64 `json:"score"`
	Time  *float64 `json:"time"`
}

func (a *API) submitScore(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "required fields: name (string), score (number), time (number)")
		return
	}
	score, timeMs, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.leaderboard.Submit(r.Context(), *req.Name, score, timeMs); err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			err = errors.New("failed to save score")
		}
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (req submissionRequest) validate() (int, int64, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return 0, 0, errors.New("name is required")
	}
	if req.Score == nil || !isWhole(*req.Score) || math.Abs(*req.Score) > math.MaxInt32 {
		return 0, 0, errors.New("score must be a whole number")
	}
	if req.Time == nil || !isWhole(*req.Time) || *req.Time < 0 || *req.Time > math.MaxInt64/2 {
		return 0, 0, errors.New("time must be a non-negative whole number of milliseconds")
	}
	return int(*req.Score), int64(*req.Time), nil
}

func isWhole(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}

func (a *API) topScores(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		n = parsed
	}
	entries, err := a.leaderboard.Top(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type questionView struct {
	Question string                      `json:"question"`
	Answers  map[domain.AnswerKey]string `json:"answers"`
}

type sessionView struct {
	ID             string                    `json:"id"`
	State          app.State                 `json:"state"`
	QuestionIndex  int                       `json:"questionIndex"`
	TotalQuestions int                       `json:"totalQuestions"`
	Score          int                       `json:"score"`
	TotalElapsedMs int64                     `json:"totalElapsedMs"`
	Question       *questionView             `json:"question,omitempty"`
	CorrectAnswer  domain.AnswerKey          `json:"correctAnswer,omitempty"`
	Error          string                    `json:"error,omitempty"`
	Leaderboard    []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// viewOf never includes the correct answer before it has been revealed.
func viewOf(s app.Session) sessionView {
	view := sessionView{
		ID:             s.ID,
		State:          s.State,
		QuestionIndex:  s.QuestionIndex,
		TotalQuestions: app.TotalQuestions,
		Score:          s.Score,
		TotalElapsedMs: s.TotalElapsedMs(),
		CorrectAnswer:  s.Revealed,
		Leaderboard:    s.Leaderboard,
	}
	if s.Current != nil {
		view.Question = &questionView{Question: s.Current.Question, Answers: s.Current.Answers}
	}
	if s.LastError != "" {
		view.Error = s.LastError
	}
	return view
}

type answerResponse struct {
	Outcome app.AnswerOutcome `json:"outcome"`
	Session sessionView       `json:"session"`
}

func (a *API) handleStartSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Start(r.Context())
	a.respondSession(w, http.StatusCreated, s, err)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Get(r.Context(), r.PathValue("id"))
	a.respondSession(w, http.StatusOK, s, err)
}

type answerRequest struct {
	Answer domain.AnswerKey `json:"answer"`
}

func (a *API) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Answer == "" {
		writeError(w, http.StatusBadRequest, "answer is required")
		return
	}
	s, outcome, err := a.sessions.Answer(r.Context(), r.PathValue("id"), req.Answer)
	if err != nil {
		a.respondSession(w, http.StatusOK, s, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Outcome: outcome, Session: viewOf(s)})
}

func (a *API) handleNext(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Next(r.Context(), r.PathValue("id"))
	a.respondSession(w, http.StatusOK, s, err)
}

func (a *API) handleRestart(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Restart(r.Context(), r.PathValue("id"))
	a.respondSession(w, http.StatusOK, s, err)
}

type submitRequest struct {
	Name string `json:"name"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	s, err := a.sessions.Submit(r.Context(), r.PathValue("id"), req.Name)
	a.respondSession(w, http.StatusOK, s, err)
}

// respondSession writes the session view, or the mapped error when the session
// itself could not be loaded.
func (a *API) respondSession(w http.ResponseWriter, status int, s app.Session, err error) {
	if err == nil {
		writeJSON(w, status, viewOf(s))
		return
	}
	if statusFor(err) == http.StatusInternalServerError {
		a.logger.Warn("session request failed", zap.String("session", s.ID), zap.Error(err))
	}
	if s.ID == "" {
		writeError(w, statusFor(err), publicMessage(err))
		return
	}
	view := viewOf(s)
	view.Error = publicMessage(err)
	writeJSON(w, statusFor(err), view)
}
