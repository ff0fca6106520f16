package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"quizrank/internal/domain"
)

type errorPayload struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Error: message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides upstream and storage details from clients.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrFetch):
		return "failed to generate question"
	case errors.Is(err, domain.ErrPersistence):
		return "leaderboard unavailable"
	case statusFor(err) == http.StatusInternalServerError:
		return "internal error"
	default:
		return err.Error()
	}
}
