package domain

import "errors"

var (
	// ErrFetch is returned when the question source is unreachable or returns a malformed payload.
	ErrFetch = errors.New("question fetch failed")
	// ErrValidation is returned when a leaderboard submission is missing or has mistyped fields.
	ErrValidation = errors.New("invalid submission")
	// ErrPersistence is returned when the leaderboard store rejects a read or write.
	ErrPersistence = errors.New("leaderboard store unavailable")
	// ErrSessionNotFound is returned when a quiz session is unknown or expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrInvalidTransition is returned when an action is not allowed in the session's current state.
	ErrInvalidTransition = errors.New("action not allowed in current state")
	// ErrInvalidAnswer indicates a submitted answer key is not one of the question's options.
	ErrInvalidAnswer = errors.New("answer not found")
)
