package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizrank/internal/domain"
)

// QuestionSource produces one fresh question per call.
type QuestionSource interface {
	NextQuestion(ctx context.Context) (domain.Question, error)
}

// ScoreBoard stores finished runs and serves the ranking.
type ScoreBoard interface {
	Submit(ctx context.Context, name string, score int, timeMs int64) error
	Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
}

// DefaultTopN is the size of the leaderboard shown after a run.
const DefaultTopN = 10

// Engine drives Session transitions against a question source and a score board.
// Every method takes a session and returns the next one; on error the returned
// session is safe to keep.
type Engine struct {
	questions QuestionSource
	board     ScoreBoard
	now       func() time.Time
}

func NewEngine(questions QuestionSource, board ScoreBoard) *Engine {
	return NewEngineWithClock(questions, board, time.Now)
}

// NewEngineWithClock allows deterministic answer latency in tests.
func NewEngineWithClock(questions QuestionSource, board ScoreBoard, now func() time.Time) *Engine {
	return &Engine{questions: questions, board: board, now: now}
}

// Begin starts (or restarts) s and loads the first question.
func (e *Engine) Begin(ctx context.Context, s Session) (Session, error) {
	return e.Fetch(ctx, s.Start())
}

// Fetch loads the question for a loading session. A failed fetch keeps the
// session loading with LastError set.
func (e *Engine) Fetch(ctx context.Context, s Session) (Session, error) {
	if s.State != StateLoading {
		return s, transitionError(s.State, "fetch question")
	}
	q, err := e.questions.NextQuestion(ctx)
	if err != nil {
		err = wrapFetch(err)
		return s.FetchFailed(err), err
	}
	return s.QuestionReceived(q, e.now())
}

// Answer scores key for the current question using the engine clock.
func (e *Engine) Answer(s Session, key domain.AnswerKey) (Session, AnswerOutcome, error) {
	return s.Answer(key, e.now())
}

// Next advances an answered session and loads the next question. A session
// still loading after a failed fetch is simply fetched again.
func (e *Engine) Next(ctx context.Context, s Session) (Session, error) {
	if s.State == StateAnswered {
		advanced, err := s.Advance()
		if err != nil {
			return s, err
		}
		s = advanced
	}
	return e.Fetch(ctx, s)
}

// Submit stores the run under name and loads the leaderboard. On failure the
// session stays in name entry with its score and time untouched.
func (e *Engine) Submit(ctx context.Context, s Session, name string) (Session, error) {
	if s.State != StateNameEntry {
		return s, transitionError(s.State, "submit score")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		err := fmt.Errorf("%w: name is required", domain.ErrValidation)
		return s.SubmitFailed(err), err
	}
	if err := e.board.Submit(ctx, name, s.Score, s.TotalElapsedMs()); err != nil {
		return s.SubmitFailed(err), err
	}
	top, err := e.board.Top(ctx, DefaultTopN)
	if err != nil {
		// The score is stored; show the result without a ranking rather than resubmitting.
		// Submitted only fails outside name entry, which was checked above.
		next, _ := s.Submitted(nil)
		next.LastError = err.Error()
		return next, nil
	}
	return s.Submitted(top)
}

func wrapFetch(err error) error {
	if errors.Is(err, domain.ErrFetch) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrFetch, err)
}
