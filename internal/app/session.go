package app

import (
	"fmt"
	"strings"
	"time"

	"quizrank/internal/domain"
)

// TotalQuestions is the number of questions in one quiz run.
const TotalQuestions = 5

// State is a step of the quiz flow.
type State string

const (
	StateLoading        State = "loading"
	StateAwaitingAnswer State = "awaiting_answer"
	StateAnswered       State = "answered"
	StateNameEntry      State = "name_entry"
	StateResult         State = "result"
)

// Session is the state of one quiz run. Transitions never mutate the receiver;
// they return the next Session so callers can discard it on failure.
type Session struct {
	ID                string                    `json:"id"`
	State             State                     `json:"state"`
	QuestionIndex     int                       `json:"questionIndex"`
	Score             int                       `json:"score"`
	TotalElapsed      time.Duration             `json:"totalElapsed"`
	Current           *domain.Question          `json:"current,omitempty"`
	QuestionStartedAt time.Time                 `json:"questionStartedAt"`
	Revealed          domain.AnswerKey          `json:"revealed,omitempty"`
	LastError         string                    `json:"lastError,omitempty"`
	Leaderboard       []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// AnswerOutcome is what the player learns after answering.
type AnswerOutcome struct {
	Selected      domain.AnswerKey `json:"selected"`
	CorrectAnswer domain.AnswerKey `json:"correctAnswer"`
	Correct       bool             `json:"correct"`
	Awarded       int              `json:"awarded"`
	ElapsedMs     int64            `json:"elapsedMs"`
	TotalScore    int              `json:"totalScore"`
	Finished      bool             `json:"finished"`
}

// NewSession returns a freshly started session.
func NewSession(id string) Session {
	return Session{ID: id}.Start()
}

// Start resets the counters and waits for the first question. Valid from any state.
func (s Session) Start() Session {
	return Session{ID: s.ID, State: StateLoading}
}

// TotalElapsedMs is the accumulated answer latency, floored to whole milliseconds.
func (s Session) TotalElapsedMs() int64 {
	return s.TotalElapsed.Milliseconds()
}

// IsLastQuestion reports whether the current index is the final question.
func (s Session) IsLastQuestion() bool {
	return s.QuestionIndex >= TotalQuestions-1
}

// QuestionReceived shows q and starts its answer timer at at.
func (s Session) QuestionReceived(q domain.Question, at time.Time) (Session, error) {
	if s.State != StateLoading {
		return s, transitionError(s.State, "receive question")
	}
	if err := q.Validate(); err != nil {
		return s, err
	}
	next := s
	next.Current = &q
	next.QuestionStartedAt = at
	next.Revealed = ""
	next.LastError = ""
	next.State = StateAwaitingAnswer
	return next, nil
}

// FetchFailed records a question fetch error. The session stays loading; retries are manual.
func (s Session) FetchFailed(err error) Session {
	if s.State != StateLoading || err == nil {
		return s
	}
	next := s
	next.LastError = err.Error()
	return next
}

// Answer scores key against the current question. The last question moves
// straight to name entry.
func (s Session) Answer(key domain.AnswerKey, at time.Time) (Session, AnswerOutcome, error) {
	if s.State != StateAwaitingAnswer || s.Current == nil {
		return s, AnswerOutcome{}, transitionError(s.State, "answer")
	}
	key = domain.AnswerKey(strings.ToUpper(strings.TrimSpace(string(key))))
	if !s.Current.Has(key) {
		return s, AnswerOutcome{}, fmt.Errorf("%w: %q", domain.ErrInvalidAnswer, key)
	}

	elapsed := at.Sub(s.QuestionStartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	correct := key == s.Current.CorrectAnswer
	awarded := PointsFor(correct, elapsed)

	next := s
	next.TotalElapsed += elapsed
	next.Score += awarded
	next.Revealed = s.Current.CorrectAnswer
	next.State = StateAnswered
	if s.IsLastQuestion() {
		next.State = StateNameEntry
	}

	return next, AnswerOutcome{
		Selected:      key,
		CorrectAnswer: s.Current.CorrectAnswer,
		Correct:       correct,
		Awarded:       awarded,
		ElapsedMs:     elapsed.Milliseconds(),
		TotalScore:    next.Score,
		Finished:      next.State == StateNameEntry,
	}, nil
}

// Advance moves to the next question index and waits for its question.
func (s Session) Advance() (Session, error) {
	if s.State != StateAnswered || s.IsLastQuestion() {
		return s, transitionError(s.State, "advance")
	}
	next := s
	next.QuestionIndex++
	next.Current = nil
	next.Revealed = ""
	next.QuestionStartedAt = time.Time{}
	next.State = StateLoading
	return next, nil
}

// Submitted completes the quiz once the score has been stored.
func (s Session) Submitted(leaderboard []domain.LeaderboardEntry) (Session, error) {
	if s.State != StateNameEntry {
		return s, transitionError(s.State, "submit score")
	}
	next := s
	next.Leaderboard = append([]domain.LeaderboardEntry(nil), leaderboard...)
	next.LastError = ""
	next.State = StateResult
	return next, nil
}

// SubmitFailed records a failed submission; score and time are left as they were.
func (s Session) SubmitFailed(err error) Session {
	if s.State != StateNameEntry || err == nil {
		return s
	}
	next := s
	next.LastError = err.Error()
	return next
}

func transitionError(state State, action string) error {
	return fmt.Errorf("%w: cannot %s while %s", domain.ErrInvalidTransition, action, state)
}
