package domain

import "time"

// AnswerKey identifies one option of a multiple-choice question.
type AnswerKey string

const (
	AnswerA AnswerKey = "A"
	AnswerB AnswerKey = "B"
	AnswerC AnswerKey = "C"
	AnswerD AnswerKey = "D"
)

// AnswerKeys lists the option keys every question carries, in display order.
var AnswerKeys = []AnswerKey{AnswerA, AnswerB, AnswerC, AnswerD}

// Valid reports whether k is one of A-D.
func (k AnswerKey) Valid() bool {
	switch k {
	case AnswerA, AnswerB, AnswerC, AnswerD:
		return true
	}
	return false
}

// Question models a generated MCQ question with exactly one correct option.
type Question struct {
	Question      string               `json:"question"`
	Answers       map[AnswerKey]string `json:"answers"`
	CorrectAnswer AnswerKey            `json:"correctAnswer"`
}

// Has reports whether k is an option of q.
func (q Question) Has(k AnswerKey) bool {
	_, ok := q.Answers[k]
	return ok
}

// MaxNameLength caps stored leaderboard names.
const MaxNameLength = 32

// LeaderboardEntry is one persisted score submission.
type LeaderboardEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	Time      int64     `json:"time"` // total answer latency in milliseconds
	CreatedAt time.Time `json:"createdAt"`
}

// Ranks reports whether a sorts before b on a leaderboard: score descending,
// then time ascending, then creation order.
func Ranks(a, b LeaderboardEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
