package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizrank/internal/domain"
)

// QuestionBank is a simple question source backed by a fixed list (useful for tests/demos
// and for running without a generative API key). Questions are served in a shuffled
// order that is reshuffled after every full pass.
type QuestionBank struct {
	mu        sync.Mutex
	questions []domain.Question
	order     []int
	next      int
	rnd       *rand.Rand
}

func NewQuestionBank(questions []domain.Question) *QuestionBank {
	return NewQuestionBankWithSeed(questions, time.Now().UnixNano())
}

// NewQuestionBankWithSeed makes the serving order reproducible.
func NewQuestionBankWithSeed(questions []domain.Question, seed int64) *QuestionBank {
	return &QuestionBank{
		questions: questions,
		rnd:       rand.New(rand.NewSource(seed)),
	}
}

func (b *QuestionBank) NextQuestion(ctx context.Context) (domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return domain.Question{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.questions) == 0 {
		return domain.Question{}, domain.ErrFetch
	}
	if b.next >= len(b.order) {
		b.order = b.rnd.Perm(len(b.questions))
		b.next = 0
	}
	q := b.questions[b.order[b.next]]
	b.next++
	return cloneQuestion(q), nil
}

func cloneQuestion(q domain.Question) domain.Question {
	answers := make(map[domain.AnswerKey]string, len(q.Answers))
	for k, v := range q.Answers {
		answers[k] = v
	}
	q.Answers = answers
	return q
}

// DefaultQuestions is the built-in marketing, design and branding question set.
func DefaultQuestions() []domain.Question {
	return []domain.Question{
		{
			Question: "Which Gestalt principle says that items placed close together are perceived as a group?",
			Answers: map[domain.AnswerKey]string{
				domain.AnswerA: "Proximity",
				domain.AnswerB: "Closure",
				domain.AnswerC: "Continuity",
				domain.AnswerD: "Figure-ground",
			},
			CorrectAnswer: domain.AnswerA,
		},
		{
			Question: "What does the 'P' for 'Place' cover in the marketing mix?",
			Answers: map[domain.AnswerKey]string{
				domain.AnswerA: "Pricing strategy",
				domain.AnswerB: "Distribution channels",
				domain.AnswerC: "Advertising campaigns",
				domain.AnswerD: "Packaging design",
			},
			CorrectAnswer: domain.AnswerB,
		},
		{
			Question: "In UX research, what is a persona?",
			Answers: map[domain.AnswerKey]string{
				domain.AnswerA: "A real customer interviewed once",
				domain.AnswerB: "The brand's mascot",
				domain.AnswerC: "A fictional archetype representing a user segment",
				domain.AnswerD: "A usability metric",
			},
			CorrectAnswer: domain.AnswerC,
		},
		{
			Question: "Which element is the core of a brand's visual identity?",
			Answers: map[domain.AnswerKey]string{
				domain.AnswerA: "Press release",
				domain.AnswerB: "Mission statement",
				domain.AnswerC: "Pricing table",
				domain.AnswerD: "Logo",
			},
			CorrectAnswer: domain.AnswerD,
		},
		{
			Question: "What does a high bounce rate on a landing page usually indicate?",
			Answers: map[domain.AnswerKey]string{
				domain.AnswerA: "Visitors leave without interacting",
				domain.AnswerB: "The page loads too many images",
				domain.AnswerC: "Visitors buy more than once",
				domain.AnswerD: "The page ranks first in search",
			},
			CorrectAnswer: domain.AnswerA,
		},
		{
			Question: "Which heuristic asks interfaces to keep users informed through timely feedback?",
			Answers: map[domain.AnswerKey]string{
				domain.AnswerA: "Aesthetic and minimalist design",
				domain.AnswerB: "Visibility of system status",
				domain.AnswerC: "Error prevention",
				domain.AnswerD: "Flexibility and efficiency of use",
			},
			CorrectAnswer: domain.AnswerB,
		},
		{
			Question: "What is brand equity?",
			Answers: map[domain.AnswerKey]string{
				domain.AnswerA: "The company's share price",
				domain.AnswerB: "The number of products sold",
				domain.AnswerC: "The value a brand adds beyond the product itself",
				domain.AnswerD: "The marketing budget",
			},
			CorrectAnswer: domain.AnswerC,
		},
	}
}
