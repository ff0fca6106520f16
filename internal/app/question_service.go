package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"quizrank/internal/domain"
)

// QuestionService bounds how many upstream generations run at once and how
// long each may take. It satisfies QuestionSource itself.
type QuestionService struct {
	source  QuestionSource
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger
}

// NewQuestionService wraps source. maxConcurrent <= 0 means one at a time;
// timeout <= 0 disables the per-call deadline.
func NewQuestionService(source QuestionSource, maxConcurrent int, timeout time.Duration, logger *zap.Logger) *QuestionService {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		source:  source,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		timeout: timeout,
		logger:  logger,
	}
}

func (s *QuestionService) NextQuestion(ctx context.Context) (q domain.Question, err error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return q, wrapFetch(err)
	}
	defer s.sem.Release(1)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	q, err = s.source.NextQuestion(ctx)
	if err != nil {
		s.logger.Warn("question generation failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return q, wrapFetch(err)
	}
	s.logger.Debug("question generated", zap.Duration("took", time.Since(start)))
	return q, nil
}
