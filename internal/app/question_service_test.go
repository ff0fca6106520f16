package app_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizrank/internal/app"
	"quizrank/internal/domain"
)

type slowSource struct {
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (s *slowSource) NextQuestion(ctx context.Context) (domain.Question, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	select {
	case <-time.After(s.delay):
		return sampleQuestion(domain.AnswerB), nil
	case <-ctx.Done():
		return domain.Question{}, ctx.Err()
	}
}

func TestQuestionServiceBoundsConcurrency(t *testing.T) {
	src := &slowSource{delay: 20 * time.Millisecond}
	svc := app.NewQuestionService(src, 2, time.Second, zap.NewNop())

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.NextQuestion(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.LessOrEqual(t, src.maxSeen.Load(), int32(2))
}

func TestQuestionServiceTimeoutIsFetchError(t *testing.T) {
	svc := app.NewQuestionService(&slowSource{delay: time.Second}, 1, 10*time.Millisecond, zap.NewNop())

	_, err := svc.NextQuestion(context.Background())
	require.ErrorIs(t, err, domain.ErrFetch)
}

func TestQuestionServiceCanceledWhileQueued(t *testing.T) {
	src := &slowSource{delay: 200 * time.Millisecond}
	svc := app.NewQuestionService(src, 1, time.Second, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.NextQuestion(context.Background())
	}()
	for src.active.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.NextQuestion(ctx)
	require.ErrorIs(t, err, domain.ErrFetch)
	<-done
}
