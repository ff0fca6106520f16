package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"quizrank/internal/app"
	"quizrank/internal/domain"
	"quizrank/internal/infra/memory"
)

type fixedSource struct {
	failures int
}

func (f *fixedSource) NextQuestion(context.Context) (domain.Question, error) {
	if f.failures > 0 {
		f.failures--
		return domain.Question{}, errors.New("upstream unavailable")
	}
	return domain.Question{
		Question: "Which color model is used for print?",
		Answers: map[domain.AnswerKey]string{
			domain.AnswerA: "CMYK",
			domain.AnswerB: "RGB",
			domain.AnswerC: "HSL",
			domain.AnswerD: "HEX",
		},
		CorrectAnswer: domain.AnswerA,
	}, nil
}

func newPlayEngine(src app.QuestionSource) (*app.Engine, *memory.LeaderboardStore) {
	store := memory.NewLeaderboardStore()
	board := app.NewLeaderboardService(store, 10, zap.NewNop())
	now := time.Now()
	return app.NewEngineWithClock(src, board, func() time.Time { return now }), store
}

func TestRunPlayFullQuiz(t *testing.T) {
	engine, store := newPlayEngine(&fixedSource{})
	input := strings.Join([]string{
		"x", "A", "",
		"a", "",
		"B", "",
		"A", "",
		"A",
		"  Ana  ",
		"n",
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runPlay(context.Background(), strings.NewReader(input), &out, engine))

	text := out.String()
	require.Contains(t, text, "Choose A, B, C or D.")
	require.Contains(t, text, "Wrong, the answer was A.")
	require.Contains(t, text, "Question 5/5")
	require.Contains(t, text, "Quiz complete! Score: 800 in 0.0s")
	require.Contains(t, text, "Ana")
	require.Equal(t, 1, store.Len())
}

func TestRunPlayRetriesFailedFetch(t *testing.T) {
	engine, _ := newPlayEngine(&fixedSource{failures: 1})

	var out bytes.Buffer
	require.NoError(t, runPlay(context.Background(), strings.NewReader("\n"), &out, engine))

	text := out.String()
	require.Contains(t, text, "Could not load a question")
	require.Contains(t, text, "Question 1/5")
}

func TestRunPlayQuitsOnRequest(t *testing.T) {
	engine, _ := newPlayEngine(&fixedSource{failures: 3})

	var out bytes.Buffer
	require.NoError(t, runPlay(context.Background(), strings.NewReader("q\n"), &out, engine))
	require.Equal(t, 1, strings.Count(out.String(), "Could not load a question"))
}

func TestBuildLogger(t *testing.T) {
	l, err := buildLogger("warn", false, false)
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))
	require.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = buildLogger("warn", true, true)
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = buildLogger("loud", false, false)
	require.Error(t, err)
}
