package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"quizrank/internal/app"
	"quizrank/internal/client"
	"quizrank/internal/domain"
)

// NewPlayCmd plays a quiz in the terminal against a running server.
func NewPlayCmd() *cobra.Command {
	var (
		serverURL string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal against a quizrank server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverURL, timeout)
			return runPlay(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), app.NewEngine(c, c))
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the quizrank server")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "per-request timeout")
	return cmd
}

// runPlay drives one terminal session until the player quits or input ends.
func runPlay(ctx context.Context, in io.Reader, out io.Writer, engine *app.Engine) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lines := bufio.NewScanner(in)
	prompt := func(msg string) (string, bool) {
		fmt.Fprint(out, msg)
		if !lines.Scan() {
			return "", false
		}
		return strings.TrimSpace(lines.Text()), true
	}

	s := app.NewSession(uuid.NewString())
	s, _ = engine.Fetch(ctx, s)
	for {
		switch s.State {
		case app.StateLoading:
			fmt.Fprintf(out, "Could not load a question: %s\n", s.LastError)
			line, ok := prompt("Press Enter to retry or q to quit: ")
			if !ok || strings.EqualFold(line, "q") {
				return nil
			}
			s, _ = engine.Fetch(ctx, s)

		case app.StateAwaitingAnswer:
			printQuestion(out, s)
			line, ok := prompt("Your answer: ")
			if !ok {
				return nil
			}
			next, outcome, err := engine.Answer(s, domain.AnswerKey(strings.ToUpper(line)))
			if errors.Is(err, domain.ErrInvalidAnswer) {
				fmt.Fprintln(out, "Choose A, B, C or D.")
				continue
			}
			if err != nil {
				return err
			}
			s = next
			if outcome.Correct {
				fmt.Fprintf(out, "Correct! +%d points (%.1fs)\n", outcome.Awarded, float64(outcome.ElapsedMs)/1000)
			} else {
				fmt.Fprintf(out, "Wrong, the answer was %s. +0 points\n", outcome.CorrectAnswer)
			}

		case app.StateAnswered:
			if _, ok := prompt("Press Enter for the next question: "); !ok {
				return nil
			}
			s, _ = engine.Next(ctx, s)

		case app.StateNameEntry:
			if s.LastError != "" {
				fmt.Fprintf(out, "Could not save your score: %s\n", s.LastError)
			}
			fmt.Fprintf(out, "Quiz complete! Score: %d in %.1fs\n", s.Score, float64(s.TotalElapsedMs())/1000)
			name, ok := prompt("Enter your name: ")
			if !ok {
				return nil
			}
			s, _ = engine.Submit(ctx, s, name)

		case app.StateResult:
			printLeaderboard(out, s)
			line, ok := prompt("Play again? [y/N]: ")
			if !ok || !strings.EqualFold(line, "y") {
				return nil
			}
			s, _ = engine.Begin(ctx, s)
		}
	}
}

func printQuestion(out io.Writer, s app.Session) {
	fmt.Fprintf(out, "\nQuestion %d/%d  (score %d)\n%s\n", s.QuestionIndex+1, app.TotalQuestions, s.Score, s.Current.Question)
	for _, k := range domain.AnswerKeys {
		fmt.Fprintf(out, "  %s) %s\n", k, s.Current.Answers[k])
	}
}

func printLeaderboard(out io.Writer, s app.Session) {
	if s.LastError != "" {
		fmt.Fprintf(out, "Score saved, but the leaderboard is unavailable: %s\n", s.LastError)
		return
	}
	fmt.Fprintln(out, "\nLeaderboard")
	for i, e := range s.Leaderboard {
		fmt.Fprintf(out, "%2d. %-32s %5d  %.1fs\n", i+1, e.Name, e.Score, float64(e.Time)/1000)
	}
}
