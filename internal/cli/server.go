package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizrank/internal/app"
	"quizrank/internal/config"
	"quizrank/internal/infra/gemini"
	"quizrank/internal/infra/memory"
	"quizrank/internal/infra/postgres"
	rediscache "quizrank/internal/infra/redis"
	transport "quizrank/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var entries app.LeaderboardRepository = memory.NewLeaderboardStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		entries = postgres.NewLeaderboardStore(pool)
	}
	if redisClient != nil {
		entries = rediscache.NewLeaderboardCache(redisClient, entries, config.TTLDuration(cfg.Leaderboard.CacheTTL, 10*time.Second))
	}

	source, err := questionSource(ctx, cfg)
	if err != nil {
		return err
	}
	questions := app.NewQuestionService(source, cfg.Gemini.MaxConcurrent,
		config.TTLDuration(cfg.Gemini.Timeout, 30*time.Second), logger)

	leaderboard := app.NewLeaderboardService(entries, cfg.Leaderboard.Limit, logger)

	sessionTTL := config.TTLDuration(cfg.Session.TTL, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	var store app.SessionRepository
	if redisClient != nil {
		store = rediscache.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore(sessionTTL)
	}
	sessions := app.NewSessionService(store, app.NewEngine(questions, leaderboard), logger)

	api := transport.NewAPI(questions, leaderboard, sessions, logger)
	// Question generation can take most of the upstream timeout.
	writeTimeout := config.TTLDuration(cfg.Gemini.Timeout, 30*time.Second) + 15*time.Second
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(api, transport.NewWSHandler(leaderboard, logger), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
	}

	go func() {
		logger.Info("starting quizrank", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// questionSource picks Gemini when a key is configured and the built-in bank otherwise.
func questionSource(ctx context.Context, cfg config.Config) (app.QuestionSource, error) {
	if cfg.Gemini.APIKey == "" {
		logger.Warn("no gemini api key configured, serving the built-in question bank")
		return memory.NewQuestionBank(memory.DefaultQuestions()), nil
	}
	src, err := gemini.NewQuestionSource(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}
	logger.Info("generating questions with gemini", zap.String("model", src.Model()))
	return src, nil
}
