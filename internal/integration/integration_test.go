package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"quizrank/internal/app"
	"quizrank/internal/domain"
	"quizrank/internal/infra/postgres"
	pgmigrations "quizrank/internal/infra/postgres/migrations"
	infraredis "quizrank/internal/infra/redis"
)

func TestLeaderboardEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	repo := infraredis.NewLeaderboardCache(redisClient, postgres.NewLeaderboardStore(pool), time.Minute)
	service := app.NewLeaderboardService(repo, 10, zap.NewNop())

	if err := service.Submit(ctx, "Alice", 800, 6200); err != nil {
		t.Fatalf("submit: %v", err)
	}
	top, err := service.Top(ctx, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].Name != "Alice" {
		t.Fatalf("expected alice alone, got %+v", top)
	}
	if n, _ := redisClient.Exists(ctx, "leaderboard:top:10").Result(); n != 1 {
		t.Fatalf("expected top-10 read to be cached")
	}

	// Same score, faster run ranks above; the cached read must not hide it.
	if err := service.Submit(ctx, "Bob", 800, 5100); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := service.Submit(ctx, strings.Repeat("x", 40), 100, 9000); err != nil {
		t.Fatalf("submit long name: %v", err)
	}
	top, err = service.Top(ctx, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 3 || top[0].Name != "Bob" || top[1].Name != "Alice" {
		t.Fatalf("expected bob then alice, got %+v", top)
	}
	if len(top[2].Name) != domain.MaxNameLength {
		t.Fatalf("expected truncated name, got %q", top[2].Name)
	}
	if top[0].Time != 5100 || top[0].CreatedAt.IsZero() || top[0].ID == "" {
		t.Fatalf("entry fields not persisted: %+v", top[0])
	}
}

func TestQuizRunPersistsScore(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	board := app.NewLeaderboardService(postgres.NewLeaderboardStore(pool), 10, zap.NewNop())
	now := time.Now()
	engine := app.NewEngineWithClock(staticSource{}, board, func() time.Time { return now })

	s, err := engine.Begin(ctx, app.NewSession("run-1"))
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for {
		s, _, err = engine.Answer(s, domain.AnswerB)
		if err != nil {
			t.Fatalf("answer: %v", err)
		}
		if s.State == app.StateNameEntry {
			break
		}
		if s, err = engine.Next(ctx, s); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	s, err = engine.Submit(ctx, s, "Carol")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.State != app.StateResult || len(s.Leaderboard) != 1 || s.Leaderboard[0].Score != 1000 {
		t.Fatalf("unexpected result %+v", s)
	}
}

type staticSource struct{}

func (staticSource) NextQuestion(context.Context) (domain.Question, error) {
	return domain.Question{
		Question: "Which metric measures the share of visitors who leave after one page?",
		Answers: map[domain.AnswerKey]string{
			domain.AnswerA: "Conversion rate",
			domain.AnswerB: "Bounce rate",
			domain.AnswerC: "Churn",
			domain.AnswerD: "Reach",
		},
		CorrectAnswer: domain.AnswerB,
	}, nil
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
