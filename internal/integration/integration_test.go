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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"voice-quiz-service/internal/app"
	"voice-quiz-service/internal/domain"
	"voice-quiz-service/internal/infra/memory"
	"voice-quiz-service/internal/infra/postgres"
	pgmigrations "voice-quiz-service/internal/infra/postgres/migrations"
	infraredis "voice-quiz-service/internal/infra/redis"
)

func TestQuizRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedDataset(t, ctx, pgURL, sampleDataset())

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	shared := infraredis.NewDatasetRepository(redisClient, postgres.NewDatasetLoader(pool), 5*time.Minute)
	datasets := memory.NewDatasetRepository(shared, time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	histories := postgres.NewHistoryStore(pool)
	service := app.NewQuizService(sessions, histories, datasets, app.GameConfig{
		DatasetID:  "capitals",
		AllowRetry: true,
		NumToPass:  0,
	}, app.WithRandSeed(42))

	turn := func(intent, raw, option string) app.Reply {
		t.Helper()
		reply, err := service.HandleTurn(ctx, domain.Turn{
			ConversationID: "conv-e2e",
			UserID:         "user-e2e",
			Intent:         intent,
			RawText:        raw,
			Option:         option,
			Surface:        domain.Surface{Screen: true, Canvas: true},
		})
		require.NoError(t, err)
		return reply
	}

	turn(app.IntentWelcome, "", "")
	reply := turn(app.IntentOptionSelected, "", "Hard")
	assert.Equal(t, "What is the capital of France?", reply.Canvas["headline"])

	reply = turn(app.IntentGiveAnswer, "paris", "")
	assert.Equal(t, "correct", reply.Canvas["result"])
	turn(app.IntentNextQuestion, "", "")
	turn(app.IntentDontKnow, "", "")
	reply = turn(app.IntentConfirmSeeScore, "", "")
	assert.Equal(t, domain.ScreenResults, reply.Canvas["screenType"])
	assert.Equal(t, 1, reply.Canvas["score"])

	assert.Equal(t, int64(1), redisClient.Exists(ctx, "quiz:dataset:capitals").Val())
	assert.Equal(t, int64(1), redisClient.Exists(ctx, "quiz:session:conv-e2e").Val())

	history, err := histories.Load(ctx, "user-e2e")
	require.NoError(t, err)
	assert.Equal(t, 1, history.Record(0).CorrectCount)
	assert.Equal(t, 1, history.Record(1).SeenCount)
	assert.Zero(t, history.Record(1).CorrectCount)
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
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
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
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
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// seedDataset runs the migrations and upserts the dataset through the bun writer.
func seedDataset(t *testing.T, ctx context.Context, dsn string, ds *domain.Dataset) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)

	writer := postgres.NewDatasetWriter(db)
	require.NoError(t, writer.SaveDataset(ctx, ds))
	ids, err := writer.ListDatasets(ctx)
	require.NoError(t, err)
	require.Contains(t, ids, ds.ID)
}

func sampleDataset() *domain.Dataset {
	return &domain.Dataset{
		ID: "capitals",
		Questions: []domain.Question{
			{Question: "What is the capital of France?", Answers: []string{"Paris"}, WrongAnswers: []string{"London", "Berlin"}},
			{Question: "What is the capital of Japan?", Answers: []string{"Tokyo"}, WrongAnswers: []string{"Kyoto", "Osaka"}},
		},
		Answers: []domain.Entity{{Value: "Paris", ShortDescription: "Capital of France"}},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
