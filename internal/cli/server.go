package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"voice-quiz-service/internal/app"
	"voice-quiz-service/internal/config"
	"voice-quiz-service/internal/infra/amqp"
	"voice-quiz-service/internal/infra/memory"
	"voice-quiz-service/internal/infra/postgres"
	redisstore "voice-quiz-service/internal/infra/redis"
	transport "voice-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz fulfillment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	datasetTTL := config.TTLDuration(cfg.Dataset.TTL, 10*time.Minute)
	var loader memory.DatasetLoader = memory.NewFileDatasetLoader(cfg.Dataset.Path)
	if pool != nil {
		loader = postgres.NewDatasetLoader(pool)
	}
	if redisClient != nil {
		// Redis shares one load across instances; the in-process cache still fronts it.
		loader = redisstore.NewDatasetRepository(redisClient, loader, datasetTTL)
	}
	datasets := memory.NewDatasetRepository(loader, datasetTTL)

	var sessions app.SessionRepository = memory.NewSessionStore()
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Session.TTL, 30*time.Minute))
	}

	var histories app.HistoryRepository = memory.NewHistoryStore()
	switch {
	case pool != nil:
		histories = postgres.NewHistoryStore(pool)
	case redisClient != nil:
		histories = redisstore.NewHistoryStore(redisClient, config.TTLDuration(cfg.Redis.HistoryTTL, 0))
	}

	opts := []app.Option{app.WithLogger(logger)}
	if cfg.AMQP.URL != "" {
		publisher, err := amqp.NewEventPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		defer publisher.Close()
		opts = append(opts, app.WithEventPublisher(publisher))
	}

	service := app.NewQuizService(sessions, histories, datasets, gameConfig(cfg), opts...)

	// Fail fast on unreadable content instead of on the first turn.
	if _, err := datasets.GetDataset(ctx, cfg.Dataset.ID); err != nil {
		return fmt.Errorf("load dataset %q: %w", cfg.Dataset.ID, err)
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, logger, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", "port", finalPort, "dataset", cfg.Dataset.ID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

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

// gameConfig maps the YAML quiz section onto the engine's settings.
func gameConfig(cfg config.Config) app.GameConfig {
	thresholds := make([]app.FeedbackThreshold, len(cfg.Quiz.FeedbackThresholds))
	for i, th := range cfg.Quiz.FeedbackThresholds {
		thresholds[i] = app.FeedbackThreshold{Score: th.Score, Reply: th.Reply}
	}
	return app.GameConfig{
		DatasetID:          cfg.Dataset.ID,
		Ordering:           cfg.Quiz.Ordering,
		AllowRetry:         cfg.Quiz.AllowRetry,
		NumToPass:          cfg.Quiz.NumToPass,
		WelcomeBackMaxTime: config.TTLDuration(cfg.Quiz.WelcomeBackMaxTime, 7*24*time.Hour),
		ImageURL:           cfg.Quiz.ImageURL,
		AudioURL:           cfg.Quiz.AudioURL,
		CanvasURL:          cfg.Quiz.CanvasURL,
		FeedbackThresholds: thresholds,
	}
}
