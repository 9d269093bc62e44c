package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hszk-dev/vidlib/internal/api/handler"
	"github.com/hszk-dev/vidlib/internal/api/middleware"
	"github.com/hszk-dev/vidlib/internal/config"
	"github.com/hszk-dev/vidlib/internal/domain/repository"
	"github.com/hszk-dev/vidlib/internal/infrastructure/cache"
	"github.com/hszk-dev/vidlib/internal/infrastructure/migrations"
	"github.com/hszk-dev/vidlib/internal/infrastructure/postgres"
	"github.com/hszk-dev/vidlib/internal/infrastructure/queue"
	"github.com/hszk-dev/vidlib/internal/infrastructure/sqlite"
	"github.com/hszk-dev/vidlib/internal/infrastructure/storage"
	"github.com/hszk-dev/vidlib/internal/streaming"
	"github.com/hszk-dev/vidlib/internal/usecase"
	"github.com/hszk-dev/vidlib/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.close()

	blobs, err := storage.NewLocalStore(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open video storage: %w", err)
	}
	logger.Info("video storage ready", slog.String("dir", blobs.Dir()))

	events, err := openEvents(cfg.RabbitMQ, logger)
	if err != nil {
		return err
	}
	defer events.Close()

	svc := usecase.NewVideoService(store.repo, blobs, usecase.VideoServiceConfig{
		MaxUploadSize: cfg.Storage.MaxUploadBytes(),
		Events:        events,
	})

	if cfg.Redis.Enabled {
		redisClient, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info("connected to Redis")

		svc = usecase.NewCachedVideoService(svc, cache.NewRedisVideoCache(redisClient), usecase.CachedVideoServiceConfig{
			CacheTTL: cfg.Redis.CacheTTL,
		})
	}

	videoHandler := handler.NewVideoHandler(svc, handler.VideoHandlerConfig{
		MaxUploadSize: cfg.Storage.MaxUploadBytes(),
		Copier: streaming.Copier{
			BufferSize:   cfg.Stream.BufferSize,
			StallTimeout: cfg.Stream.StallTimeout,
		},
	})

	r := setupRouter(logger, cfg.CORS, videoHandler, handler.PingerFunc(store.ping))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// metadataStore is the opened video metadata backend.
type metadataStore struct {
	repo  repository.VideoRepository
	ping  func(ctx context.Context) error
	close func()
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*metadataStore, error) {
	if cfg.AutoMigrate {
		if err := migrations.Up(cfg); err != nil {
			return nil, fmt.Errorf("failed to migrate %s schema: %w", cfg.Driver, err)
		}
		logger.Info("database schema up to date", slog.String("driver", cfg.Driver))
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		logger.Info("opened SQLite", slog.String("path", cfg.SQLitePath))
		return &metadataStore{
			repo: sqlite.NewVideoRepository(db),
			ping: db.PingContext,
			close: func() {
				if err := db.Close(); err != nil {
					logger.Warn("failed to close SQLite", slog.String("error", err.Error()))
				}
			},
		}, nil

	case config.DriverPostgres:
		pgClient, err := postgres.NewClient(ctx, postgres.ClientConfigFrom(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		logger.Info("connected to PostgreSQL")
		return &metadataStore{
			repo:  postgres.NewVideoRepository(pgClient.Pool()),
			ping:  pgClient.Ping,
			close: pgClient.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openEvents(cfg config.RabbitMQConfig, logger *slog.Logger) (repository.EventPublisher, error) {
	if !cfg.Enabled {
		return queue.NopPublisher{}, nil
	}

	publisher, err := queue.NewPublisher(queue.PublisherConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	logger.Info("connected to RabbitMQ", slog.String("exchange", cfg.Exchange))
	return publisher, nil
}

func setupRouter(
	logger *slog.Logger,
	corsCfg config.CORSConfig,
	videoHandler *handler.VideoHandler,
	store handler.Pinger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(corsCfg))

	r.Get("/health", handler.Health(store))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/video", videoHandler.Register)

	r.Handle("/*", web.Handler())

	return r
}
