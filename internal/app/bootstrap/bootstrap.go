package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	lotteryengine "tombola/contexts/draw-core/lottery-engine"
	postgresadapter "tombola/contexts/draw-core/lottery-engine/adapters/postgres"
	"tombola/contexts/draw-core/lottery-engine/application/workers"
	"tombola/internal/platform/config"
	"tombola/internal/platform/db"
	"tombola/internal/platform/httpserver"
	"tombola/internal/platform/secrets"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres  *db.Postgres
	scheduler workers.WinnerScheduler
	logger    *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, logger, err := loadConfig("api")
	if err != nil {
		return nil, err
	}

	pg, module, err := buildModule(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, logger, err := loadConfig("worker")
	if err != nil {
		return nil, err
	}

	pg, module, err := buildModule(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres:  pg,
		scheduler: module.Scheduler,
		logger:    logger,
	}, nil
}

func loadConfig(process string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", process)
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return config.Config{}, nil, errors.New("POSTGRES_DSN is required")
	}
	return cfg, logger, nil
}

func buildModule(cfg config.Config, logger *slog.Logger) (*db.Postgres, lotteryengine.Module, error) {
	codec, err := secrets.NewCodec(cfg.EncryptionKey, cfg.HashSalt)
	if err != nil {
		return nil, lotteryengine.Module{}, err
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, lotteryengine.Module{}, err
	}
	if err := pg.Migrate(postgresadapter.Models()...); err != nil {
		_ = pg.Close()
		return nil, lotteryengine.Module{}, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := lotteryengine.NewModule(lotteryengine.Dependencies{
		Repos:        repo,
		UoW:          repo,
		Codec:        codec,
		Aliases:      postgresadapter.RandomAliasGenerator{},
		Clock:        postgresadapter.SystemClock{},
		IDGen:        postgresadapter.UUIDGenerator{},
		Location:     cfg.Location(),
		MaxDaysAhead: cfg.MaxDaysAhead,
		Logger:       logger,
	})
	return pg, module, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run sleeps until each civil midnight and triggers one winner selection.
// Selection failures are handled inside the scheduler; only context
// cancellation stops the loop.
func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	for {
		timer := time.NewTimer(w.nextDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		w.scheduler.RunOnce(ctx)
	}
}

// nextDelay measures the time until the next civil midnight on the
// scheduler's own clock.
func (w *WorkerApp) nextDelay() time.Duration {
	now := w.scheduler.Clock.Now()
	return w.scheduler.NextRun(now).Sub(now)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
