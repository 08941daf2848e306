package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/engine"
	"server/internal/generation"
	"server/internal/infra"
)

// Standalone poll loop for deployments that keep the API stateless. It
// shares the jobs table with the API process, so it needs PostgreSQL; in
// demo mode the API runs its own scheduler and this binary is not used.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if cfg.DemoMode() {
		logger.Fatal().Msg("poller: DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("poller: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner)

	var videoEngine engine.Client
	if cfg.Engine == infra.EngineVeo {
		videoEngine = engine.NewVeo(engine.VeoOptions{
			APIKey:  cfg.VeoAPIKey,
			BaseURL: cfg.VeoBaseURL,
			Model:   cfg.VeoModel,
			Logger:  &logger,
		})
	} else {
		videoEngine = engine.NewSimulator(6)
	}

	poller := generation.NewPoller(generation.PollerOptions{
		Jobs:   jobs,
		Engine: videoEngine,
		Logger: logger,
	})
	scheduler := generation.NewScheduler(generation.SchedulerOptions{
		Poller:   poller,
		Jobs:     jobs,
		Logger:   logger,
		Interval: cfg.PollInterval,
	})

	if err := scheduler.Resume(ctx); err != nil {
		logger.Error().Err(err).Msg("poller: resume failed")
	}
	logger.Info().Int("active", scheduler.ActiveCount()).Msg("poller: started")

	// Jobs are submitted by the API process, so rescan the store to pick up
	// work that arrived after boot.
	go func() {
		ticker := time.NewTicker(5 * cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := scheduler.Resume(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error().Err(err).Msg("poller: rescan failed")
				}
			}
		}
	}()

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("poller: stopped")
	}
	logger.Info().Msg("poller: shut down")
}
