package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"server/internal/adapter/memory"
	"server/internal/adapter/repo"
	"server/internal/admin"
	"server/internal/domain"
	"server/internal/engine"
	"server/internal/generation"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/storage"
)

const rootAdminCoins = 999999

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var accounts domain.AccountRepository
	var jobs domain.JobRepository
	var stats domain.StatsRepository
	if cfg.DemoMode() {
		logger.Warn().Msg("DATABASE_URL not set, running with in-memory stores")
		accounts = memory.NewAccountStore()
		jobs = memory.NewJobStore()
	} else {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		accounts = repo.NewAccountRepository(runner)
		jobs = repo.NewJobRepository(runner)
		stats = repo.NewStatsRepository(runner)
	}

	assets, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init asset storage")
	}

	var videoEngine engine.Client
	switch cfg.Engine {
	case infra.EngineVeo:
		videoEngine = engine.NewVeo(engine.VeoOptions{
			APIKey:  cfg.VeoAPIKey,
			BaseURL: cfg.VeoBaseURL,
			Model:   cfg.VeoModel,
			Logger:  &logger,
		})
	default:
		// Roughly 20 seconds of simulated rendering at the default tick.
		videoEngine = engine.NewSimulator(6)
	}

	seedRootAdmin(ctx, accounts, cfg.AdminEmail, logger)

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
	orchestrator := generation.NewOrchestrator(generation.OrchestratorOptions{
		Accounts:      accounts,
		Jobs:          jobs,
		Engine:        videoEngine,
		Assets:        assets,
		Watcher:       scheduler,
		Logger:        logger,
		SubmitTimeout: cfg.SubmitTimeout,
	})
	aggregator := admin.New(admin.Options{
		Accounts:  accounts,
		Jobs:      jobs,
		Stats:     stats,
		RootEmail: cfg.AdminEmail,
		Logger:    logger,
	})

	if err := scheduler.Resume(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to resume active jobs")
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	app := &handlers.App{
		Accounts:     accounts,
		Jobs:         jobs,
		Orchestrator: orchestrator,
		Poller:       poller,
		Admin:        aggregator,
		Assets:       assets,
		Logger:       logger,
		JWTSecret:    cfg.JWTSecret,
	}
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		AllowedOrigins:  []string{"*"},
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   lookup,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// seedRootAdmin ensures the protected admin account exists.
func seedRootAdmin(ctx context.Context, accounts domain.AccountRepository, email string, logger infra.Logger) {
	if email == "" {
		return
	}
	if _, err := accounts.GetByEmail(ctx, email); err == nil {
		return
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		logger.Error().Err(err).Msg("root admin lookup failed")
		return
	}
	account := &domain.Account{
		ID:    uuid.NewString(),
		Email: email,
		Name:  "Root Admin",
		Role:  domain.AccountRoleAdmin,
		Coins: rootAdminCoins,
	}
	if err := accounts.Create(ctx, account); err != nil {
		logger.Error().Err(err).Msg("root admin seed failed")
		return
	}
	logger.Info().Str("account_id", account.ID).Msg("root admin seeded")
}
