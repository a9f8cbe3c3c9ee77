package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"rewards/internal/cache"
	"rewards/internal/cli"
	"rewards/internal/config"
	apphttp "rewards/internal/http"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/services"
	"rewards/internal/source"
	"rewards/internal/source/breaker"
	filesrc "rewards/internal/source/file"
	mem "rewards/internal/source/memory"
	"rewards/internal/source/remote"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.MustLoadConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout, false))
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout, false)

	loc, _ := cfg.Location()
	m := metrics.New()

	var src source.TransactionSource
	switch cfg.DataSource {
	case config.SourceMemory:
		store, err := mem.NewFromFile(cfg.TransactionsFile)
		if err != nil {
			logger.Warn("Starting with an empty memory source", "file", cfg.TransactionsFile, "error", err)
		}
		src = store
	case config.SourceHTTP:
		src = remote.New(nil, cfg.TransactionsURL, remote.Config{MaxRetries: cfg.SourceRetries})
	default:
		src = filesrc.New(cfg.TransactionsFile)
	}
	if cfg.BreakerFailures > 0 {
		name := src.Name()
		src = breaker.New(src, breaker.Settings{
			Failures:    uint32(cfg.BreakerFailures),
			OpenTimeout: cfg.BreakerTimeout,
			OnStateChange: func(_, to string) {
				m.SetCircuitState(name, to)
			},
		}, logger)
	}
	logger.Info("Initialized transaction source", log.FieldSource, src.Name())

	svc := services.NewRewardsService(src, services.RewardsServiceConfig{
		Location:  loc,
		Timeout:   cfg.AggregationTimeout,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	}, logger, m)

	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache))
	cacheManager.Register(svc.Cache())
	cacheManager.OnCleaned(m.AddCacheExpired)
	if cfg.CacheTTL > 0 {
		cacheManager.StartCleanup(cfg.CacheTTL)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:       logger,
		Metrics:      m,
		WriteTimeout: cfg.AggregationTimeout + 5*time.Second,
	})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := cli.ShutdownContext(context.Background(), logger)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting rewards server", "port", cfg.Port, log.FieldSource, src.Name(), "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	exit := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			exit = 1
		}
	}

	_ = cli.RunShutdown(logger, 30*time.Second,
		srv.Shutdown,
		func(context.Context) error {
			cacheManager.Stop()
			return nil
		},
	)
	logger.Info("Server stopped gracefully")
	os.Exit(exit)
}
