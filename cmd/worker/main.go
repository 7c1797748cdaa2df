package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"aishortx/internal/bootstrap"
	"aishortx/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to initialise")
	}
	defer rt.Close()

	// Only one sweep runs at a time; a tick that lands on a running sweep is dropped.
	scheduler := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	if _, err := scheduler.AddFunc("@every "+cfg.SweepInterval.String(), func() {
		if err := rt.Service.Sweep(ctx); err != nil {
			logger.Error().Err(err).Msg("worker: sweep finished with errors")
		}
	}); err != nil {
		logger.Fatal().Err(err).Str("interval", cfg.SweepInterval.String()).Msg("worker: invalid sweep interval")
	}

	var metricsServer *infra.HTTPServer
	if cfg.MetricsPort != "" {
		metricsServer = infra.NewMetricsServer(cfg, ":"+cfg.MetricsPort)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("worker: metrics server failed")
			}
		}()
	}

	scheduler.Start()
	logger.Info().Dur("interval", cfg.SweepInterval).Int("batch", cfg.SweepBatchSize).Msg("worker: started")

	<-ctx.Done()
	logger.Info().Msg("worker: stopping")

	// Stop waits for a sweep in progress. Cancelling ctx stops new provider
	// polls and batches; status writes already decided still commit.
	<-scheduler.Stop().Done()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	logger.Info().Msg("worker: stopped")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l infra.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
