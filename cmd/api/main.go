package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"aishortx/internal/bootstrap"
	"aishortx/internal/generation"
	"aishortx/internal/http/handlers"
	httpapi "aishortx/internal/http/httpapi"
	"aishortx/internal/infra"
)

func main() {
	// .env is optional outside development.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")
	if err := cfg.RequireJWTSecret(); err != nil {
		logger.Fatal().Err(err).Msg("api: invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to initialise")
	}
	defer rt.Close()

	dispatcher := generation.NewDispatcher(rt.Service, cfg.LaunchTimeout)
	go dispatcher.LogErrors(logger)

	app := &handlers.App{
		Tasks:      rt.Store.Repositories().Tasks,
		Projects:   rt.Store.Projects(),
		Canceller:  rt.Service,
		Dispatcher: dispatcher,
		Assets:     rt.Assets,
		Logger:     logger,
	}
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		JWTSecret:       cfg.JWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Logger:          logger,
		ExposeMetrics:   cfg.MetricsPort == "",
		StaticDir:       rt.Files.BasePath(),
	})
	server := infra.NewHTTPServer(cfg, ":"+cfg.Port, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api: listening")
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("api: http server failed")
			stop()
		}
	}()
	if cfg.MetricsPort != "" {
		metricsServer := infra.NewMetricsServer(cfg, ":"+cfg.MetricsPort)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("api: metrics server failed")
			}
		}()
		defer shutdown(metricsServer, cfg, logger)
	}

	<-ctx.Done()
	logger.Info().Msg("api: shutting down")

	shutdown(server, cfg, logger)

	// Launches cut short here leave their task pending for the sweep.
	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := dispatcher.Close(closeCtx); err != nil {
		logger.Warn().Err(err).Msg("api: abandoned in-flight launches")
	}
	logger.Info().Msg("api: stopped")
}

func shutdown(server *infra.HTTPServer, cfg *infra.Config, logger infra.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Str("addr", server.Addr()).Msg("failed to shutdown server")
	}
}
