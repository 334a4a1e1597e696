package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"webhookrelay/internal/api"
	"webhookrelay/internal/auth"
	"webhookrelay/internal/config"
	"webhookrelay/internal/handlers"
	"webhookrelay/internal/logging"
	"webhookrelay/internal/metrics"
	"webhookrelay/internal/rest"
)

func main() {
	// Bootstrap logger until the configured one exists
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger, closer := logging.New(cfg.Logging)
	defer closer.Close()

	logger.Info().
		Str("version", cfg.Server.Version).
		Str("addr", cfg.Server.Addr()).
		Str("bingx_base_url", cfg.BingX.BaseURL).
		Str("api_key", cfg.BingX.MaskedAPIKey()).
		Dur("bingx_timeout", cfg.BingX.Timeout).
		Int64("recv_window", cfg.BingX.RecvWindow).
		Bool("mask_upstream_5xx", cfg.Relay.MaskUpstream5xx).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Msg("Starting webhook relay service")

	signer := auth.NewSignerWithRecvWindow(cfg.BingX.APIKey, cfg.BingX.SecretKey, cfg.BingX.RecvWindow)
	client := rest.NewClient(cfg.BingX.BaseURL, signer, rest.WithTimeout(cfg.BingX.Timeout))

	var collector *metrics.Collector
	metricsPath := ""
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		metricsPath = cfg.Metrics.Path
	}

	server, err := api.NewServer(api.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Version:      cfg.Server.Version,
		CORSOrigins:  cfg.Server.CORSOrigins,
		MetricsPath:  metricsPath,
		LogLevel:     cfg.Logging.Level,
		Webhook: handlers.WebhookConfig{
			MaskUpstream5xx: cfg.Relay.MaskUpstream5xx,
			MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		},
	}, client, collector, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create server")
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

		// In-flight orders get ShutdownTimeout to finish
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown server gracefully")
		}

		logger.Info().Msg("Shutdown complete")
	}
}
