// Package main provides the entrypoint for the LiveHike API server.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livehike/livehike/internal/api"
	"github.com/livehike/livehike/internal/api/middleware"
	"github.com/livehike/livehike/internal/blob"
	"github.com/livehike/livehike/internal/config"
	"github.com/livehike/livehike/internal/logger"
	"github.com/livehike/livehike/internal/notify"
	"github.com/livehike/livehike/internal/pin"
	"github.com/livehike/livehike/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "livehike-api"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, loadedEnvFile := config.Load()

	log, logCloser := logger.New(logger.Config{
		Service: serviceName,
		Version: Version,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer logCloser.Close()

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Bool("env_file", loadedEnvFile).
		Msg("starting LiveHike API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize telemetry")
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()
	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.OTelSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize HTTP metrics")
		return 1
	}
	pinMetrics, err := pin.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize pin metrics")
		return 1
	}

	blobs, err := blob.Open(ctx, cfg.Blob, log)
	if err != nil {
		log.Error().Err(err).Str("backend", cfg.Blob.Backend).Msg("failed to open blob backend")
		return 1
	}
	defer blobs.Close()
	log.Info().Str("backend", cfg.Blob.Backend).Msg("blob backend opened")

	store, err := pin.NewStore(ctx, pin.StoreConfig{
		Blobs:        blobs,
		Logger:       log,
		Metrics:      pinMetrics,
		SeedDemoData: cfg.SeedDemoData,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to load pin store")
		return 1
	}
	snap := store.Snapshot()
	log.Info().
		Int("trails", len(snap.Trails)).
		Int("pins", len(snap.PinLocations)).
		Msg("pin store loaded")

	relayDone := make(chan struct{})
	if cfg.PubSubEnabled() {
		publisher, err := notify.NewPubSubPublisher(ctx, cfg.PubSubProjectID, cfg.PubSubTopic)
		if err != nil {
			log.Error().Err(err).Msg("failed to create pubsub publisher")
			return 1
		}
		defer publisher.Close()

		relay := notify.NewRelay(notify.RelayConfig{Source: store, Publisher: publisher, Logger: log})
		go func() {
			defer close(relayDone)
			relay.Run(ctx)
		}()
		log.Info().
			Str("project", cfg.PubSubProjectID).
			Str("topic", cfg.PubSubTopic).
			Msg("event relay enabled")
	} else {
		close(relayDone)
	}

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		Store:       store,
		Reports:     pin.NewReportService(store),
		Blobs:       blobs,
		Backend:     cfg.Blob.Backend,
		DefaultUser: cfg.DefaultUser,
		RequireTLS:  cfg.RequireTLS,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
		exitCode = 1
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		exitCode = 1
	}
	<-relayDone

	log.Info().Msg("server stopped")
	return exitCode
}
