package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/application/services"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/clients/postgres"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
	"github.com/IlyaKonFetka/max-social-miniapp/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env, cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	injector := setupDI(cfg, metrics)

	pgClient, err := do.Invoke[*postgres.Client](injector)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	rd := do.MustInvoke[*redisDeps](injector)
	if rd.client != nil {
		defer rd.client.Close()
	}

	// Keep cached volunteer data in step with session events
	var invalidation *services.CacheInvalidationService
	if rd.cache != nil && rd.bus != nil {
		invalidation = services.NewCacheInvalidationService(rd.cache, rd.bus)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
			invalidation = nil
		}
	}

	volunteers, err := do.Invoke[*services.VolunteerService](injector)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build volunteer service")
	}
	if err := volunteers.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to warm volunteer cache")
	}

	handler, err := do.Invoke[http.Handler](injector)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build HTTP handler")
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if rd.bus != nil {
		if err := rd.bus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	if invalidation != nil {
		invalidation.Stop()
	}

	log.Info().Msg("Server stopped")
}
