package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/summary-dashboard/internal/config"
	"github.com/user/summary-dashboard/internal/scheduler"
	"github.com/user/summary-dashboard/internal/server"
	"github.com/user/summary-dashboard/internal/settings"
	"github.com/user/summary-dashboard/internal/store"
	"github.com/user/summary-dashboard/internal/video"
	"github.com/user/summary-dashboard/internal/webhook"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func setupLogging(cfg *config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if strings.EqualFold(cfg.Format, "console") {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	setupLogging(&cfg.Log)
	log.Info().Str("driver", cfg.DB.Driver).Msg("Configuration loaded successfully")

	// Create root context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewGormStore(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Database connection established")

	settingsService := settings.NewService(db, map[settings.WebhookType]string{
		settings.TypeDefault:      cfg.Webhook.DefaultURL,
		settings.TypeVideoSummary: cfg.Webhook.VideoSummaryURL,
		settings.TypeChannelMeta:  cfg.Webhook.ChannelMetaURL,
	})
	for _, t := range settings.Types {
		if settingsService.IsReadOnly(t) {
			log.Info().Str("webhook_type", string(t)).Msg("Webhook URL pinned by environment")
		}
	}

	dispatcher := webhook.NewDispatcher(settingsService, cfg.Webhook.Source, cfg.Webhook.RateLimit)
	videoService := video.NewService(db, dispatcher)

	sched := scheduler.NewScheduler(db, &cfg.Metrics)

	httpServer, err := server.NewServer(db, videoService, settingsService, server.Options{
		Title:           cfg.Dashboard.Title,
		RefreshInterval: cfg.Dashboard.RefreshInterval,
		CORSOrigins:     cfg.Server.CORSOrigins,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create HTTP server")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	sched.Start(ctx)

	log.Info().Msg("Summary dashboard started successfully")

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	// 1. Stop scheduler
	sched.Stop()

	// 2. Stop HTTP server, letting in-flight webhook calls finish
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	// 3. Close database connection pool
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	} else {
		log.Info().Msg("Database connection closed")
	}

	cancel()

	select {
	case <-shutdownCtx.Done():
		if shutdownCtx.Err() == context.DeadlineExceeded {
			log.Warn().Msg("Shutdown timeout exceeded, forcing exit")
		}
	default:
		log.Info().Msg("Graceful shutdown completed")
	}
}
