// Command api is the Ramadhan Time notifier API server.
//
// Usage:
//
//	ramadhan-api
//	API_PORT=8080 SCHEDULER_ENABLED=true ramadhan-api

// @title Ramadhan Time Notifier API
// @version 1.0.0
// @description Prayer and agenda reminder jobs, hijri adjustment setting, and daily prayer schedules.
// @BasePath /
// @schemes http https
// @contact.name Ramadhan Time
// @license.name MIT
// @securityDefinitions.apikey CronSecret
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // IANA zones from Aladhan responses

	"github.com/joho/godotenv"

	"github.com/ramadhantime/notifier/internal/api"
	"github.com/ramadhantime/notifier/internal/api/handler"
	"github.com/ramadhantime/notifier/internal/app"
	"github.com/ramadhantime/notifier/internal/config"
	"github.com/ramadhantime/notifier/internal/logging"
	"github.com/ramadhantime/notifier/internal/maintenance"

	_ "github.com/ramadhantime/notifier/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("Invalid logging configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Opening store...", "driver", cfg.StoreDriver, "directory", cfg.DirectoryBackend)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Start LISTEN/NOTIFY consumer for app setting changes
	go a.ListenForSettings(ctx)

	// Start in-process scheduler (prayer, agenda, ledger purge)
	if cfg.SchedulerEnabled {
		sched, err := maintenance.New(maintenance.Config{
			PrayerCron:      cfg.PrayerCron,
			AgendaCron:      cfg.AgendaCron,
			PurgeInterval:   cfg.PurgeInterval,
			LedgerRetention: cfg.LedgerRetention,
			JobTimeout:      cfg.RunLockTTL,
		}, a.Prayer, a.Agenda, a.Backend, logger)
		if err != nil {
			logger.Error("Invalid scheduler configuration", "error", err)
			os.Exit(1)
		}
		go sched.Start(ctx)
	} else {
		logger.Info("In-process scheduler disabled (jobs triggered over HTTP)")
	}

	// Create router
	router := api.NewRouter(handler.Deps{
		Prayer:    a.Prayer,
		Agenda:    a.Agenda,
		Hijri:     a.Hijri,
		Timetable: a.Aladhan,
		Store:     a.Backend,
		Cache:     a.Cache,
		Lead:      cfg.PrayerLead,
		Logger:    logger,
	}, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		BaseContext:  func(net.Listener) context.Context { return ctx },
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Ramadhan Time notifier",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
