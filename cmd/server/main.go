package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/crmsync"
	"github.com/JonMunkholm/intake/internal/logging"
	"github.com/JonMunkholm/intake/internal/metrics"
	"github.com/JonMunkholm/intake/internal/pricing"
	"github.com/JonMunkholm/intake/internal/profile"
	"github.com/JonMunkholm/intake/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	schedule, err := pricing.LoadSchedule(cfg.Pricing.ScheduleFile)
	if err != nil {
		slog.Error("failed to load fee schedule", "file", cfg.Pricing.ScheduleFile, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var directory core.FirmDirectory = profile.NewStaticDirectory(nil)
	if cfg.Profile.DatabaseURL != "" {
		pool, err := profile.Connect(ctx, profile.PoolConfig{
			URL:             cfg.Profile.DatabaseURL,
			MaxConns:        cfg.Profile.MaxConns,
			MinConns:        cfg.Profile.MinConns,
			MaxConnLifetime: cfg.Profile.MaxConnLifetime,
		})
		if err != nil {
			slog.Error("failed to connect to profile database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		directory = profile.NewPgDirectory(pool, cfg.Profile.QueryTimeout)
		slog.Info("firm directory: profile database")
	} else {
		slog.Info("firm directory: disabled, applicant matching is off")
	}

	var publisher crmsync.Publisher
	if len(cfg.CRM.Brokers) > 0 {
		publisher = crmsync.NewKafkaPublisher(crmsync.KafkaConfig{Brokers: cfg.CRM.Brokers})
		slog.Info("crm sync: kafka", "brokers", cfg.CRM.Brokers)
	} else {
		publisher = crmsync.NewLogPublisher(nil)
		slog.Info("crm sync: log only")
	}
	defer publisher.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	service := core.NewService(core.ServiceConfig{
		MaxFileSize:   cfg.Upload.MaxFileSize,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		ChunkSize:     cfg.Upload.ChunkSize,
		Timeout:       cfg.Upload.Timeout,
	}, directory, m)

	dispatcher := crmsync.NewDispatcher(publisher, crmsync.Config{
		ContactTopic:      cfg.CRM.ContactTopic,
		ConfirmationTopic: cfg.CRM.ConfirmationTopic,
		Timeout:           cfg.CRM.SyncTimeout,
		Concurrency:       cfg.CRM.SyncConcurrency,
	}, m)

	server := web.NewServer(cfg.Server, web.Deps{
		Service:    service,
		Engine:     pricing.NewEngine(schedule),
		Dispatcher: dispatcher,
		Metrics:    m,
	})

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			}
		}
		if err := dispatcher.Wait(shutdownCtx); err != nil {
			slog.Warn("crm sync did not complete in time", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
