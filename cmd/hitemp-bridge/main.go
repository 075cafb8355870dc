package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/victor987/hitemp/internal/api"
	"github.com/victor987/hitemp/internal/auth"
	"github.com/victor987/hitemp/internal/collector"
	"github.com/victor987/hitemp/internal/config"
	"github.com/victor987/hitemp/internal/device"
	"github.com/victor987/hitemp/internal/mqtt"
	"github.com/victor987/hitemp/internal/service"
	"github.com/victor987/hitemp/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting HiTemp bridge", "listen_addr", cfg.ListenAddr, "poll_interval", time.Duration(cfg.PollInterval))

	// Vendor cloud client and session
	client := api.NewClient(cfg.BaseURL, logger)
	session := auth.NewSession(client, auth.Credentials{
		Username: cfg.Username,
		Password: cfg.Password,
	}, logger)

	// Device access layers
	poller := device.NewPoller(client, session, logger)
	controller := device.NewController(client, session, logger)
	directory := device.NewDirectory(client, session, cfg.ProductIDs, logger)

	// Snapshot cache
	var cache *store.Store
	if cfg.StorePath != "" {
		cache, err = store.Open(cfg.StorePath)
		if err != nil {
			logger.Error("Failed to open snapshot store", "path", cfg.StorePath, "error", err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	// Poll service
	svc := service.New(directory, poller, controller, cache, time.Duration(cfg.PollInterval), logger)

	// MQTT bridge (optional)
	var bridge *mqtt.Bridge
	if cfg.MQTT.Enabled {
		bridge, err = mqtt.NewBridge(svc, cfg.MQTT, logger)
		if err != nil {
			logger.Error("Failed to connect MQTT bridge", "broker", cfg.MQTT.Broker, "error", err)
			os.Exit(1)
		}
	}

	// Prometheus collector over the snapshot state
	prometheus.MustRegister(collector.NewHeaterCollector(svc, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	// Setup HTTP server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")
	cancel()

	if bridge != nil {
		bridge.Stop()
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	session.Logout()
	logger.Info("Bridge stopped")
}

// setupLogger creates a structured logger based on configuration.
func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler

	logLevel := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// healthHandler responds to health check requests.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK\n"))
}
