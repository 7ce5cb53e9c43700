package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/meterhub/forecastd/internal/api"
	middleware "github.com/meterhub/forecastd/internal/api/middlewares"
	"github.com/meterhub/forecastd/internal/config"
	"github.com/meterhub/forecastd/internal/database"
	"github.com/meterhub/forecastd/internal/forecast"
	"github.com/meterhub/forecastd/internal/ingest"
	"github.com/meterhub/forecastd/internal/loader"
	"github.com/meterhub/forecastd/internal/scheduler"
	"github.com/meterhub/forecastd/internal/states"
	"github.com/meterhub/forecastd/internal/units"
)

// Command forecastd normalizes heterogeneous forecast sensor payloads
// into canonical time series and serves them over HTTP.
//
// The service supports:
//   - Format detection for the known provider payloads
//   - Forecast resampling onto caller-supplied time grids
//   - Live sensor readings merged into forecast series
//   - Optional Postgres-backed state storage
//   - Optional periodic ingestion from a Home Assistant instance
//   - Prometheus metrics
//
// Usage:
//
//	forecastd [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	appConfig, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(appConfig.Logging)
	logger.WithFields(logrus.Fields{
		"port": appConfig.Server.Port,
	}).Info("Starting forecastd")

	store, err := createStore(appConfig)
	if err != nil {
		logger.Fatalf("Failed to create state store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core wiring: dispatcher and the three loaders share the store and
	// the default unit conversion.
	dispatcher := forecast.NewDispatcher(logger)
	forecastLoader := loader.NewForecastLoader(store, dispatcher, units.ConvertToBaseUnit)
	sensorLoader := loader.NewSensorLoader(store, units.ConvertToBaseUnit)
	combinedLoader := loader.NewForecastAndSensorLoader(sensorLoader, forecastLoader)

	if err := middleware.InitializeCache(appConfig.Cache.Size); err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}
	prometheus.MustRegister(middleware.Requests)
	prometheus.MustRegister(middleware.Latency)

	app := fiber.New(fiber.Config{
		AppName:               "forecastd",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(middleware.RequestID)
	app.Use(middleware.RateLimiting(appConfig.RateLimit.RequestsPerSecond, appConfig.RateLimit.Burst))
	app.Use(middleware.Logging(logger))
	app.Use(middleware.Metrics)
	app.Use(middleware.Caching)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "forecastd"})
	})

	server := api.NewServer(store, dispatcher, forecastLoader, sensorLoader, combinedLoader)
	server.RegisterRoutes(app)

	errChan := make(chan error, 1)

	// Optional Home Assistant ingestion on a cron cadence.
	if appConfig.HomeAssistant.Enabled {
		client := ingest.NewClient(appConfig.HomeAssistant.URL, appConfig.HomeAssistant.Token, nil)
		ingestor := ingest.NewIngestor(client, store, appConfig.HomeAssistant.Entities, logger)
		sched := scheduler.NewScheduler(ctx, ingestor, appConfig.HomeAssistant.CronSpec, logger)
		if err := sched.Start(); err != nil {
			logger.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()

		// Prime the store so the API is usable before the first tick.
		go func() {
			syncCtx, syncCancel := context.WithTimeout(ctx, 2*time.Minute)
			defer syncCancel()
			if _, err := ingestor.Sync(syncCtx); err != nil {
				logger.WithError(err).Warn("Initial state sync failed")
			}
		}()
	}

	if appConfig.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", appConfig.Metrics.Port)
			if err := http.ListenAndServe(addr, mux); err != nil {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	go handleShutdown(ctx, app, logger, store)

	go func() {
		addr := fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.Port)
		if err := app.Listen(addr); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	if err := <-errChan; err != nil {
		logger.Fatalf("Service error: %v", err)
	}
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// createStore picks the Postgres-backed store when configured and falls
// back to the in-memory store otherwise.
func createStore(cfg *config.Config) (states.Store, error) {
	if cfg.Database.Enabled {
		return database.NewPostgresStore(cfg.Database.ConnectionString())
	}
	return states.NewMemoryStore(), nil
}

// handleShutdown drains the HTTP server and closes the store on
// SIGINT/SIGTERM.
func handleShutdown(ctx context.Context, app *fiber.App, logger *logrus.Logger, store states.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("Context canceled, initiating shutdown")
	case sig := <-sigChan:
		logger.Infof("Received signal %v, initiating shutdown", sig)
	}

	logger.Info("Gracefully stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}
	logger.Info("Server stopped")

	store.Close()
	os.Exit(0)
}
