package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-widget/internal/api"
	"github.com/bobby-s-dev/weather-widget/internal/config"
	"github.com/bobby-s-dev/weather-widget/internal/scheduler"
	"github.com/bobby-s-dev/weather-widget/internal/services"
	"github.com/bobby-s-dev/weather-widget/internal/widget"
	"github.com/bobby-s-dev/weather-widget/pkg/client"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger = newLogger(cfg.Server.LogLevel, logger)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Widget Service")

	provider := client.NewOpenWeatherClient(
		cfg.WeatherAPI.OpenWeatherAPIKey,
		client.Endpoints{
			GeoURL:     cfg.WeatherAPI.GeoURL,
			WeatherURL: cfg.WeatherAPI.WeatherURL,
			IconURL:    cfg.WeatherAPI.IconURL,
		},
		client.ClientConfig{
			Timeout:        cfg.WeatherAPI.Timeout,
			Threshold:      cfg.CircuitBreaker.Threshold,
			BreakerTimeout: cfg.CircuitBreaker.Timeout,
		},
		logger,
	)

	widgetOpts := widget.Options{
		Debounce:        cfg.Suggest.Debounce,
		SuggestionLimit: cfg.Suggest.Limit,
	}
	sessions := services.NewSessionStore(func() *widget.Widget {
		return widget.New(provider, widgetOpts, logger)
	}, cfg.Sessions.IdleTTL, cfg.Sessions.MaxSize, logger)

	janitor := scheduler.NewScheduler(sessions, cfg.Sessions.SweepSchedule, logger)
	if err := janitor.Start(); err != nil {
		logger.Fatal("Failed to start session janitor", zap.Error(err))
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: api.ErrorHandler,
	})

	handler := api.NewHandler(sessions, janitor, logger)
	api.SetupRoutes(app, handler, logger)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	janitor.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	sessions.Close()
	logger.Info("Server stopped")
}

// newLogger rebuilds the production logger at the configured level.
func newLogger(level string, fallback *zap.Logger) *zap.Logger {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		fallback.Warn("Invalid log level, keeping info", zap.String("level", level), zap.Error(err))
		return fallback
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = lvl
	logger, err := zapCfg.Build()
	if err != nil {
		fallback.Warn("Failed to build logger", zap.Error(err))
		return fallback
	}
	return logger
}
