package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is required")

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	WeatherAPI struct {
		OpenWeatherAPIKey string
		GeoURL            string
		WeatherURL        string
		IconURL           string
		Timeout           time.Duration
	}

	Suggest struct {
		Debounce time.Duration
		Limit    int
	}

	Sessions struct {
		IdleTTL       time.Duration
		MaxSize       int
		SweepSchedule string
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"), 10*time.Second)
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "10s"), 10*time.Second)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Weather API configuration
	cfg.WeatherAPI.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", "")
	cfg.WeatherAPI.GeoURL = getEnv("OPENWEATHER_GEO_URL", "https://api.openweathermap.org/geo/1.0")
	cfg.WeatherAPI.WeatherURL = getEnv("OPENWEATHER_WEATHER_URL", "https://api.openweathermap.org/data/2.5")
	cfg.WeatherAPI.IconURL = getEnv("OPENWEATHER_ICON_URL", "https://openweathermap.org/img/wn")
	cfg.WeatherAPI.Timeout = parseDuration(getEnv("HTTP_TIMEOUT", "10s"), 10*time.Second)

	// Suggestion configuration
	cfg.Suggest.Debounce = parseDuration(getEnv("SUGGEST_DEBOUNCE", "300ms"), 300*time.Millisecond)
	cfg.Suggest.Limit = parseInt(getEnv("SUGGEST_LIMIT", "5"), 5)

	// Session configuration
	cfg.Sessions.IdleTTL = parseDuration(getEnv("SESSION_IDLE_TTL", "30m"), 30*time.Minute)
	cfg.Sessions.MaxSize = parseInt(getEnv("SESSION_MAX", "1000"), 1000)
	cfg.Sessions.SweepSchedule = getEnv("SESSION_SWEEP_SCHEDULE", "@every 1m")

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"), 3)
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"), 30*time.Second)

	if cfg.WeatherAPI.OpenWeatherAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return fallback
	}
	return duration
}

func parseInt(value string, fallback int) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return fallback
	}
	return intValue
}
