package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabaseDSN string

	// Nominatim geocoding configuration.
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int

	// OpenWeather configuration. Without an API key the weather engine runs
	// against a synthetic clear-sky observation.
	OpenWeatherAPIKey string
	WeatherTimeout    time.Duration
	WeatherEnabled    bool

	// Gemini advisory analyzer configuration.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	// Kafka event publishing configuration.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parseDurationEnv("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDurationEnv("OPENWEATHER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	geminiTimeout, err := parseDurationEnv("GEMINI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	weatherKey := os.Getenv("OPENWEATHER_API_KEY")
	weatherEnabled := weatherKey != ""
	if v := os.Getenv("WEATHER_ENABLED"); v != "" {
		weatherEnabled = v == "true"
	}

	kafkaBrokers := parseBrokers(envOrDefault("KAFKA_BROKERS", ""))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseDSN: envOrDefault("DATABASE_DSN", "supplier_compliance.db"),

		GeocoderTimeout:   geocoderTimeout,
		GeocoderCacheSize: parseCacheSize(),

		OpenWeatherAPIKey: weatherKey,
		WeatherTimeout:    weatherTimeout,
		WeatherEnabled:    weatherEnabled,

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiTimeout: geminiTimeout,

		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "compliance-events"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}
	if cfg.WeatherEnabled && cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("WEATHER_ENABLED is true but OPENWEATHER_API_KEY is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when Kafka is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
