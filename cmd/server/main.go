package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/supplier-compliance-service/internal/adapter/gemini"
	httpadapter "github.com/couchcryptid/supplier-compliance-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/supplier-compliance-service/internal/adapter/kafka"
	"github.com/couchcryptid/supplier-compliance-service/internal/adapter/nominatim"
	"github.com/couchcryptid/supplier-compliance-service/internal/adapter/openweather"
	"github.com/couchcryptid/supplier-compliance-service/internal/compliance"
	"github.com/couchcryptid/supplier-compliance-service/internal/config"
	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
	"github.com/couchcryptid/supplier-compliance-service/internal/observability"
	"github.com/couchcryptid/supplier-compliance-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	// Geocoding is always on; the LRU cache fronts Nominatim's rate limits.
	client := nominatim.NewClient(cfg.GeocoderTimeout, logger)
	geocoder := nominatim.NewCachedGeocoder(client, cfg.GeocoderCacheSize)

	// Weather adjudication (feature-flagged via WEATHER_ENABLED / OPENWEATHER_API_KEY).
	var weather domain.WeatherProvider
	if cfg.WeatherEnabled {
		weather = openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.WeatherTimeout, logger)
		metrics.WeatherEnabled.Set(1)
		logger.Info("weather adjudication enabled", "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("weather adjudication disabled, synthetic observations will be used")
	}

	// Advisory AI (enabled when GEMINI_API_KEY is set).
	var analyzer domain.Analyzer
	if cfg.GeminiAPIKey != "" {
		analyzer = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, logger)
		metrics.AnalyzerEnabled.Set(1)
		logger.Info("advisory analysis enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("advisory analysis disabled, fallback opinions will be used")
	}

	// Event publishing (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher *kafkaadapter.Publisher
	var eventSink domain.EventPublisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		eventSink = publisher
		logger.Info("event publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("event publishing disabled")
	}

	svc := compliance.NewService(st, geocoder, weather, analyzer, eventSink, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
