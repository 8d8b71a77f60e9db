package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// compliance service.
type Metrics struct {
	RecordsIngested  *prometheus.CounterVec // labels: status={compliant,non_compliant}
	RecordsExcused   prometheus.Counter
	IngestDuration   prometheus.Histogram
	SuppliersCreated prometheus.Counter

	// Collaborator metrics.
	GeocodeRequests  *prometheus.CounterVec   // labels: outcome={success,error}
	WeatherRequests  *prometheus.CounterVec   // labels: outcome={success,error,synthetic}
	AnalyzerRequests *prometheus.CounterVec   // labels: kind={compliance,insights}, outcome={success,unavailable,unparsable}
	WeatherDuration  prometheus.Histogram
	WeatherEnabled   prometheus.Gauge
	AnalyzerEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplier_compliance",
			Name:      "records_ingested_total",
			Help:      "Compliance records persisted, by resulting status.",
		}, []string{"status"}),
		RecordsExcused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supplier_compliance",
			Name:      "records_excused_total",
			Help:      "Non-compliant records reclassified as excused by weather.",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "supplier_compliance",
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete classify-advise-persist batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SuppliersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supplier_compliance",
			Name:      "suppliers_created_total",
			Help:      "Suppliers registered through the API.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplier_compliance",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplier_compliance",
			Name:      "weather_requests_total",
			Help:      "Historical weather lookups by outcome.",
		}, []string{"outcome"}),
		AnalyzerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplier_compliance",
			Name:      "analyzer_requests_total",
			Help:      "Advisory analyzer calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		WeatherDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "supplier_compliance",
			Name:      "weather_api_duration_seconds",
			Help:      "Weather API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WeatherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "supplier_compliance",
			Name:      "weather_enabled",
			Help:      "1 when weather adjudication uses live data, 0 otherwise.",
		}),
		AnalyzerEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "supplier_compliance",
			Name:      "analyzer_enabled",
			Help:      "1 when the advisory analyzer is configured, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsIngested,
		m.RecordsExcused,
		m.IngestDuration,
		m.SuppliersCreated,
		m.GeocodeRequests,
		m.WeatherRequests,
		m.AnalyzerRequests,
		m.WeatherDuration,
		m.WeatherEnabled,
		m.AnalyzerEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsIngested:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "supplier_compliance", Name: "records_ingested_total"}, []string{"status"}),
		RecordsExcused:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "supplier_compliance", Name: "records_excused_total"}),
		IngestDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "supplier_compliance", Name: "ingest_duration_seconds"}),
		SuppliersCreated: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "supplier_compliance", Name: "suppliers_created_total"}),
		GeocodeRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "supplier_compliance", Name: "geocode_requests_total"}, []string{"outcome"}),
		WeatherRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "supplier_compliance", Name: "weather_requests_total"}, []string{"outcome"}),
		AnalyzerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "supplier_compliance", Name: "analyzer_requests_total"}, []string{"kind", "outcome"}),
		WeatherDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "supplier_compliance", Name: "weather_api_duration_seconds"}),
		WeatherEnabled:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "supplier_compliance", Name: "weather_enabled"}),
		AnalyzerEnabled:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "supplier_compliance", Name: "analyzer_enabled"}),
	}
}
