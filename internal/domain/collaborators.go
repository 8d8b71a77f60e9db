package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for the service failure taxonomy. Adapters and the store
// wrap these so orchestrators and the HTTP layer can classify with
// errors.Is.
var (
	// ErrNotFound marks an absent supplier or record. Hard error.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks malformed caller input. Hard error.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable marks an unreachable external collaborator. Recovered
	// locally with a deterministic fallback, never propagated.
	ErrUnavailable = errors.New("collaborator unavailable")
	// ErrUnparsable marks a collaborator reply that could not be decoded.
	// Also recovered locally, with a distinguishable fallback.
	ErrUnparsable = errors.New("collaborator response unparsable")
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves a country name to coordinates.
type Geocoder interface {
	// Lookup returns the country's coordinates, or an error wrapping
	// ErrNotFound when the country cannot be resolved.
	Lookup(ctx context.Context, country string) (Coordinates, error)
}

// WeatherProvider fetches historical weather for a location and date.
type WeatherProvider interface {
	// Historical returns the observation for the given day, or an error
	// wrapping ErrUnavailable when the provider cannot serve it.
	Historical(ctx context.Context, lat, lon float64, date time.Time) (HistoricalWeather, error)
}

// Analyzer is the advisory AI collaborator. Its output is opaque advisory
// data; callers must treat errors as a signal to substitute fallbacks, never
// as a reason to fail.
type Analyzer interface {
	AnalyzeCompliance(ctx context.Context, supplierName string, records []RecordView) (AdvisoryOpinion, error)
	GenerateInsights(ctx context.Context, suppliers []SupplierInsightData) (InsightsOpinion, error)
}

// Compliance event types published to the audit stream.
const (
	EventRecordCreated = "record_created"
	EventRecordExcused = "record_excused"
	EventScoreUpdated  = "score_updated"
)

// ComplianceEvent is one audit-trail entry emitted after a successful
// ingestion or adjudication transaction.
type ComplianceEvent struct {
	Type       string    `json:"type"`
	SupplierID string    `json:"supplier_id"`
	RecordID   string    `json:"record_id,omitempty"`
	Metric     string    `json:"metric,omitempty"`
	Verdict    Verdict   `json:"verdict,omitempty"`
	Score      *int      `json:"score,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher emits compliance events. Publishing is best-effort:
// orchestrators log failures and move on.
type EventPublisher interface {
	Publish(ctx context.Context, events []ComplianceEvent) error
}
