// Package compliance orchestrates supplier management, metric ingestion,
// weather adjudication, and insight generation over the domain engines.
//
// Collaborator failures never fail a request: the advisory analyzer degrades
// to deterministic fallback opinions and the weather provider degrades to a
// synthetic clear-sky observation. Only storage errors and invalid caller
// input propagate.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
	"github.com/couchcryptid/supplier-compliance-service/internal/observability"
)

// Storage is the persistence surface the orchestrators need.
type Storage interface {
	CreateSupplier(ctx context.Context, supplier domain.Supplier) error
	GetSupplier(ctx context.Context, id string) (domain.Supplier, error)
	ListSuppliers(ctx context.Context, offset, limit int) ([]domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) error
	DeleteSupplier(ctx context.Context, id string) error

	CreateRecord(ctx context.Context, rec domain.ComplianceRecord) error
	GetRecord(ctx context.Context, id string) (domain.ComplianceRecord, error)
	ListRecords(ctx context.Context, supplierID, metric string, offset, limit int) ([]domain.ComplianceRecord, error)
	RecentRecords(ctx context.Context, supplierID string, limit int) ([]domain.ComplianceRecord, error)
	RecordsOnDate(ctx context.Context, supplierID string, date time.Time, status domain.Verdict) ([]domain.ComplianceRecord, error)
	RecordsSince(ctx context.Context, supplierID string, since time.Time, limit int) ([]domain.ComplianceRecord, error)
	CountRecordsSince(ctx context.Context, since time.Time) (total, compliant int, err error)

	SaveIngestion(ctx context.Context, records []domain.ComplianceRecord, supplierID string, score int) error
	SaveAdjudication(ctx context.Context, records []domain.ComplianceRecord) error

	Ping(ctx context.Context) error
}

// historicalRecordLimit caps how many past records accompany a new batch into
// the advisory analysis.
const historicalRecordLimit = 50

// Service wires storage, the collaborators, and the domain engines together.
// The geocoder, weather provider, analyzer, and publisher may each be nil;
// the corresponding feature then runs degraded or disabled.
type Service struct {
	store     Storage
	geocoder  domain.Geocoder
	weather   domain.WeatherProvider
	analyzer  domain.Analyzer
	publisher domain.EventPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates a Service with the given storage and collaborators.
func NewService(store Storage, geocoder domain.Geocoder, weather domain.WeatherProvider, analyzer domain.Analyzer, publisher domain.EventPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:     store,
		geocoder:  geocoder,
		weather:   weather,
		analyzer:  analyzer,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness reports whether the service can serve traffic.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CreateSupplier registers a new supplier. Name and country are required;
// a duplicate name is an ErrInvalidInput from storage.
func (s *Service) CreateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	if supplier.Name == "" {
		return domain.Supplier{}, fmt.Errorf("supplier name is required: %w", domain.ErrInvalidInput)
	}
	if supplier.Country == "" {
		return domain.Supplier{}, fmt.Errorf("supplier country is required: %w", domain.ErrInvalidInput)
	}

	supplier.ID = uuid.NewString()
	supplier.ComplianceScore = domain.ClampScore(supplier.ComplianceScore)
	supplier.CreatedAt = domain.Now()
	supplier.UpdatedAt = nil

	if err := s.store.CreateSupplier(ctx, supplier); err != nil {
		return domain.Supplier{}, err
	}
	s.metrics.SuppliersCreated.Inc()
	s.logger.Info("supplier created", "supplier_id", supplier.ID, "name", supplier.Name)
	return supplier, nil
}

// SupplierDetail is a supplier together with all its compliance records.
type SupplierDetail struct {
	domain.Supplier
	ComplianceRecords []domain.ComplianceRecord `json:"compliance_records"`
}

// GetSupplier fetches a supplier and its full record history.
func (s *Service) GetSupplier(ctx context.Context, id string) (SupplierDetail, error) {
	supplier, err := s.store.GetSupplier(ctx, id)
	if err != nil {
		return SupplierDetail{}, err
	}
	records, err := s.store.ListRecords(ctx, id, "", 0, 0)
	if err != nil {
		return SupplierDetail{}, err
	}
	return SupplierDetail{Supplier: supplier, ComplianceRecords: records}, nil
}

// ListSuppliers returns suppliers with offset/limit pagination.
func (s *Service) ListSuppliers(ctx context.Context, offset, limit int) ([]domain.Supplier, error) {
	return s.store.ListSuppliers(ctx, offset, limit)
}

// SupplierUpdate carries the optional fields of a partial supplier update.
// Nil fields are left untouched.
type SupplierUpdate struct {
	Name            *string         `json:"name"`
	Country         *string         `json:"country"`
	ContractTerms   *map[string]any `json:"contract_terms"`
	ComplianceScore *int            `json:"compliance_score"`
	LastAudit       *string         `json:"last_audit"`
}

// UpdateSupplier applies a partial update and stamps updated_at.
func (s *Service) UpdateSupplier(ctx context.Context, id string, update SupplierUpdate) (domain.Supplier, error) {
	supplier, err := s.store.GetSupplier(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}

	if update.Name != nil {
		supplier.Name = *update.Name
	}
	if update.Country != nil {
		supplier.Country = *update.Country
	}
	if update.ContractTerms != nil {
		supplier.ContractTerms = *update.ContractTerms
	}
	if update.ComplianceScore != nil {
		supplier.ComplianceScore = domain.ClampScore(*update.ComplianceScore)
	}
	if update.LastAudit != nil {
		audit, err := domain.ParseDate(*update.LastAudit)
		if err != nil {
			return domain.Supplier{}, err
		}
		supplier.LastAudit = &audit
	}

	now := domain.Now()
	supplier.UpdatedAt = &now

	if err := s.store.UpdateSupplier(ctx, supplier); err != nil {
		return domain.Supplier{}, err
	}
	return supplier, nil
}

// DeleteSupplier removes a supplier and, by cascade, its records. Returns the
// deleted supplier's name for the caller's confirmation message.
func (s *Service) DeleteSupplier(ctx context.Context, id string) (string, error) {
	supplier, err := s.store.GetSupplier(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.store.DeleteSupplier(ctx, id); err != nil {
		return "", err
	}
	s.logger.Info("supplier deleted", "supplier_id", id, "name", supplier.Name)
	return supplier.Name, nil
}

// CreateRecord stores a single record verbatim with the caller-supplied
// status. The excused_weather verdict is reserved for adjudication and is
// rejected here.
func (s *Service) CreateRecord(ctx context.Context, rec domain.ComplianceRecord) (domain.ComplianceRecord, error) {
	if _, err := s.store.GetSupplier(ctx, rec.SupplierID); err != nil {
		return domain.ComplianceRecord{}, err
	}
	if !rec.Verdict.Valid() || rec.Verdict == domain.VerdictExcusedWeather {
		return domain.ComplianceRecord{}, fmt.Errorf("status %q is not assignable at creation: %w", rec.Verdict, domain.ErrInvalidInput)
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = domain.Now()

	if err := s.store.CreateRecord(ctx, rec); err != nil {
		return domain.ComplianceRecord{}, err
	}
	s.metrics.RecordsIngested.WithLabelValues(string(rec.Verdict)).Inc()
	s.publish(ctx, []domain.ComplianceEvent{{
		Type:       domain.EventRecordCreated,
		SupplierID: rec.SupplierID,
		RecordID:   rec.ID,
		Metric:     rec.Metric,
		Verdict:    rec.Verdict,
		OccurredAt: domain.Now(),
	}})
	return rec, nil
}

// ListRecords returns a supplier's records, newest first, with an optional
// metric filter. The supplier must exist.
func (s *Service) ListRecords(ctx context.Context, supplierID, metric string, offset, limit int) ([]domain.ComplianceRecord, error) {
	if _, err := s.store.GetSupplier(ctx, supplierID); err != nil {
		return nil, err
	}
	return s.store.ListRecords(ctx, supplierID, metric, offset, limit)
}

// Observation is one incoming metric measurement to classify and ingest.
type Observation struct {
	Metric        string         `json:"metric"`
	DateRecorded  string         `json:"date_recorded"`
	Result        float64        `json:"result"`
	ExpectedValue *float64       `json:"expected_value"`
	Status        domain.Verdict `json:"status"`
}

// IngestResult is the outcome of a compliance check batch.
type IngestResult struct {
	SupplierID        string                    `json:"supplier_id"`
	ComplianceRecords []domain.ComplianceRecord `json:"compliance_records"`
	AIAnalysis        domain.AdvisoryOpinion    `json:"ai_analysis"`
	UpdatedScore      int                       `json:"updated_compliance_score"`
}

// CheckCompliance classifies a batch of observations, obtains one shared
// advisory opinion over the batch plus recent history, and commits the new
// records together with the supplier's updated score in one transaction.
func (s *Service) CheckCompliance(ctx context.Context, supplierID string, observations []Observation) (IngestResult, error) {
	start := domain.Now()
	defer func() {
		s.metrics.IngestDuration.Observe(domain.Now().Sub(start).Seconds())
	}()

	supplier, err := s.store.GetSupplier(ctx, supplierID)
	if err != nil {
		return IngestResult{}, err
	}
	if len(observations) == 0 {
		return IngestResult{}, fmt.Errorf("no observations supplied: %w", domain.ErrInvalidInput)
	}

	now := domain.Now()
	staged := make([]domain.ComplianceRecord, 0, len(observations))
	for _, obs := range observations {
		if !obs.Status.Valid() || obs.Status == domain.VerdictExcusedWeather {
			return IngestResult{}, fmt.Errorf("status %q is not assignable at creation: %w", obs.Status, domain.ErrInvalidInput)
		}
		date, err := domain.ParseDate(obs.DateRecorded)
		if err != nil {
			return IngestResult{}, err
		}
		staged = append(staged, domain.ComplianceRecord{
			ID:            uuid.NewString(),
			SupplierID:    supplierID,
			Metric:        obs.Metric,
			DateRecorded:  date,
			Result:        obs.Result,
			ExpectedValue: obs.ExpectedValue,
			Verdict:       domain.Classify(obs.Metric, obs.Result, obs.ExpectedValue, obs.Status),
			CreatedAt:     now,
		})
	}

	// The advisory view is the staged batch followed by up to 50 historical
	// records, newest first.
	historical, err := s.store.RecentRecords(ctx, supplierID, historicalRecordLimit)
	if err != nil {
		return IngestResult{}, err
	}
	views := make([]domain.RecordView, 0, len(staged)+len(historical))
	for _, rec := range staged {
		views = append(views, rec.View())
	}
	for _, rec := range historical {
		views = append(views, rec.View())
	}

	opinion := s.adviseCompliance(ctx, supplier.Name, views)
	for i := range staged {
		op := opinion
		staged[i].AIAnalysis = &op
	}

	score := supplier.ComplianceScore
	if opinion.ComplianceScoreSuggestion != nil {
		score = domain.ClampScore(int(*opinion.ComplianceScoreSuggestion))
	}

	if err := s.store.SaveIngestion(ctx, staged, supplierID, score); err != nil {
		return IngestResult{}, err
	}

	events := make([]domain.ComplianceEvent, 0, len(staged)+1)
	for _, rec := range staged {
		s.metrics.RecordsIngested.WithLabelValues(string(rec.Verdict)).Inc()
		events = append(events, domain.ComplianceEvent{
			Type:       domain.EventRecordCreated,
			SupplierID: supplierID,
			RecordID:   rec.ID,
			Metric:     rec.Metric,
			Verdict:    rec.Verdict,
			OccurredAt: now,
		})
	}
	events = append(events, domain.ComplianceEvent{
		Type:       domain.EventScoreUpdated,
		SupplierID: supplierID,
		Score:      &score,
		OccurredAt: now,
	})
	s.publish(ctx, events)

	s.logger.Info("compliance batch ingested",
		"supplier_id", supplierID, "records", len(staged), "score", score)

	return IngestResult{
		SupplierID:        supplierID,
		ComplianceRecords: staged,
		AIAnalysis:        opinion,
		UpdatedScore:      score,
	}, nil
}

// adviseCompliance asks the analyzer for an opinion, substituting the
// appropriate fallback when it is missing, unreachable, or unparsable.
func (s *Service) adviseCompliance(ctx context.Context, supplierName string, views []domain.RecordView) domain.AdvisoryOpinion {
	if s.analyzer == nil {
		s.metrics.AnalyzerRequests.WithLabelValues("compliance", "unavailable").Inc()
		return domain.UnavailableOpinion(errors.New("analyzer not configured"))
	}
	opinion, err := s.analyzer.AnalyzeCompliance(ctx, supplierName, views)
	switch {
	case err == nil:
		s.metrics.AnalyzerRequests.WithLabelValues("compliance", "success").Inc()
		return opinion
	case errors.Is(err, domain.ErrUnparsable):
		s.metrics.AnalyzerRequests.WithLabelValues("compliance", "unparsable").Inc()
		s.logger.Warn("advisory response unparsable", "supplier", supplierName, "error", err)
		return domain.UnparsableOpinion()
	default:
		s.metrics.AnalyzerRequests.WithLabelValues("compliance", "unavailable").Inc()
		s.logger.Warn("advisory analysis unavailable", "supplier", supplierName, "error", err)
		return domain.UnavailableOpinion(err)
	}
}

// publish emits events best-effort. A nil publisher means eventing is
// disabled; failures are logged and never fail the request.
func (s *Service) publish(ctx context.Context, events []domain.ComplianceEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events); err != nil {
		s.logger.Warn("event publish failed", "events", len(events), "error", err)
	}
}
