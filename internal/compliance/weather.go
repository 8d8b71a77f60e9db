package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

// WeatherImpactRequest asks whether adverse weather at the delivery location
// excuses a supplier's non-compliant records. Lat/Lon override geocoding of
// the supplier's country when both are set. RecordID narrows adjudication to
// one record; empty means every non-compliant record on the delivery date.
type WeatherImpactRequest struct {
	SupplierID   string   `json:"supplier_id"`
	RecordID     string   `json:"compliance_record_id,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	DeliveryDate string   `json:"delivery_date"`
}

// WeatherImpactResult reports the adjudication outcome and any records it
// reclassified.
type WeatherImpactResult struct {
	SupplierID      string                     `json:"supplier_id"`
	RecordID        string                     `json:"compliance_record_id,omitempty"`
	WeatherAnalysis domain.WeatherAdjudication `json:"weather_analysis"`
	Justification   string                     `json:"justification"`
	StatusUpdated   bool                       `json:"status_updated"`
	UpdatedRecords  []domain.ComplianceRecord  `json:"updated_records"`
}

// CheckWeatherImpact resolves the delivery location, fetches historical
// weather for the delivery date, runs adverse-weather detection, and
// reclassifies matching non_compliant records to excused_weather in one
// transaction. Re-running with the same inputs is a no-op: excused records
// are never selected again.
func (s *Service) CheckWeatherImpact(ctx context.Context, req WeatherImpactRequest) (WeatherImpactResult, error) {
	supplier, err := s.store.GetSupplier(ctx, req.SupplierID)
	if err != nil {
		return WeatherImpactResult{}, err
	}

	coords, err := s.resolveCoordinates(ctx, req, supplier.Country)
	if err != nil {
		return WeatherImpactResult{}, err
	}

	date, err := domain.ParseDate(req.DeliveryDate)
	if err != nil {
		return WeatherImpactResult{}, err
	}

	observation := s.fetchWeather(ctx, coords, date)
	analysis := domain.DetectAdverseWeather(observation)

	updated, err := s.selectAndReclassify(ctx, req, date, analysis)
	if err != nil {
		return WeatherImpactResult{}, err
	}

	if len(updated) > 0 {
		if err := s.store.SaveAdjudication(ctx, updated); err != nil {
			return WeatherImpactResult{}, err
		}
		s.metrics.RecordsExcused.Add(float64(len(updated)))

		events := make([]domain.ComplianceEvent, 0, len(updated))
		for _, rec := range updated {
			events = append(events, domain.ComplianceEvent{
				Type:       domain.EventRecordExcused,
				SupplierID: rec.SupplierID,
				RecordID:   rec.ID,
				Metric:     rec.Metric,
				Verdict:    rec.Verdict,
				OccurredAt: domain.Now(),
			})
		}
		s.publish(ctx, events)

		s.logger.Info("records excused by weather",
			"supplier_id", req.SupplierID, "delivery_date", req.DeliveryDate,
			"records", len(updated), "severity", analysis.Severity)
	}

	return WeatherImpactResult{
		SupplierID:      req.SupplierID,
		RecordID:        req.RecordID,
		WeatherAnalysis: analysis,
		Justification:   analysis.Justification,
		StatusUpdated:   len(updated) > 0,
		UpdatedRecords:  updated,
	}, nil
}

// resolveCoordinates prefers explicit lat/lon; otherwise it geocodes the
// supplier's country. A geocoding miss is a hard error so callers know to
// retry with explicit coordinates.
func (s *Service) resolveCoordinates(ctx context.Context, req WeatherImpactRequest, country string) (domain.Coordinates, error) {
	if req.Lat != nil && req.Lon != nil {
		return domain.Coordinates{Lat: *req.Lat, Lon: *req.Lon}, nil
	}
	if s.geocoder == nil {
		return domain.Coordinates{}, fmt.Errorf("geocoding is disabled, provide lat/lon: %w", domain.ErrInvalidInput)
	}
	coords, err := s.geocoder.Lookup(ctx, country)
	if err != nil {
		s.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Coordinates{}, fmt.Errorf("could not determine coordinates for country %q, provide lat/lon: %w", country, err)
	}
	s.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return coords, nil
}

// fetchWeather asks the weather provider for the delivery date's observation,
// substituting the synthetic clear-sky reading when the provider is missing
// or unavailable. Adjudication always proceeds.
func (s *Service) fetchWeather(ctx context.Context, coords domain.Coordinates, date time.Time) domain.HistoricalWeather {
	if s.weather == nil {
		s.metrics.WeatherRequests.WithLabelValues("synthetic").Inc()
		return domain.SyntheticObservation()
	}

	start := domain.Now()
	observation, err := s.weather.Historical(ctx, coords.Lat, coords.Lon, date)
	s.metrics.WeatherDuration.Observe(domain.Now().Sub(start).Seconds())

	if err != nil {
		s.metrics.WeatherRequests.WithLabelValues("error").Inc()
		s.logger.Warn("weather data unavailable, using synthetic observation",
			"lat", coords.Lat, "lon", coords.Lon, "date", date.Format(time.DateOnly), "error", err)
		return domain.SyntheticObservation()
	}
	s.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return observation
}

// selectAndReclassify picks the records eligible for excusal and mutates them
// when adverse weather was found. Only non_compliant records are eligible;
// already-excused records fall outside every selection, which is what makes
// adjudication idempotent.
func (s *Service) selectAndReclassify(ctx context.Context, req WeatherImpactRequest, date time.Time, analysis domain.WeatherAdjudication) ([]domain.ComplianceRecord, error) {
	var candidates []domain.ComplianceRecord

	if req.RecordID != "" {
		rec, err := s.store.GetRecord(ctx, req.RecordID)
		if err != nil {
			return nil, err
		}
		if rec.SupplierID != req.SupplierID {
			return nil, fmt.Errorf("record %s does not belong to supplier %s: %w",
				req.RecordID, req.SupplierID, domain.ErrNotFound)
		}
		if rec.Verdict == domain.VerdictNonCompliant {
			candidates = append(candidates, rec)
		}
	} else {
		records, err := s.store.RecordsOnDate(ctx, req.SupplierID, date, domain.VerdictNonCompliant)
		if err != nil {
			return nil, err
		}
		candidates = records
	}

	if !analysis.HasAdverseWeather {
		return nil, nil
	}

	updated := make([]domain.ComplianceRecord, 0, len(candidates))
	for _, rec := range candidates {
		rec.Verdict = domain.VerdictExcusedWeather
		analysisCopy := analysis
		rec.WeatherData = &analysisCopy
		rec.WeatherJustification = analysis.Justification
		updated = append(updated, rec)
	}
	return updated, nil
}
