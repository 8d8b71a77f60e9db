package compliance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
	"github.com/couchcryptid/supplier-compliance-service/internal/observability"
	"github.com/couchcryptid/supplier-compliance-service/internal/store"
)

var frozenTime = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type mockGeocoder struct {
	coords domain.Coordinates
	err    error
	calls  int
}

func (m *mockGeocoder) Lookup(_ context.Context, _ string) (domain.Coordinates, error) {
	m.calls++
	if m.err != nil {
		return domain.Coordinates{}, m.err
	}
	return m.coords, nil
}

type mockWeather struct {
	observation domain.HistoricalWeather
	err         error
	calls       int
	lastLat     float64
	lastLon     float64
	lastDate    time.Time
}

func (m *mockWeather) Historical(_ context.Context, lat, lon float64, date time.Time) (domain.HistoricalWeather, error) {
	m.calls++
	m.lastLat, m.lastLon, m.lastDate = lat, lon, date
	if m.err != nil {
		return domain.HistoricalWeather{}, m.err
	}
	return m.observation, nil
}

type mockAnalyzer struct {
	opinion     domain.AdvisoryOpinion
	opinionErr  error
	insights    domain.InsightsOpinion
	insightsErr error

	lastSupplierName string
	lastViews        []domain.RecordView
	lastData         []domain.SupplierInsightData
}

func (m *mockAnalyzer) AnalyzeCompliance(_ context.Context, supplierName string, records []domain.RecordView) (domain.AdvisoryOpinion, error) {
	m.lastSupplierName = supplierName
	m.lastViews = records
	if m.opinionErr != nil {
		return domain.AdvisoryOpinion{}, m.opinionErr
	}
	return m.opinion, nil
}

func (m *mockAnalyzer) GenerateInsights(_ context.Context, suppliers []domain.SupplierInsightData) (domain.InsightsOpinion, error) {
	m.lastData = suppliers
	if m.insightsErr != nil {
		return domain.InsightsOpinion{}, m.insightsErr
	}
	return m.insights, nil
}

type mockPublisher struct {
	events []domain.ComplianceEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, events []domain.ComplianceEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

type fixture struct {
	svc       *Service
	store     *store.Store
	geocoder  *mockGeocoder
	weather   *mockWeather
	analyzer  *mockAnalyzer
	publisher *mockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	domain.SetClock(clockwork.NewFakeClockAt(frozenTime))
	t.Cleanup(func() { domain.SetClock(nil) })

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	f := &fixture{
		store:     st,
		geocoder:  &mockGeocoder{coords: domain.Coordinates{Lat: 52.5, Lon: 13.4}},
		weather:   &mockWeather{observation: clearWeather()},
		analyzer:  &mockAnalyzer{},
		publisher: &mockPublisher{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(st, f.geocoder, f.weather, f.analyzer, f.publisher, logger, observability.NewMetricsForTesting())
	return f
}

func clearWeather() domain.HistoricalWeather {
	return domain.HistoricalWeather{
		Data: []domain.WeatherObservation{{
			Timestamp: frozenTime.Unix(),
			Temp:      18,
			Weather:   []domain.WeatherCondition{{Main: "Clear", Description: "clear sky"}},
			WindSpeed: 4,
		}},
	}
}

func stormyWeather() domain.HistoricalWeather {
	return domain.HistoricalWeather{
		Data: []domain.WeatherObservation{{
			Timestamp: frozenTime.Unix(),
			Temp:      12,
			Weather:   []domain.WeatherCondition{{Main: "Rain", Description: "heavy intensity rain"}},
			WindSpeed: 8,
			Rain:      &domain.Precipitation{OneHour: 15},
		}},
	}
}

func (f *fixture) mustCreateSupplier(t *testing.T, name string) domain.Supplier {
	t.Helper()
	supplier, err := f.svc.CreateSupplier(context.Background(), domain.Supplier{
		Name:            name,
		Country:         "Germany",
		ComplianceScore: 85,
	})
	require.NoError(t, err)
	return supplier
}

func fptr(v float64) *float64 { return &v }

func TestCreateSupplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("assigns id and timestamps", func(t *testing.T) {
		supplier, err := f.svc.CreateSupplier(ctx, domain.Supplier{Name: "TechCorp Solutions", Country: "US", ComplianceScore: 85})
		require.NoError(t, err)
		assert.NotEmpty(t, supplier.ID)
		assert.Equal(t, frozenTime, supplier.CreatedAt)
		assert.Nil(t, supplier.UpdatedAt)
	})

	t.Run("clamps out-of-range score", func(t *testing.T) {
		supplier, err := f.svc.CreateSupplier(ctx, domain.Supplier{Name: "Clamped Corp", Country: "US", ComplianceScore: 150})
		require.NoError(t, err)
		assert.Equal(t, 100, supplier.ComplianceScore)
	})

	t.Run("requires name", func(t *testing.T) {
		_, err := f.svc.CreateSupplier(ctx, domain.Supplier{Country: "US"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("requires country", func(t *testing.T) {
		_, err := f.svc.CreateSupplier(ctx, domain.Supplier{Name: "No Country Ltd"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		_, err := f.svc.CreateSupplier(ctx, domain.Supplier{Name: "TechCorp Solutions", Country: "US"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestUpdateSupplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	supplier := f.mustCreateSupplier(t, "Global Manufacturing Ltd")

	t.Run("partial update", func(t *testing.T) {
		country := "France"
		score := 70
		audit := "2024-04-01"
		updated, err := f.svc.UpdateSupplier(ctx, supplier.ID, SupplierUpdate{
			Country:         &country,
			ComplianceScore: &score,
			LastAudit:       &audit,
		})
		require.NoError(t, err)
		assert.Equal(t, "Global Manufacturing Ltd", updated.Name)
		assert.Equal(t, "France", updated.Country)
		assert.Equal(t, 70, updated.ComplianceScore)
		require.NotNil(t, updated.LastAudit)
		assert.Equal(t, "2024-04-01", updated.LastAudit.Format(time.DateOnly))
		require.NotNil(t, updated.UpdatedAt)
		assert.Equal(t, frozenTime, *updated.UpdatedAt)
	})

	t.Run("clamps score", func(t *testing.T) {
		score := -5
		updated, err := f.svc.UpdateSupplier(ctx, supplier.ID, SupplierUpdate{ComplianceScore: &score})
		require.NoError(t, err)
		assert.Equal(t, 0, updated.ComplianceScore)
	})

	t.Run("rejects malformed audit date", func(t *testing.T) {
		audit := "04/01/2024"
		_, err := f.svc.UpdateSupplier(ctx, supplier.ID, SupplierUpdate{LastAudit: &audit})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing supplier", func(t *testing.T) {
		_, err := f.svc.UpdateSupplier(ctx, "no-such-id", SupplierUpdate{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDeleteSupplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	supplier := f.mustCreateSupplier(t, "European Electronics")

	name, err := f.svc.DeleteSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, "European Electronics", name)

	_, err = f.svc.GetSupplier(ctx, supplier.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.DeleteSupplier(ctx, supplier.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetSupplierIncludesRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	supplier := f.mustCreateSupplier(t, "TechCorp Solutions")

	_, err := f.svc.CreateRecord(ctx, domain.ComplianceRecord{
		SupplierID:   supplier.ID,
		Metric:       "defect_rate",
		DateRecorded: frozenTime,
		Result:       0.5,
		Verdict:      domain.VerdictCompliant,
	})
	require.NoError(t, err)

	detail, err := f.svc.GetSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, supplier.ID, detail.ID)
	require.Len(t, detail.ComplianceRecords, 1)
	assert.Equal(t, "defect_rate", detail.ComplianceRecords[0].Metric)
}

func TestCreateRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	supplier := f.mustCreateSupplier(t, "TechCorp Solutions")

	t.Run("stores caller status verbatim", func(t *testing.T) {
		rec, err := f.svc.CreateRecord(ctx, domain.ComplianceRecord{
			SupplierID:   supplier.ID,
			Metric:       "on_time_delivery",
			DateRecorded: frozenTime,
			Result:       92,
			Verdict:      domain.VerdictNonCompliant,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, domain.VerdictNonCompliant, rec.Verdict)
		assert.Equal(t, frozenTime, rec.CreatedAt)

		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, domain.EventRecordCreated, f.publisher.events[0].Type)
		assert.Equal(t, rec.ID, f.publisher.events[0].RecordID)
	})

	t.Run("rejects excused_weather at creation", func(t *testing.T) {
		_, err := f.svc.CreateRecord(ctx, domain.ComplianceRecord{
			SupplierID:   supplier.ID,
			Metric:       "delivery_time",
			DateRecorded: frozenTime,
			Result:       6,
			Verdict:      domain.VerdictExcusedWeather,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := f.svc.CreateRecord(ctx, domain.ComplianceRecord{
			SupplierID:   supplier.ID,
			Metric:       "delivery_time",
			DateRecorded: frozenTime,
			Result:       6,
			Verdict:      "pending",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing supplier", func(t *testing.T) {
		_, err := f.svc.CreateRecord(ctx, domain.ComplianceRecord{
			SupplierID: "no-such-id",
			Metric:     "delivery_time",
			Result:     6,
			Verdict:    domain.VerdictCompliant,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCheckCompliance(t *testing.T) {
	t.Run("classifies by metric policy", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")

		result, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 6, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
			{Metric: "quality_score", DateRecorded: "2024-05-01", Result: 95, ExpectedValue: fptr(90), Status: domain.VerdictNonCompliant},
			{Metric: "defect_rate", DateRecorded: "2024-05-01", Result: 2, ExpectedValue: fptr(1), Status: domain.VerdictNonCompliant},
		})
		require.NoError(t, err)
		require.Len(t, result.ComplianceRecords, 3)
		assert.Equal(t, domain.VerdictNonCompliant, result.ComplianceRecords[0].Verdict, "delivery_time over expected")
		assert.Equal(t, domain.VerdictCompliant, result.ComplianceRecords[1].Verdict, "quality_score above expected")
		assert.Equal(t, domain.VerdictNonCompliant, result.ComplianceRecords[2].Verdict, "unknown metric keeps caller status")
	})

	t.Run("shares one opinion across the batch and applies the score", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")
		f.analyzer.opinion = domain.AdvisoryOpinion{
			RiskAssessment:            "low",
			ComplianceScoreSuggestion: fptr(92),
			Summary:                   "steady performance",
		}

		result, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 4, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
			{Metric: "delivery_time", DateRecorded: "2024-05-02", Result: 7, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
		})
		require.NoError(t, err)
		assert.Equal(t, 92, result.UpdatedScore)
		for _, rec := range result.ComplianceRecords {
			require.NotNil(t, rec.AIAnalysis)
			assert.Equal(t, "low", rec.AIAnalysis.RiskAssessment)
		}
		assert.Equal(t, "TechCorp Solutions", f.analyzer.lastSupplierName)

		stored, err := f.svc.GetSupplier(context.Background(), supplier.ID)
		require.NoError(t, err)
		assert.Equal(t, 92, stored.ComplianceScore)
	})

	t.Run("clamps score suggestions", func(t *testing.T) {
		for _, tc := range []struct {
			suggestion float64
			want       int
		}{
			{150, 100},
			{-20, 0},
		} {
			f := newFixture(t)
			supplier := f.mustCreateSupplier(t, "Clamp Corp")
			f.analyzer.opinion = domain.AdvisoryOpinion{ComplianceScoreSuggestion: fptr(tc.suggestion)}

			result, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
				{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 4, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.UpdatedScore, "suggestion %g", tc.suggestion)
		}
	})

	t.Run("keeps current score without a suggestion", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")
		f.analyzer.opinion = domain.AdvisoryOpinion{RiskAssessment: "low"}

		result, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 4, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
		})
		require.NoError(t, err)
		assert.Equal(t, 85, result.UpdatedScore)
	})

	t.Run("analyzer failure degrades to unknown risk", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")
		f.analyzer.opinionErr = errors.New("connection refused")

		result, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 6, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
		})
		require.NoError(t, err, "records must still be created")
		assert.Equal(t, "unknown", result.AIAnalysis.RiskAssessment)
		assert.Equal(t, 70, result.UpdatedScore)
		require.Len(t, result.ComplianceRecords, 1)
		require.NotNil(t, result.ComplianceRecords[0].AIAnalysis)
	})

	t.Run("unparsable analyzer reply degrades to medium risk", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")
		f.analyzer.opinionErr = domain.ErrUnparsable

		result, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 6, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
		})
		require.NoError(t, err)
		assert.Equal(t, "medium", result.AIAnalysis.RiskAssessment)
		assert.Equal(t, 70, result.UpdatedScore)
	})

	t.Run("nil analyzer behaves as unavailable", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := NewService(f.store, nil, nil, nil, nil, logger, observability.NewMetricsForTesting())

		result, err := svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 6, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
		})
		require.NoError(t, err)
		assert.Equal(t, "unknown", result.AIAnalysis.RiskAssessment)
	})

	t.Run("includes historical context in the advisory view", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")

		_, err := f.svc.CreateRecord(context.Background(), domain.ComplianceRecord{
			SupplierID:   supplier.ID,
			Metric:       "quality_score",
			DateRecorded: frozenTime.AddDate(0, 0, -30),
			Result:       88,
			Verdict:      domain.VerdictCompliant,
		})
		require.NoError(t, err)

		_, err = f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 6, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
		})
		require.NoError(t, err)

		require.Len(t, f.analyzer.lastViews, 2, "staged batch plus one historical record")
		assert.Equal(t, "delivery_time", f.analyzer.lastViews[0].Metric)
		assert.Equal(t, "quality_score", f.analyzer.lastViews[1].Metric)
	})

	t.Run("publishes created and score events", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")

		_, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 6, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
			{Metric: "delivery_time", DateRecorded: "2024-05-02", Result: 4, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
		})
		require.NoError(t, err)
		require.Len(t, f.publisher.events, 3)
		assert.Equal(t, domain.EventRecordCreated, f.publisher.events[0].Type)
		assert.Equal(t, domain.EventRecordCreated, f.publisher.events[1].Type)
		assert.Equal(t, domain.EventScoreUpdated, f.publisher.events[2].Type)
		require.NotNil(t, f.publisher.events[2].Score)
	})

	t.Run("publish failure does not fail ingestion", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")
		f.publisher.err = errors.New("broker down")

		_, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 4, ExpectedValue: fptr(5), Status: domain.VerdictCompliant},
		})
		assert.NoError(t, err)
	})

	t.Run("rejects empty batches", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")
		_, err := f.svc.CheckCompliance(context.Background(), supplier.ID, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")
		_, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "05/01/2024", Result: 6, Status: domain.VerdictCompliant},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects excused_weather observations", func(t *testing.T) {
		f := newFixture(t)
		supplier := f.mustCreateSupplier(t, "TechCorp Solutions")
		_, err := f.svc.CheckCompliance(context.Background(), supplier.ID, []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 6, Status: domain.VerdictExcusedWeather},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing supplier", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CheckCompliance(context.Background(), "no-such-id", []Observation{
			{Metric: "delivery_time", DateRecorded: "2024-05-01", Result: 6, Status: domain.VerdictCompliant},
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
