package compliance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

// allSuppliersRecordLimit caps per-supplier records in the all-suppliers
// insights case. A targeted request takes the supplier's full period history.
const allSuppliersRecordLimit = 20

// ComplianceTrends merges locally computed counters with the advisory
// opinion's cross-supplier observations.
type ComplianceTrends struct {
	OverallComplianceRate float64 `json:"overall_compliance_rate"`
	TotalRecordsAnalyzed  int     `json:"total_records_analyzed"`
	CompliantRecords      int     `json:"compliant_records"`
	NonCompliantRecords   int     `json:"non_compliant_records"`
	AnalysisPeriodDays    int     `json:"analysis_period_days"`
	SuppliersAnalyzed     int     `json:"suppliers_analyzed"`

	domain.OverallInsights
}

// InsightsResult is the combined advisory and locally computed insight
// response. ComplianceTrends is nil when no supplier data fell inside the
// analysis period.
type InsightsResult struct {
	Insights         domain.InsightsOpinion `json:"insights"`
	Recommendations  []string               `json:"recommendations"`
	ComplianceTrends *ComplianceTrends      `json:"compliance_trends"`
}

// Insights gathers supplier compliance data for the period, asks the advisory
// analyzer for improvement guidance, and flattens its structured suggestions
// into display strings alongside locally computed trend counters. An empty
// supplierID analyzes every supplier.
func (s *Service) Insights(ctx context.Context, supplierID string, periodDays int) (InsightsResult, error) {
	if periodDays <= 0 {
		return InsightsResult{}, fmt.Errorf("time period must be positive: %w", domain.ErrInvalidInput)
	}
	since := domain.Today().AddDate(0, 0, -periodDays)

	data, err := s.gatherInsightData(ctx, supplierID, since)
	if err != nil {
		return InsightsResult{}, err
	}

	opinion := s.adviseInsights(ctx, data)

	return InsightsResult{
		Insights:         opinion,
		Recommendations:  flattenRecommendations(opinion),
		ComplianceTrends: computeTrends(data, periodDays, opinion.OverallInsights),
	}, nil
}

func (s *Service) gatherInsightData(ctx context.Context, supplierID string, since time.Time) ([]domain.SupplierInsightData, error) {
	if supplierID != "" {
		supplier, err := s.store.GetSupplier(ctx, supplierID)
		if err != nil {
			return nil, err
		}
		records, err := s.store.RecordsSince(ctx, supplierID, since, 0)
		if err != nil {
			return nil, err
		}
		return []domain.SupplierInsightData{insightData(supplier, records)}, nil
	}

	suppliers, err := s.store.ListSuppliers(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	data := make([]domain.SupplierInsightData, 0, len(suppliers))
	for _, supplier := range suppliers {
		records, err := s.store.RecordsSince(ctx, supplier.ID, since, allSuppliersRecordLimit)
		if err != nil {
			return nil, err
		}
		data = append(data, insightData(supplier, records))
	}
	return data, nil
}

func insightData(supplier domain.Supplier, records []domain.ComplianceRecord) domain.SupplierInsightData {
	views := make([]domain.RecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, rec.View())
	}
	d := domain.SupplierInsightData{
		SupplierID:        supplier.ID,
		Name:              supplier.Name,
		Country:           supplier.Country,
		ContractTerms:     supplier.ContractTerms,
		ComplianceScore:   supplier.ComplianceScore,
		ComplianceRecords: views,
	}
	if supplier.LastAudit != nil {
		d.LastAudit = supplier.LastAudit.Format(time.DateOnly)
	}
	return d
}

// adviseInsights mirrors adviseCompliance's fallback discipline for the
// insights opinion.
func (s *Service) adviseInsights(ctx context.Context, data []domain.SupplierInsightData) domain.InsightsOpinion {
	if s.analyzer == nil {
		s.metrics.AnalyzerRequests.WithLabelValues("insights", "unavailable").Inc()
		return domain.UnavailableInsights(errors.New("analyzer not configured"))
	}
	opinion, err := s.analyzer.GenerateInsights(ctx, data)
	switch {
	case err == nil:
		s.metrics.AnalyzerRequests.WithLabelValues("insights", "success").Inc()
		return opinion
	case errors.Is(err, domain.ErrUnparsable):
		s.metrics.AnalyzerRequests.WithLabelValues("insights", "unparsable").Inc()
		s.logger.Warn("insights response unparsable", "error", err)
		return domain.UnparsableInsights()
	default:
		s.metrics.AnalyzerRequests.WithLabelValues("insights", "unavailable").Inc()
		s.logger.Warn("insights generation unavailable", "error", err)
		return domain.UnavailableInsights(err)
	}
}

// flattenRecommendations renders the opinion's structured suggestions as
// display strings, in recommendation, contract-adjustment, supplier-action
// order.
func flattenRecommendations(opinion domain.InsightsOpinion) []string {
	recommendations := make([]string, 0,
		len(opinion.Recommendations)+len(opinion.ContractAdjustments)+len(opinion.SupplierSpecificActions))

	for _, rec := range opinion.Recommendations {
		recommendations = append(recommendations, fmt.Sprintf("%s: %s", rec.Category, rec.Suggestion))
	}
	for _, adj := range opinion.ContractAdjustments {
		recommendations = append(recommendations, fmt.Sprintf("Contract Adjustment - %s: %s", adj.Term, adj.SuggestedChange))
	}
	for _, action := range opinion.SupplierSpecificActions {
		recommendations = append(recommendations, fmt.Sprintf("%s Actions: %s (Timeline: %s)",
			action.SupplierName, strings.Join(action.Actions, "; "), action.Timeline))
	}
	return recommendations
}

func computeTrends(data []domain.SupplierInsightData, periodDays int, overall domain.OverallInsights) *ComplianceTrends {
	if len(data) == 0 {
		return nil
	}

	var total, compliant int
	for _, d := range data {
		total += len(d.ComplianceRecords)
		for _, view := range d.ComplianceRecords {
			if view.Status == domain.VerdictCompliant {
				compliant++
			}
		}
	}

	rate := 0.0
	if total > 0 {
		rate = round2(float64(compliant) / float64(total) * 100)
	}

	return &ComplianceTrends{
		OverallComplianceRate: rate,
		TotalRecordsAnalyzed:  total,
		CompliantRecords:      compliant,
		NonCompliantRecords:   total - compliant,
		AnalysisPeriodDays:    periodDays,
		SuppliersAnalyzed:     len(data),
		OverallInsights:       overall,
	}
}

// Summary is the locally computed cross-supplier compliance roll-up.
type Summary struct {
	TotalSuppliers         int     `json:"total_suppliers"`
	AverageComplianceScore float64 `json:"average_compliance_score"`
	HighRiskSuppliers      int     `json:"high_risk_suppliers"`
	CompliantSuppliers     int     `json:"compliant_suppliers"`
	RecentComplianceRate   float64 `json:"recent_compliance_rate"`
	RecentRecordsCount     int     `json:"recent_records_count"`
	Summary                string  `json:"summary"`
}

// ComplianceSummary aggregates supplier scores and the last 30 days of
// records. No collaborators involved.
func (s *Service) ComplianceSummary(ctx context.Context) (Summary, error) {
	suppliers, err := s.store.ListSuppliers(ctx, 0, 0)
	if err != nil {
		return Summary{}, err
	}
	if len(suppliers) == 0 {
		return Summary{Summary: "No suppliers found"}, nil
	}

	var scoreSum, highRisk, compliant int
	for _, supplier := range suppliers {
		scoreSum += supplier.ComplianceScore
		if supplier.ComplianceScore < 60 {
			highRisk++
		}
		if supplier.ComplianceScore >= 80 {
			compliant++
		}
	}

	thirtyDaysAgo := domain.Today().AddDate(0, 0, -30)
	recentTotal, recentCompliant, err := s.store.CountRecordsSince(ctx, thirtyDaysAgo)
	if err != nil {
		return Summary{}, err
	}
	recentRate := 0.0
	if recentTotal > 0 {
		recentRate = round2(float64(recentCompliant) / float64(recentTotal) * 100)
	}

	return Summary{
		TotalSuppliers:         len(suppliers),
		AverageComplianceScore: round2(float64(scoreSum) / float64(len(suppliers))),
		HighRiskSuppliers:      highRisk,
		CompliantSuppliers:     compliant,
		RecentComplianceRate:   recentRate,
		RecentRecordsCount:     recentTotal,
		Summary:                fmt.Sprintf("%d out of %d suppliers are compliant (≥80 score)", compliant, len(suppliers)),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
