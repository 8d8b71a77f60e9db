package domain

import "time"

// Verdict is the compliance outcome of a single record.
type Verdict string

const (
	VerdictCompliant      Verdict = "compliant"
	VerdictNonCompliant   Verdict = "non_compliant"
	VerdictExcusedWeather Verdict = "excused_weather"
)

// Valid reports whether v is one of the three known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictCompliant, VerdictNonCompliant, VerdictExcusedWeather:
		return true
	}
	return false
}

// ComplianceRecord is one observed metric for a supplier on a given date.
// Records are owned by their supplier: they are created during ingestion,
// mutated in place only by weather adjudication, and deleted only as a
// cascade of supplier deletion.
type ComplianceRecord struct {
	ID                   string               `json:"id"`
	SupplierID           string               `json:"supplier_id"`
	Metric               string               `json:"metric"`
	DateRecorded         time.Time            `json:"date_recorded"`
	Result               float64              `json:"result"`
	ExpectedValue        *float64             `json:"expected_value,omitempty"`
	Verdict              Verdict              `json:"status"`
	AIAnalysis           *AdvisoryOpinion     `json:"ai_analysis,omitempty"`
	WeatherData          *WeatherAdjudication `json:"weather_data,omitempty"`
	WeatherJustification string               `json:"weather_justification,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
}

// RecordView is the reduced representation of a record handed to the
// advisory AI collaborator.
type RecordView struct {
	Metric        string   `json:"metric"`
	DateRecorded  string   `json:"date_recorded"`
	Result        float64  `json:"result"`
	ExpectedValue *float64 `json:"expected_value"`
	Status        Verdict  `json:"status"`
}

// View reduces a record to the fields the advisory AI sees.
func (r ComplianceRecord) View() RecordView {
	return RecordView{
		Metric:        r.Metric,
		DateRecorded:  r.DateRecorded.Format(time.DateOnly),
		Result:        r.Result,
		ExpectedValue: r.ExpectedValue,
		Status:        r.Verdict,
	}
}

// SupplierInsightData bundles a supplier with its recent records for the
// insights collaborator.
type SupplierInsightData struct {
	SupplierID        string         `json:"supplier_id"`
	Name              string         `json:"name"`
	Country           string         `json:"country"`
	ContractTerms     map[string]any `json:"contract_terms,omitempty"`
	ComplianceScore   int            `json:"compliance_score"`
	LastAudit         string         `json:"last_audit,omitempty"`
	ComplianceRecords []RecordView   `json:"compliance_records"`
}
