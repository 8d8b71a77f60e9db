package domain

import "time"

// Supplier is a contracted vendor whose delivery and quality performance is
// tracked against its contract terms.
type Supplier struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Country         string         `json:"country"`
	ContractTerms   map[string]any `json:"contract_terms,omitempty"`
	ComplianceScore int            `json:"compliance_score"`
	LastAudit       *time.Time     `json:"last_audit,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
}

// DefaultComplianceScore is assigned to suppliers created without a score.
const DefaultComplianceScore = 100

// ClampScore forces a score suggestion into the valid [0,100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
