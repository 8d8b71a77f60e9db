package domain

import "fmt"

// AdvisoryOpinion is the advisory AI's structured take on one supplier's
// compliance history. It is untrusted input: every field is optional from
// the collaborator's side and nothing here is authoritative.
type AdvisoryOpinion struct {
	CompliancePatterns        []string `json:"compliance_patterns"`
	NonComplianceCategories   []string `json:"non_compliance_categories"`
	RiskAssessment            string   `json:"risk_assessment"`
	KeyIssues                 []string `json:"key_issues"`
	ComplianceScoreSuggestion *float64 `json:"compliance_score_suggestion"`
	Summary                   string   `json:"summary"`
}

// fallbackScoreSuggestion is what both degraded opinions suggest.
const fallbackScoreSuggestion = 70.0

// UnavailableOpinion is the fallback when the advisory collaborator cannot
// be reached at all. Risk is "unknown" so callers can detect the degraded
// analysis.
func UnavailableOpinion(err error) AdvisoryOpinion {
	score := fallbackScoreSuggestion
	return AdvisoryOpinion{
		CompliancePatterns:        []string{"API analysis unavailable"},
		NonComplianceCategories:   []string{"Service error"},
		RiskAssessment:            "unknown",
		KeyIssues:                 []string{fmt.Sprintf("AI analysis failed: %v", err)},
		ComplianceScoreSuggestion: &score,
		Summary:                   "AI analysis temporarily unavailable",
	}
}

// UnparsableOpinion is the fallback when the collaborator replied but its
// content could not be decoded. Distinguishable from UnavailableOpinion by
// risk "medium" and its summary text.
func UnparsableOpinion() AdvisoryOpinion {
	score := fallbackScoreSuggestion
	return AdvisoryOpinion{
		CompliancePatterns:        []string{"Unable to parse detailed patterns"},
		NonComplianceCategories:   []string{"Analysis error"},
		RiskAssessment:            "medium",
		KeyIssues:                 []string{"Data analysis incomplete"},
		ComplianceScoreSuggestion: &score,
		Summary:                   "Analysis could not be completed due to parsing error",
	}
}

// OverallInsights is the cross-supplier portion of an insights opinion.
type OverallInsights struct {
	ComplianceTrends string   `json:"compliance_trends"`
	CommonIssues     []string `json:"common_issues"`
	BestPerformers   []string `json:"best_performers"`
	AtRiskSuppliers  []string `json:"at_risk_suppliers"`
}

// Recommendation is one actionable suggestion from the insights opinion.
type Recommendation struct {
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
	Impact     string `json:"impact"`
}

// ContractAdjustment proposes a change to a specific contract term.
type ContractAdjustment struct {
	Term            string `json:"term"`
	CurrentIssue    string `json:"current_issue"`
	SuggestedChange string `json:"suggested_change"`
	Rationale       string `json:"rationale"`
}

// SupplierAction lists follow-ups targeted at a single supplier.
type SupplierAction struct {
	SupplierName string   `json:"supplier_name"`
	Actions      []string `json:"actions"`
	Timeline     string   `json:"timeline"`
}

// InsightsOpinion is the advisory AI's improvement guidance across
// suppliers. Untrusted, advisory only.
type InsightsOpinion struct {
	OverallInsights         OverallInsights      `json:"overall_insights"`
	Recommendations         []Recommendation     `json:"recommendations"`
	ContractAdjustments     []ContractAdjustment `json:"contract_adjustments"`
	SupplierSpecificActions []SupplierAction     `json:"supplier_specific_actions"`
}

// UnavailableInsights is the fallback when the insights collaborator cannot
// be reached.
func UnavailableInsights(err error) InsightsOpinion {
	return InsightsOpinion{
		OverallInsights: OverallInsights{
			ComplianceTrends: "Analysis temporarily unavailable",
			CommonIssues:     []string{fmt.Sprintf("Service error: %v", err)},
			BestPerformers:   []string{},
			AtRiskSuppliers:  []string{},
		},
		Recommendations: []Recommendation{{
			Category:   "system",
			Suggestion: "AI service connection issue - please try again later",
			Priority:   "high",
			Impact:     "Restore AI insights functionality",
		}},
		ContractAdjustments:     []ContractAdjustment{},
		SupplierSpecificActions: []SupplierAction{},
	}
}

// UnparsableInsights is the fallback when the insights reply could not be
// decoded.
func UnparsableInsights() InsightsOpinion {
	return InsightsOpinion{
		OverallInsights: OverallInsights{
			ComplianceTrends: "Unable to analyze trends",
			CommonIssues:     []string{"Data parsing error"},
			BestPerformers:   []string{},
			AtRiskSuppliers:  []string{},
		},
		Recommendations: []Recommendation{{
			Category:   "system",
			Suggestion: "Review data collection process",
			Priority:   "medium",
			Impact:     "Improved analysis accuracy",
		}},
		ContractAdjustments:     []ContractAdjustment{},
		SupplierSpecificActions: []SupplierAction{},
	}
}
