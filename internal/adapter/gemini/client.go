// Package gemini implements domain.Analyzer against the Google Gemini
// generateContent REST API.
//
// The model's replies are advisory only. Transport failures wrap
// domain.ErrUnavailable and undecodable replies wrap domain.ErrUnparsable so
// the orchestrator can pick the matching fallback opinion.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Gemini client for the given model.
func NewClient(apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		logger:  logger,
	}
}

// AnalyzeCompliance asks the model for a structured opinion on one supplier's
// compliance history.
func (c *Client) AnalyzeCompliance(ctx context.Context, supplierName string, records []domain.RecordView) (domain.AdvisoryOpinion, error) {
	recordsJSON, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return domain.AdvisoryOpinion{}, fmt.Errorf("encode records: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze the following supplier compliance data for %s:

Compliance Records:
%s

Please provide a comprehensive analysis in JSON format with the following structure:
{
    "compliance_patterns": [list of identified patterns],
    "non_compliance_categories": [list of categorized issues],
    "risk_assessment": "low/medium/high",
    "key_issues": [list of main compliance issues],
    "compliance_score_suggestion": numeric_score_0_to_100,
    "summary": "brief summary of overall compliance status"
}

Focus on:
1. Identifying patterns in non-compliance (e.g., frequent delivery delays, quality issues)
2. Categorizing compliance issues by type
3. Assessing overall risk level
4. Suggesting an appropriate compliance score

Return only valid JSON.`, supplierName, recordsJSON)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return domain.AdvisoryOpinion{}, err
	}

	var opinion domain.AdvisoryOpinion
	if err := json.Unmarshal([]byte(stripFences(text)), &opinion); err != nil {
		return domain.AdvisoryOpinion{}, fmt.Errorf("decode opinion: %v: %w", err, domain.ErrUnparsable)
	}
	return opinion, nil
}

// GenerateInsights asks the model for cross-supplier improvement guidance.
func (c *Client) GenerateInsights(ctx context.Context, suppliers []domain.SupplierInsightData) (domain.InsightsOpinion, error) {
	suppliersJSON, err := json.MarshalIndent(suppliers, "", "  ")
	if err != nil {
		return domain.InsightsOpinion{}, fmt.Errorf("encode suppliers: %w", err)
	}

	prompt := fmt.Sprintf(`Based on the following supplier compliance data, generate actionable insights and recommendations:

Suppliers Data:
%s

Please provide comprehensive insights in JSON format with the following structure:
{
    "overall_insights": {
        "compliance_trends": "description of trends",
        "common_issues": [list of common issues across suppliers],
        "best_performers": [list of best performing suppliers],
        "at_risk_suppliers": [list of suppliers at risk]
    },
    "recommendations": [
        {
            "category": "contract_terms",
            "suggestion": "specific recommendation",
            "priority": "high/medium/low",
            "impact": "description of expected impact"
        }
    ],
    "contract_adjustments": [
        {
            "term": "specific contract term",
            "current_issue": "description of issue",
            "suggested_change": "recommended change",
            "rationale": "reason for change"
        }
    ],
    "supplier_specific_actions": [
        {
            "supplier_name": "name",
            "actions": [list of specific actions],
            "timeline": "suggested timeline"
        }
    ]
}

Focus on:
1. Identifying trends across all suppliers
2. Recommending contract term adjustments
3. Suggesting specific actions for underperforming suppliers
4. Prioritizing recommendations by impact and urgency

Return only valid JSON.`, suppliersJSON)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return domain.InsightsOpinion{}, err
	}

	var insights domain.InsightsOpinion
	if err := json.Unmarshal([]byte(stripFences(text)), &insights); err != nil {
		return domain.InsightsOpinion{}, fmt.Errorf("decode insights: %v: %w", err, domain.ErrUnparsable)
	}
	return insights, nil
}

// generate sends one prompt and returns the first candidate's text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("no API key configured: %w", domain.ErrUnavailable)
	}

	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %v: %w", err, domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini API error: status %d: %s: %w", resp.StatusCode, body, domain.ErrUnavailable)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decode envelope: %v: %w", err, domain.ErrUnparsable)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidate list: %w", domain.ErrUnparsable)
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes a surrounding markdown code fence, which the model
// often adds despite the "only valid JSON" instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Gemini generateContent wire types.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}
