package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackOpinionsAreDistinguishable(t *testing.T) {
	unavailable := UnavailableOpinion(errors.New("connection refused"))
	unparsable := UnparsableOpinion()

	assert.Equal(t, "unknown", unavailable.RiskAssessment)
	assert.Equal(t, "medium", unparsable.RiskAssessment)
	assert.NotEqual(t, unavailable.Summary, unparsable.Summary)

	require.NotNil(t, unavailable.ComplianceScoreSuggestion)
	require.NotNil(t, unparsable.ComplianceScoreSuggestion)
	assert.Equal(t, 70.0, *unavailable.ComplianceScoreSuggestion)
	assert.Equal(t, 70.0, *unparsable.ComplianceScoreSuggestion)

	assert.Contains(t, unavailable.KeyIssues[0], "connection refused")
}

func TestFallbackInsightsAreDistinguishable(t *testing.T) {
	unavailable := UnavailableInsights(errors.New("timeout"))
	unparsable := UnparsableInsights()

	assert.NotEqual(t, unavailable.OverallInsights.ComplianceTrends, unparsable.OverallInsights.ComplianceTrends)
	assert.Contains(t, unavailable.OverallInsights.CommonIssues[0], "timeout")
	require.NotEmpty(t, unavailable.Recommendations)
	require.NotEmpty(t, unparsable.Recommendations)
	assert.Equal(t, "high", unavailable.Recommendations[0].Priority)
	assert.Equal(t, "medium", unparsable.Recommendations[0].Priority)
}

func TestRecordView(t *testing.T) {
	rec := ComplianceRecord{
		Metric:        "delivery_time",
		DateRecorded:  mustParseDate(t, "2024-05-01"),
		Result:        6,
		ExpectedValue: fptr(5),
		Verdict:       VerdictNonCompliant,
	}

	view := rec.View()

	assert.Equal(t, "delivery_time", view.Metric)
	assert.Equal(t, "2024-05-01", view.DateRecorded)
	assert.Equal(t, 6.0, view.Result)
	assert.Equal(t, 5.0, *view.ExpectedValue)
	assert.Equal(t, VerdictNonCompliant, view.Status)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	for _, bad := range []string{"", "05/01/2024", "2024-5-1", "2024-13-01", "not a date"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %q", bad)
	}
}

func mustParseDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}
