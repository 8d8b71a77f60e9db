package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		metric   string
		result   float64
		expected *float64
		fallback Verdict
		want     Verdict
	}{
		{"delivery time on target", "delivery_time", 5, fptr(5), VerdictNonCompliant, VerdictCompliant},
		{"delivery time under target", "delivery_time", 3, fptr(5), VerdictNonCompliant, VerdictCompliant},
		{"delivery time over target", "delivery_time", 6, fptr(5), VerdictCompliant, VerdictNonCompliant},
		{"lead time over target", "lead_time", 12, fptr(10), VerdictCompliant, VerdictNonCompliant},
		{"quality score on target", "quality_score", 95, fptr(95), VerdictNonCompliant, VerdictCompliant},
		{"quality score above target", "quality_score", 99, fptr(95), VerdictNonCompliant, VerdictCompliant},
		{"quality score below target", "quality_score", 90, fptr(95), VerdictCompliant, VerdictNonCompliant},
		{"quality rating below target", "quality_rating", 3, fptr(4), VerdictCompliant, VerdictNonCompliant},
		{"case insensitive metric", "Delivery_Time", 6, fptr(5), VerdictCompliant, VerdictNonCompliant},
		{"no expected value defers", "delivery_time", 100, nil, VerdictCompliant, VerdictCompliant},
		{"no expected value keeps non compliant", "quality_score", 100, nil, VerdictNonCompliant, VerdictNonCompliant},

		// Documented quirk: an unrecognized metric keeps the caller status
		// even though an expected value was supplied.
		{"unknown metric keeps caller status", "defect_rate", 9, fptr(2), VerdictCompliant, VerdictCompliant},
		{"unknown metric keeps non compliant", "on_time_delivery", 70, fptr(95), VerdictNonCompliant, VerdictNonCompliant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.metric, tt.result, tt.expected, tt.fallback))
		})
	}
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, PolicyLowerIsBetter, PolicyFor("delivery_time"))
	assert.Equal(t, PolicyLowerIsBetter, PolicyFor("LEAD_TIME"))
	assert.Equal(t, PolicyHigherIsBetter, PolicyFor("quality_score"))
	assert.Equal(t, PolicyHigherIsBetter, PolicyFor("quality_rating"))
	assert.Equal(t, PolicyExplicit, PolicyFor("defect_rate"))
	assert.Equal(t, PolicyExplicit, PolicyFor(""))
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 100, ClampScore(150))
	assert.Equal(t, 0, ClampScore(-20))
	assert.Equal(t, 70, ClampScore(70))
	assert.Equal(t, 0, ClampScore(0))
	assert.Equal(t, 100, ClampScore(100))
}

func TestVerdictValid(t *testing.T) {
	assert.True(t, VerdictCompliant.Valid())
	assert.True(t, VerdictNonCompliant.Valid())
	assert.True(t, VerdictExcusedWeather.Valid())
	assert.False(t, Verdict("excused-weather").Valid())
	assert.False(t, Verdict("").Valid())
}
