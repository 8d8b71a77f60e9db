package domain

import "strings"

// ComparisonPolicy determines how a metric's result/expected pair maps to a
// verdict.
type ComparisonPolicy int

const (
	// PolicyExplicit defers entirely to the caller-supplied status.
	PolicyExplicit ComparisonPolicy = iota
	// PolicyLowerIsBetter marks compliant when result <= expected.
	PolicyLowerIsBetter
	// PolicyHigherIsBetter marks compliant when result >= expected.
	PolicyHigherIsBetter
)

// metricPolicies is the fixed mapping from metric name to comparison policy.
// Metrics not listed here are explicit.
var metricPolicies = map[string]ComparisonPolicy{
	"delivery_time":  PolicyLowerIsBetter,
	"lead_time":      PolicyLowerIsBetter,
	"quality_score":  PolicyHigherIsBetter,
	"quality_rating": PolicyHigherIsBetter,
}

// PolicyFor resolves the comparison policy for a metric name,
// case-insensitively.
func PolicyFor(metric string) ComparisonPolicy {
	return metricPolicies[strings.ToLower(metric)]
}

// Classify maps a metric observation to a verdict. With no expected value
// the caller-supplied fallback wins verbatim. An unrecognized metric name
// also keeps the fallback even when an expected value is present: the metric
// namespace is open-ended and the numeric comparison is deliberately not
// attempted. Total function; never fails.
func Classify(metric string, result float64, expected *float64, fallback Verdict) Verdict {
	if expected == nil {
		return fallback
	}
	switch PolicyFor(metric) {
	case PolicyLowerIsBetter:
		if result <= *expected {
			return VerdictCompliant
		}
		return VerdictNonCompliant
	case PolicyHigherIsBetter:
		if result >= *expected {
			return VerdictCompliant
		}
		return VerdictNonCompliant
	default:
		return fallback
	}
}
