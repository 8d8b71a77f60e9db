// Package domain models supplier compliance tracking and weather-based
// excusal of delivery failures.
//
// # Verdicts
//
// Every compliance record carries exactly one of three verdicts:
//
//	compliant        the observed result met the contracted expectation
//	non_compliant    it did not
//	excused_weather  a non_compliant record retroactively excused because
//	                 adverse weather was confirmed at the delivery location
//
// excused_weather is only ever reached by reclassifying a non_compliant
// record during weather adjudication; it is never assigned at creation time.
//
// # Comparison policies
//
// Metric names map to a fixed comparison policy:
//
//	delivery_time, lead_time         lower is better  (result <= expected)
//	quality_score, quality_rating    higher is better (result >= expected)
//	anything else                    explicit: the caller-supplied status wins
//
// The metric namespace is open-ended, so an unrecognized name keeps the
// caller-supplied status even when an expected value is present. Lookups are
// case-insensitive.
//
// # Adverse weather detection
//
// A historical weather observation is scanned for adverse conditions in four
// independent, additive passes:
//
//  1. Keyword matches against the lower-cased description and main category
//     (thunderstorm, heavy_rain, snow, fog, extreme_weather tables).
//  2. Rainfall above 10 mm in the reported window (1h preferred, 3h fallback).
//  3. Any snowfall above 0 mm.
//  4. Wind speed above 15 m/s.
//
// Severity is "none" without findings, "high" when the description contains
// a high-severity keyword, "medium" with more than one finding, else "low".
// A single keyword hit can therefore outrank two threshold hits; that
// asymmetry is intentional and pinned by tests.
//
// When the weather collaborator is unavailable, adjudication proceeds on a
// fixed synthetic clear-sky observation (25°C, wind 3.5 m/s, no
// precipitation) flagged Synthetic so consumers can discount the result.
//
// # Advisory opinions
//
// AI-generated compliance analysis is untrusted external data. It is modeled
// as an explicit opinion type with disjoint fallback constructors: one for an
// unreachable collaborator (risk "unknown") and one for an unparsable reply
// (risk "medium"). Both suggest a score of 70 and are distinguishable by
// their summary text. An opinion only ever suggests; the supplier score it
// feeds is clamped to [0,100] and nothing else in the system trusts it.
package domain
