package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// ConditionCategory classifies one kind of adverse weather.
type ConditionCategory string

const (
	ConditionThunderstorm   ConditionCategory = "thunderstorm"
	ConditionHeavyRain      ConditionCategory = "heavy_rain"
	ConditionSnow           ConditionCategory = "snow"
	ConditionFog            ConditionCategory = "fog"
	ConditionExtremeWeather ConditionCategory = "extreme_weather"
	ConditionStrongWind     ConditionCategory = "strong_wind"
)

// Severity is the qualitative intensity of an adverse-weather result.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Finding is one detected adverse-weather condition instance. Keyword hits
// carry the observation's description and main category; threshold hits
// carry a measurement.
type Finding struct {
	Type        ConditionCategory `json:"type"`
	Description string            `json:"description"`
	Main        string            `json:"main,omitempty"`
	Measurement *float64          `json:"measurement,omitempty"`
}

// Precipitation is a rain or snow amount in mm over a reporting window.
type Precipitation struct {
	OneHour   float64 `json:"1h,omitempty"`
	ThreeHour float64 `json:"3h,omitempty"`
}

// Amount returns the 1h window when reported, otherwise the 3h window.
func (p *Precipitation) Amount() float64 {
	if p == nil {
		return 0
	}
	if p.OneHour != 0 {
		return p.OneHour
	}
	return p.ThreeHour
}

// WeatherCondition is the categorical part of an observation.
type WeatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

// WeatherObservation is a single historical weather sample.
type WeatherObservation struct {
	Timestamp int64              `json:"dt"`
	Temp      float64            `json:"temp"`
	Weather   []WeatherCondition `json:"weather"`
	WindSpeed float64            `json:"wind_speed"`
	Rain      *Precipitation     `json:"rain,omitempty"`
	Snow      *Precipitation     `json:"snow,omitempty"`
}

// HistoricalWeather is the weather collaborator's result for one location
// and date. Only the first observation is consumed. Synthetic marks the
// fixed substitute reading used when the collaborator is unavailable.
type HistoricalWeather struct {
	Data      []WeatherObservation `json:"data"`
	Synthetic bool                 `json:"synthetic,omitempty"`
}

// WeatherAdjudication is the structured outcome of adverse-weather
// detection, embedded into every record it excuses.
type WeatherAdjudication struct {
	HasAdverseWeather  bool      `json:"has_adverse_weather"`
	Conditions         []Finding `json:"conditions"`
	Severity           Severity  `json:"severity"`
	Justification      string    `json:"justification"`
	WeatherDescription string    `json:"weather_description,omitempty"`
	Temperature        float64   `json:"temperature,omitempty"`
	WindSpeed          float64   `json:"wind_speed,omitempty"`
	Synthetic          bool      `json:"synthetic"`
}

// adverseKeywords maps condition categories to the substrings that trigger
// them. Order matters: findings appear in table order, and duplicate hits
// within a category are intentional (severity weighs count, not distinct
// categories).
var adverseKeywords = []struct {
	category ConditionCategory
	keywords []string
}{
	{ConditionThunderstorm, []string{"thunderstorm", "storm"}},
	{ConditionHeavyRain, []string{"heavy rain", "extreme rain", "heavy intensity rain"}},
	{ConditionSnow, []string{"snow", "blizzard", "heavy snow"}},
	{ConditionFog, []string{"fog", "mist"}},
	{ConditionExtremeWeather, []string{"tornado", "hurricane", "typhoon"}},
}

// severityKeywords escalate severity to high when present in the description.
var severityKeywords = []string{"extreme", "heavy", "severe", "thunderstorm", "snow", "blizzard"}

const (
	heavyRainThresholdMM  = 10.0
	strongWindThresholdMS = 15.0
)

// noWeatherDataJustification is returned when no observation is available.
const noWeatherDataJustification = "No weather data available"

// SyntheticObservation is the fixed clear-sky substitute used when the
// weather collaborator cannot be reached.
func SyntheticObservation() HistoricalWeather {
	return HistoricalWeather{
		Data: []WeatherObservation{{
			Timestamp: 1691462400,
			Temp:      25.0,
			Weather:   []WeatherCondition{{Main: "Clear", Description: "clear sky"}},
			WindSpeed: 3.5,
		}},
		Synthetic: true,
	}
}

// DetectAdverseWeather scans the first observation of a historical-weather
// result for adverse conditions. All checks are independent and additive; a
// single observation can yield multiple findings. Missing or empty input
// yields the zero-finding result, never an error.
func DetectAdverseWeather(hw HistoricalWeather) WeatherAdjudication {
	if len(hw.Data) == 0 {
		return WeatherAdjudication{
			Conditions:    []Finding{},
			Severity:      SeverityNone,
			Justification: noWeatherDataJustification,
			Synthetic:     hw.Synthetic,
		}
	}

	obs := hw.Data[0]

	var desc, main string
	if len(obs.Weather) > 0 {
		desc = strings.ToLower(obs.Weather[0].Description)
		main = strings.ToLower(obs.Weather[0].Main)
	}

	findings := []Finding{}
	for _, entry := range adverseKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(desc, kw) || strings.Contains(main, kw) {
				findings = append(findings, Finding{
					Type:        entry.category,
					Description: desc,
					Main:        main,
				})
			}
		}
	}

	if rain := obs.Rain.Amount(); rain > heavyRainThresholdMM {
		amount := rain
		findings = append(findings, Finding{
			Type:        ConditionHeavyRain,
			Description: fmt.Sprintf("Heavy rainfall: %gmm", amount),
			Measurement: &amount,
		})
	}

	if snow := obs.Snow.Amount(); snow > 0 {
		amount := snow
		findings = append(findings, Finding{
			Type:        ConditionSnow,
			Description: fmt.Sprintf("Snowfall: %gmm", amount),
			Measurement: &amount,
		})
	}

	if obs.WindSpeed > strongWindThresholdMS {
		speed := obs.WindSpeed
		findings = append(findings, Finding{
			Type:        ConditionStrongWind,
			Description: fmt.Sprintf("Strong winds: %g m/s", speed),
			Measurement: &speed,
		})
	}

	severity := SeverityNone
	if len(findings) > 0 {
		switch {
		case containsAny(desc, severityKeywords):
			severity = SeverityHigh
		case len(findings) > 1:
			severity = SeverityMedium
		default:
			severity = SeverityLow
		}
	}

	return WeatherAdjudication{
		HasAdverseWeather:  len(findings) > 0,
		Conditions:         findings,
		Severity:           severity,
		Justification:      Justify(findings, desc),
		WeatherDescription: desc,
		Temperature:        obs.Temp,
		WindSpeed:          obs.WindSpeed,
		Synthetic:          hw.Synthetic,
	}
}

// Justify renders findings into a deterministic human-readable explanation.
// Findings with a measurement contribute their literal description; the rest
// contribute their title-cased category name.
func Justify(findings []Finding, weatherDesc string) string {
	if len(findings) == 0 {
		return "No adverse weather conditions detected that would impact delivery."
	}

	descs := make([]string, len(findings))
	for i, f := range findings {
		if f.Measurement != nil {
			descs[i] = f.Description
		} else {
			descs[i] = titleCase(strings.ReplaceAll(string(f.Type), "_", " "))
		}
	}

	if len(descs) == 1 {
		return fmt.Sprintf("Delivery delay justified due to adverse weather: %s. Weather conditions: %s.",
			descs[0], weatherDesc)
	}

	joined := strings.Join(descs[:len(descs)-1], ", ") + " and " + descs[len(descs)-1]
	return fmt.Sprintf("Delivery delay justified due to multiple adverse weather conditions: %s. Weather conditions: %s.",
		joined, weatherDesc)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// titleCase upper-cases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
