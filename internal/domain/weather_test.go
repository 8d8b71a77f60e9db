package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observation(main, desc string, mutate ...func(*WeatherObservation)) HistoricalWeather {
	obs := WeatherObservation{
		Temp:      20.0,
		Weather:   []WeatherCondition{{Main: main, Description: desc}},
		WindSpeed: 5.0,
	}
	for _, m := range mutate {
		m(&obs)
	}
	return HistoricalWeather{Data: []WeatherObservation{obs}}
}

func TestDetectAdverseWeather_ClearSky(t *testing.T) {
	result := DetectAdverseWeather(SyntheticObservation())

	assert.False(t, result.HasAdverseWeather)
	assert.Empty(t, result.Conditions)
	assert.Equal(t, SeverityNone, result.Severity)
	assert.True(t, result.Synthetic)
	assert.Equal(t, "clear sky", result.WeatherDescription)
	assert.Equal(t, 25.0, result.Temperature)
	assert.Equal(t, 3.5, result.WindSpeed)
	assert.Equal(t, "No adverse weather conditions detected that would impact delivery.", result.Justification)
}

func TestDetectAdverseWeather_NoData(t *testing.T) {
	for _, hw := range []HistoricalWeather{{}, {Data: []WeatherObservation{}}} {
		result := DetectAdverseWeather(hw)

		assert.False(t, result.HasAdverseWeather)
		assert.Empty(t, result.Conditions)
		assert.Equal(t, SeverityNone, result.Severity)
		assert.Equal(t, "No weather data available", result.Justification)
	}
}

func TestDetectAdverseWeather_KeywordMatch(t *testing.T) {
	tests := []struct {
		name string
		main string
		desc string
		want ConditionCategory
	}{
		{"thunderstorm in description", "Rain", "thunderstorm with light rain", ConditionThunderstorm},
		{"storm in main", "Storm", "windy", ConditionThunderstorm},
		{"fog", "Fog", "fog", ConditionFog},
		{"mist", "Mist", "mist", ConditionFog},
		{"tornado", "Tornado", "tornado", ConditionExtremeWeather},
		{"hurricane in description", "Extreme", "hurricane conditions", ConditionExtremeWeather},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectAdverseWeather(observation(tt.main, tt.desc))

			require.True(t, result.HasAdverseWeather)
			require.NotEmpty(t, result.Conditions)
			assert.Equal(t, tt.want, result.Conditions[0].Type)
			assert.Nil(t, result.Conditions[0].Measurement)
		})
	}
}

func TestDetectAdverseWeather_DuplicateKeywordHits(t *testing.T) {
	// "thunderstorm" contains "storm" too, so the category fires twice.
	result := DetectAdverseWeather(observation("Thunderstorm", "thunderstorm"))

	require.Len(t, result.Conditions, 2)
	assert.Equal(t, ConditionThunderstorm, result.Conditions[0].Type)
	assert.Equal(t, ConditionThunderstorm, result.Conditions[1].Type)
	assert.Equal(t, SeverityHigh, result.Severity)
}

func TestDetectAdverseWeather_RainThreshold(t *testing.T) {
	t.Run("above threshold 1h", func(t *testing.T) {
		hw := observation("Rain", "light rain", func(o *WeatherObservation) {
			o.Rain = &Precipitation{OneHour: 12}
		})
		result := DetectAdverseWeather(hw)

		require.Len(t, result.Conditions, 1)
		f := result.Conditions[0]
		assert.Equal(t, ConditionHeavyRain, f.Type)
		assert.Equal(t, "Heavy rainfall: 12mm", f.Description)
		require.NotNil(t, f.Measurement)
		assert.Equal(t, 12.0, *f.Measurement)
		assert.Equal(t, SeverityLow, result.Severity)
	})

	t.Run("3h window fallback", func(t *testing.T) {
		hw := observation("Rain", "light rain", func(o *WeatherObservation) {
			o.Rain = &Precipitation{ThreeHour: 18}
		})
		result := DetectAdverseWeather(hw)

		require.Len(t, result.Conditions, 1)
		assert.Equal(t, 18.0, *result.Conditions[0].Measurement)
	})

	t.Run("1h preferred over 3h", func(t *testing.T) {
		hw := observation("Rain", "light rain", func(o *WeatherObservation) {
			o.Rain = &Precipitation{OneHour: 11, ThreeHour: 30}
		})
		result := DetectAdverseWeather(hw)

		require.Len(t, result.Conditions, 1)
		assert.Equal(t, 11.0, *result.Conditions[0].Measurement)
	})

	t.Run("at threshold no finding", func(t *testing.T) {
		hw := observation("Rain", "light rain", func(o *WeatherObservation) {
			o.Rain = &Precipitation{OneHour: 10}
		})
		result := DetectAdverseWeather(hw)

		assert.False(t, result.HasAdverseWeather)
	})
}

func TestDetectAdverseWeather_SnowAndWind(t *testing.T) {
	t.Run("any snowfall", func(t *testing.T) {
		hw := observation("Clouds", "overcast clouds", func(o *WeatherObservation) {
			o.Snow = &Precipitation{OneHour: 0.5}
		})
		result := DetectAdverseWeather(hw)

		require.Len(t, result.Conditions, 1)
		assert.Equal(t, ConditionSnow, result.Conditions[0].Type)
		assert.Equal(t, "Snowfall: 0.5mm", result.Conditions[0].Description)
	})

	t.Run("strong wind", func(t *testing.T) {
		hw := observation("Clear", "clear sky", func(o *WeatherObservation) {
			o.WindSpeed = 16.5
		})
		result := DetectAdverseWeather(hw)

		require.Len(t, result.Conditions, 1)
		assert.Equal(t, ConditionStrongWind, result.Conditions[0].Type)
		assert.Equal(t, "Strong winds: 16.5 m/s", result.Conditions[0].Description)
		assert.Equal(t, SeverityLow, result.Severity)
	})

	t.Run("wind at threshold no finding", func(t *testing.T) {
		hw := observation("Clear", "clear sky", func(o *WeatherObservation) {
			o.WindSpeed = 15
		})
		result := DetectAdverseWeather(hw)

		assert.False(t, result.HasAdverseWeather)
	})
}

func TestDetectAdverseWeather_Severity(t *testing.T) {
	t.Run("heavy intensity rain plus threshold is high", func(t *testing.T) {
		hw := observation("Rain", "heavy intensity rain", func(o *WeatherObservation) {
			o.Rain = &Precipitation{OneHour: 12}
		})
		result := DetectAdverseWeather(hw)

		assert.True(t, result.HasAdverseWeather)
		assert.GreaterOrEqual(t, len(result.Conditions), 2)
		assert.Equal(t, SeverityHigh, result.Severity)
	})

	// Documented asymmetry: a single high-keyword hit is "high" while two
	// threshold-only hits are only "medium".
	t.Run("two threshold hits without keywords is medium", func(t *testing.T) {
		hw := observation("Rain", "light rain", func(o *WeatherObservation) {
			o.Rain = &Precipitation{OneHour: 20}
			o.WindSpeed = 18
		})
		result := DetectAdverseWeather(hw)

		require.Len(t, result.Conditions, 2)
		assert.Equal(t, SeverityMedium, result.Severity)
	})

	t.Run("single keyword hit with severe keyword is high", func(t *testing.T) {
		result := DetectAdverseWeather(observation("Fog", "severe mist"))

		require.Len(t, result.Conditions, 1)
		assert.Equal(t, SeverityHigh, result.Severity)
	})
}

func TestJustify(t *testing.T) {
	t.Run("no findings", func(t *testing.T) {
		assert.Equal(t,
			"No adverse weather conditions detected that would impact delivery.",
			Justify(nil, "anything"))
		assert.Equal(t,
			"No adverse weather conditions detected that would impact delivery.",
			Justify([]Finding{}, "clear sky"))
	})

	t.Run("single measured finding uses its description", func(t *testing.T) {
		m := 15.0
		got := Justify([]Finding{
			{Type: ConditionHeavyRain, Description: "Heavy rainfall: 15mm", Measurement: &m},
		}, "heavy intensity rain")

		assert.Equal(t,
			"Delivery delay justified due to adverse weather: Heavy rainfall: 15mm. Weather conditions: heavy intensity rain.",
			got)
	})

	t.Run("single keyword finding uses title-cased category", func(t *testing.T) {
		got := Justify([]Finding{
			{Type: ConditionStrongWind, Description: "windy"},
		}, "windy")

		assert.Contains(t, got, "Strong Wind")
		assert.True(t, strings.HasPrefix(got, "Delivery delay justified due to adverse weather:"))
	})

	t.Run("multiple findings join with and", func(t *testing.T) {
		m := 12.0
		got := Justify([]Finding{
			{Type: ConditionThunderstorm, Description: "thunderstorm"},
			{Type: ConditionHeavyRain, Description: "Heavy rainfall: 12mm", Measurement: &m},
			{Type: ConditionFog, Description: "fog"},
		}, "thunderstorm")

		assert.True(t, strings.HasPrefix(got, "Delivery delay justified due to multiple adverse weather conditions:"))
		assert.Contains(t, got, "Thunderstorm, Heavy rainfall: 12mm and Fog")
		assert.True(t, strings.HasSuffix(got, "Weather conditions: thunderstorm."))
	})
}

func TestPrecipitationAmount(t *testing.T) {
	var nilPrecip *Precipitation
	assert.Equal(t, 0.0, nilPrecip.Amount())
	assert.Equal(t, 5.0, (&Precipitation{OneHour: 5}).Amount())
	assert.Equal(t, 7.0, (&Precipitation{ThreeHour: 7}).Amount())
	assert.Equal(t, 5.0, (&Precipitation{OneHour: 5, ThreeHour: 7}).Amount())
}
