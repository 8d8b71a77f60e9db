// Package openweather implements domain.WeatherProvider against the
// OpenWeatherMap One Call timemachine API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

// Client fetches historical weather observations. Every failure mode wraps
// domain.ErrUnavailable so the orchestrator can substitute its synthetic
// observation.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openweathermap.org/data/3.0/onecall/timemachine",
		logger:  logger,
	}
}

// Historical returns the observation for the given date, queried at midnight
// UTC.
func (c *Client) Historical(ctx context.Context, lat, lon float64, date time.Time) (domain.HistoricalWeather, error) {
	if c.apiKey == "" {
		return domain.HistoricalWeather{}, fmt.Errorf("no API key configured: %w", domain.ErrUnavailable)
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"dt":    {strconv.FormatInt(midnight.Unix(), 10)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.HistoricalWeather{}, fmt.Errorf("create request: %w", domain.ErrUnavailable)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.HistoricalWeather{}, fmt.Errorf("weather request: %v: %w", err, domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.HistoricalWeather{}, fmt.Errorf("openweather API error: status %d: %s: %w",
			resp.StatusCode, body, domain.ErrUnavailable)
	}

	var observation domain.HistoricalWeather
	if err := json.NewDecoder(resp.Body).Decode(&observation); err != nil {
		return domain.HistoricalWeather{}, fmt.Errorf("decode response: %v: %w", err, domain.ErrUnavailable)
	}

	return observation, nil
}
