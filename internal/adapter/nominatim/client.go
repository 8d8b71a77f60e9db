// Package nominatim implements domain.Geocoder against the OpenStreetMap
// Nominatim search API.
package nominatim

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

// Client resolves country names to coordinates via Nominatim.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// userAgent identifies the service to Nominatim, which rejects anonymous
// clients.
const userAgent = "supplier-compliance-service/1.0"

// NewClient creates a Nominatim geocoding client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://nominatim.openstreetmap.org/search",
		logger:  logger,
	}
}

// Lookup resolves a country name to its representative coordinates. An empty
// result set is a domain.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, country string) (domain.Coordinates, error) {
	params := url.Values{
		"q":      {country},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Coordinates{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode response: %w", err)
	}
	if len(places) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocoding result for %q: %w", country, domain.ErrNotFound)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse longitude %q: %w", places[0].Lon, err)
	}

	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}

// Nominatim returns coordinates as strings.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
