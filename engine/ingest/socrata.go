package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SocrataURL is the NYPD complaint dataset on NYC Open Data.
const SocrataURL = "https://data.cityofnewyork.us/resource/5uac-w243.json"

// DefaultFetchLimit is how many incident records a seed run pulls.
const DefaultFetchLimit = 300

// SocrataClient reads incident records from a Socrata open-data endpoint.
type SocrataClient struct {
	baseURL string
	client  *http.Client
}

// NewSocrataClient creates a client. An empty baseURL selects the NYC feed.
func NewSocrataClient(baseURL string) *SocrataClient {
	if baseURL == "" {
		baseURL = SocrataURL
	}
	return &SocrataClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchIncidents pulls up to limit geolocated incident records.
func (c *SocrataClient) FetchIncidents(ctx context.Context, limit int) ([]RawIncident, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	q := url.Values{}
	q.Set("$limit", strconv.Itoa(limit))
	q.Set("$where", "latitude IS NOT NULL")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("socrata fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("socrata fetch: status %d", resp.StatusCode)
	}

	var incidents []RawIncident
	if err := json.NewDecoder(resp.Body).Decode(&incidents); err != nil {
		return nil, fmt.Errorf("socrata decode: %w", err)
	}
	return incidents, nil
}
