// Package osrm is a thin client for the public OSRM routing API, speaking
// the foot profile and GeoJSON geometries.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vibewalk/vibewalk/engine/domain"
)

// DefaultBaseURL is the public demo server.
const DefaultBaseURL = "https://router.project-osrm.org"

// Client fetches walking polylines from an OSRM server. The public demo
// server rate-limits aggressively, so requests go through a local limiter.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRateLimit sets the outbound request rate.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New creates an OSRM client. An empty baseURL selects the public server.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 3),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OSRM response envelope. Only the first route's geometry matters.
type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			// GeoJSON LineString: [lng, lat] pairs.
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route returns the walking polyline between start and end in lat/lng order.
func (c *Client) Route(ctx context.Context, start, end domain.Coordinate) ([]domain.Coordinate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/route/v1/foot/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, start.Lng, start.Lat, end.Lng, end.Lat)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm route: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("osrm route: status %d", resp.StatusCode)
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("osrm route decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("osrm route: no route (code %q)", body.Code)
	}

	coords := body.Routes[0].Geometry.Coordinates
	path := make([]domain.Coordinate, 0, len(coords))
	for _, pair := range coords {
		if len(pair) < 2 {
			continue
		}
		path = append(path, domain.Coordinate{Lat: pair[1], Lng: pair[0]})
	}
	return path, nil
}
