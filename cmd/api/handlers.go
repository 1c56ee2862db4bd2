package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/engine/route"
	"github.com/vibewalk/vibewalk/engine/score"
	"github.com/vibewalk/vibewalk/engine/semantic"
	"github.com/vibewalk/vibewalk/pkg/fn"
	"github.com/vibewalk/vibewalk/pkg/metrics"
)

// NearbyRadiusMeters is the default radius for the nearby-vibes endpoint.
const NearbyRadiusMeters = 200.0

// NearbyLimit caps how many vibe nodes the nearby endpoint returns.
const NearbyLimit = 20

type submitFunc func(context.Context, domain.Submission) error

type server struct {
	planner *route.Planner
	scorer  *score.Scorer
	index   semantic.Index
	submit  submitFunc
	backend string
	logger  *slog.Logger

	reg           *metrics.Registry
	routeRequests *metrics.Counter
	reports       *metrics.Counter
	scoreLatency  *metrics.Histogram
}

func newServer(planner *route.Planner, scorer *score.Scorer, index semantic.Index, submit submitFunc, backend string, logger *slog.Logger) *server {
	reg := metrics.New()
	return &server{
		planner: planner,
		scorer:  scorer,
		index:   index,
		submit:  submit,
		backend: backend,
		logger:  logger,

		reg:           reg,
		routeRequests: reg.Counter("route_requests_total", "Route scoring requests served."),
		reports:       reg.Counter("vibe_reports_total", "User vibe reports accepted."),
		scoreLatency:  reg.Histogram("route_score_duration_seconds", "End-to-end route planning and scoring latency.", nil),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/routes", s.handleRoutes)
	mux.HandleFunc("POST /api/report", s.handleReport)
	mux.HandleFunc("GET /api/nearby", s.handleNearby)
	mux.Handle("GET /metrics", s.reg.Handler())
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": s.backend})
}

// RouteOption is one scored walking route in the routes response.
type RouteOption struct {
	ID              string                 `json:"id"`
	Path            []domain.Coordinate    `json:"path"`
	SafetyScore     float64                `json:"safety_score"`
	Tags            []string               `json:"tags"`
	Description     string                 `json:"description"`
	Recommendations []score.Recommendation `json:"recommendations"`
}

func (s *server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	s.routeRequests.Inc()
	start, err := coordParams(r, "start_lat", "start_lng")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	end, err := coordParams(r, "end_lat", "end_lng")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	began := time.Now()
	candidates := s.planner.Plan(r.Context(), start, end)

	options := fn.ParMap(candidates, len(candidates), func(c route.Candidate) RouteOption {
		scored := s.scorer.ScoreRoute(r.Context(), c.Path)
		return RouteOption{
			Path:            scored.Path,
			SafetyScore:     round1(scored.SafetyScore),
			Tags:            scored.Tags,
			Description:     c.Description,
			Recommendations: scored.Recommendations,
		}
	})
	for i := range options {
		options[i].ID = fmt.Sprintf("route-%d", i)
	}
	s.scoreLatency.Since(began)

	writeJSON(w, http.StatusOK, options)
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if err := domain.ValidateSubmission(sub); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.submit(r.Context(), sub); err != nil {
		s.logger.Error("report submission failed", "err", err)
		writeError(w, http.StatusBadGateway, errors.New("report could not be stored"))
		return
	}
	s.reports.Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"message":  "Vibe memory updated. Search again to see impact.",
		"location": domain.Coordinate{Lat: sub.Lat, Lng: sub.Lng},
	})
}

// vibeView is one nearby report as the frontend expects it.
type vibeView struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Type      string            `json:"type"`
	Source    string            `json:"source"`
	Name      string            `json:"name,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Location  domain.Coordinate `json:"location"`
}

func (s *server) handleNearby(w http.ResponseWriter, r *http.Request) {
	center, err := coordParams(r, "lat", "lng")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	radius := NearbyRadiusMeters
	if v := r.URL.Query().Get("radius"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid radius %q", v))
			return
		}
	}

	reports, err := s.index.ScanNear(r.Context(), center, radius, NearbyLimit)
	if err != nil {
		s.logger.Error("nearby scan failed", "err", err)
		writeJSON(w, http.StatusOK, map[string]any{"vibes": []vibeView{}, "count": 0, "error": err.Error()})
		return
	}

	vibes := fn.Map(reports, func(r domain.Report) vibeView {
		v := vibeView{
			ID:       r.ID,
			Text:     r.Text,
			Type:     string(r.Category),
			Source:   r.Source,
			Name:     r.Name,
			Location: r.Location,
		}
		if v.Source == "" {
			v.Source = domain.SourceSeeded
		}
		if !r.Timestamp.IsZero() {
			v.Timestamp = r.Timestamp.Format(time.RFC3339)
		}
		return v
	})
	if vibes == nil {
		vibes = []vibeView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"vibes": vibes, "count": len(vibes)})
}

func coordParams(r *http.Request, latKey, lngKey string) (domain.Coordinate, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get(latKey), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("invalid %s %q", latKey, q.Get(latKey))
	}
	lng, err := strconv.ParseFloat(q.Get(lngKey), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("invalid %s %q", lngKey, q.Get(lngKey))
	}
	c := domain.Coordinate{Lat: lat, Lng: lng}
	if err := domain.ValidateCoordinate(c); err != nil {
		return domain.Coordinate{}, err
	}
	return c, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
