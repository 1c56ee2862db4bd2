// Package route turns a start/end pair into candidate walking paths and
// reduces dense polylines to a bounded set of sample points for scoring.
package route

import (
	"context"
	"log/slog"

	"github.com/vibewalk/vibewalk/engine/domain"
)

// WaypointOffset is the latitude offset (~300 m) applied at the path
// midpoint to synthesize the north and south alternates.
const WaypointOffset = 0.003

// Router is the external path-geometry capability: a walkable polyline from
// start to end, or an empty slice when no route can be produced.
type Router interface {
	Route(ctx context.Context, start, end domain.Coordinate) ([]domain.Coordinate, error)
}

// Candidate is one walkable path option.
type Candidate struct {
	Path        []domain.Coordinate
	Description string
}

// Candidate descriptions, in planning order.
const (
	DescDirect = "Direct Walking Route"
	DescNorth  = "North Alternate"
	DescSouth  = "South Alternate"
)

// Planner produces up to three candidate paths per request.
type Planner struct {
	router Router
	logger *slog.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(router Router, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{router: router, logger: logger}
}

// Plan returns the direct route plus north/south waypoint alternates. Failed
// candidates are skipped; when every candidate fails the two-point straight
// line is returned so at least one route always exists.
func (p *Planner) Plan(ctx context.Context, start, end domain.Coordinate) []Candidate {
	var candidates []Candidate

	if direct := p.fetch(ctx, start, end); len(direct) > 0 {
		candidates = append(candidates, Candidate{Path: direct, Description: DescDirect})
	}

	mid := domain.Coordinate{
		Lat: (start.Lat + end.Lat) / 2,
		Lng: (start.Lng + end.Lng) / 2,
	}
	north := domain.Coordinate{Lat: mid.Lat + WaypointOffset, Lng: mid.Lng}
	south := domain.Coordinate{Lat: mid.Lat - WaypointOffset, Lng: mid.Lng}

	if path := p.viaWaypoint(ctx, start, north, end); len(path) > 0 {
		candidates = append(candidates, Candidate{Path: path, Description: DescNorth})
	}
	if path := p.viaWaypoint(ctx, start, south, end); len(path) > 0 {
		candidates = append(candidates, Candidate{Path: path, Description: DescSouth})
	}

	if len(candidates) == 0 {
		p.logger.Warn("route: all candidates failed, falling back to straight line")
		candidates = append(candidates, Candidate{
			Path:        []domain.Coordinate{start, end},
			Description: DescDirect,
		})
	}
	return candidates
}

// viaWaypoint joins two legs through a waypoint, dropping the duplicated
// joint coordinate. Either leg failing fails the candidate.
func (p *Planner) viaWaypoint(ctx context.Context, start, via, end domain.Coordinate) []domain.Coordinate {
	first := p.fetch(ctx, start, via)
	if len(first) == 0 {
		return nil
	}
	second := p.fetch(ctx, via, end)
	if len(second) == 0 {
		return nil
	}
	return append(first, second[1:]...)
}

func (p *Planner) fetch(ctx context.Context, start, end domain.Coordinate) []domain.Coordinate {
	path, err := p.router.Route(ctx, start, end)
	if err != nil {
		p.logger.Warn("route: candidate failed", "error", err)
		return nil
	}
	return path
}
