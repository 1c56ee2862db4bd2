package route

import (
	"context"
	"errors"
	"testing"

	"github.com/vibewalk/vibewalk/engine/domain"
)

var (
	start = domain.Coordinate{Lat: 40.7505, Lng: -73.9934}
	end   = domain.Coordinate{Lat: 40.7580, Lng: -73.9855}
)

// scriptedRouter answers each Route call from a queue.
type scriptedRouter struct {
	responses [][]domain.Coordinate
	errs      []error
	calls     int
}

func (s *scriptedRouter) Route(_ context.Context, from, to domain.Coordinate) ([]domain.Coordinate, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var path []domain.Coordinate
	if i < len(s.responses) {
		path = s.responses[i]
	}
	return path, err
}

func line(points ...domain.Coordinate) []domain.Coordinate { return points }

func TestPlan_AllCandidates(t *testing.T) {
	mid := domain.Coordinate{Lat: 40.75425, Lng: -73.98945}
	r := &scriptedRouter{responses: [][]domain.Coordinate{
		line(start, end),        // direct
		line(start, mid),        // north leg 1
		line(mid, end),          // north leg 2
		line(start, mid),        // south leg 1
		line(mid, end),          // south leg 2
	}}

	got := NewPlanner(r, nil).Plan(context.Background(), start, end)
	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3", len(got))
	}
	if got[0].Description != DescDirect || got[1].Description != DescNorth || got[2].Description != DescSouth {
		t.Fatalf("descriptions = %v, %v, %v", got[0].Description, got[1].Description, got[2].Description)
	}
	// Joint coordinate appears once in the joined alternates.
	if len(got[1].Path) != 3 {
		t.Fatalf("north path = %v", got[1].Path)
	}
	if got[1].Path[1] != mid {
		t.Fatalf("joint = %+v", got[1].Path[1])
	}
}

func TestPlan_SkipsFailedAlternate(t *testing.T) {
	r := &scriptedRouter{
		responses: [][]domain.Coordinate{
			line(start, end), // direct ok
			nil,              // north leg 1 fails -> leg 2 never requested
			line(start, end), // south leg 1
			line(start, end), // south leg 2
		},
	}
	got := NewPlanner(r, nil).Plan(context.Background(), start, end)
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want direct + south", len(got))
	}
	if got[1].Description != DescSouth {
		t.Fatalf("second candidate = %v", got[1].Description)
	}
}

func TestPlan_StraightLineFallback(t *testing.T) {
	r := &scriptedRouter{errs: []error{
		errors.New("osrm down"), errors.New("osrm down"), errors.New("osrm down"),
	}}
	got := NewPlanner(r, nil).Plan(context.Background(), start, end)
	if len(got) != 1 {
		t.Fatalf("candidates = %d, want exactly one fallback", len(got))
	}
	want := []domain.Coordinate{start, end}
	if len(got[0].Path) != 2 || got[0].Path[0] != want[0] || got[0].Path[1] != want[1] {
		t.Fatalf("fallback path = %v", got[0].Path)
	}
}

func TestSamplePath(t *testing.T) {
	long := make([]domain.Coordinate, 57)
	for i := range long {
		long[i] = domain.Coordinate{Lat: float64(i), Lng: float64(i)}
	}

	got := SamplePath(long, DefaultSampleCount)
	if len(got) != DefaultSampleCount {
		t.Fatalf("sampled %d points", len(got))
	}
	if got[0] != long[0] {
		t.Fatal("first point must be included")
	}
	// Order preserved, stride = floor(57/10) = 5.
	for i := 1; i < len(got); i++ {
		if got[i].Lat <= got[i-1].Lat {
			t.Fatal("order not preserved")
		}
		if got[i] != long[i*5] {
			t.Fatalf("got[%d] = %+v, want index %d", i, got[i], i*5)
		}
	}
}

func TestSamplePath_ShortPath(t *testing.T) {
	short := []domain.Coordinate{start, end}
	got := SamplePath(short, DefaultSampleCount)
	if len(got) != 2 || got[0] != start || got[1] != end {
		t.Fatalf("got %v", got)
	}
	// Copy, not alias.
	got[0].Lat = 0
	if short[0].Lat == 0 {
		t.Fatal("sample must not alias the input path")
	}
}

func TestSamplePath_Empty(t *testing.T) {
	if got := SamplePath(nil, DefaultSampleCount); got != nil {
		t.Fatalf("got %v", got)
	}
	if got := SamplePath([]domain.Coordinate{start}, 0); got != nil {
		t.Fatalf("got %v", got)
	}
}
