package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vibewalk/vibewalk/engine/domain"
)

// DefaultOffense stands in when an incident record carries no description.
const DefaultOffense = "Unspecified Crime"

// ErrOutsideArea marks an incident outside the bounding box. Callers skip
// these; they are not failures.
var ErrOutsideArea = errors.New("ingest: incident outside demo area")

// BBox is a latitude/longitude bounding box with exclusive edges.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// ManhattanDemo bounds the Times Square / Penn Station demo area the engine
// keeps its vector search readable in.
var ManhattanDemo = BBox{MinLat: 40.70, MaxLat: 40.80, MinLng: -74.02, MaxLng: -73.95}

// Contains reports whether c falls strictly inside the box.
func (b BBox) Contains(c domain.Coordinate) bool {
	return c.Lat > b.MinLat && c.Lat < b.MaxLat && c.Lng > b.MinLng && c.Lng < b.MaxLng
}

// ReportFromIncident converts a raw open-data record into a crime report.
// Records with unparsable coordinates or outside the box are rejected.
// IDs derive from content, so re-seeding the same feed is idempotent.
func ReportFromIncident(inc RawIncident, box BBox) (domain.Report, error) {
	lat, err := strconv.ParseFloat(inc.Latitude, 64)
	if err != nil {
		return domain.Report{}, fmt.Errorf("ingest: incident latitude %q: %w", inc.Latitude, err)
	}
	lng, err := strconv.ParseFloat(inc.Longitude, 64)
	if err != nil {
		return domain.Report{}, fmt.Errorf("ingest: incident longitude %q: %w", inc.Longitude, err)
	}
	loc := domain.Coordinate{Lat: lat, Lng: lng}
	if err := domain.ValidateCoordinate(loc); err != nil {
		return domain.Report{}, err
	}
	if !box.Contains(loc) {
		return domain.Report{}, ErrOutsideArea
	}

	desc := inc.Description
	if desc == "" {
		desc = DefaultOffense
	}
	text := "Crime Report: " + desc

	return domain.Report{
		ID:       seedID("crime", text, loc),
		Text:     text,
		Category: domain.CategoryCrime,
		Location: loc,
		Source:   domain.SourceSeeded,
	}, nil
}

// ReportFromReview converts a curated review into a report.
func ReportFromReview(rev SeedReview) domain.Report {
	return domain.Report{
		ID:       seedID("review", rev.Name, rev.Location),
		Text:     rev.Text,
		Category: domain.CategoryReview,
		Location: rev.Location,
		Name:     rev.Name,
		Source:   domain.SourceSeeded,
	}
}

// ReportFromSubmission converts a validated user submission into a report.
// Every submission is fresh: random id, stamped now, flagged high severity.
func ReportFromSubmission(sub domain.Submission, now time.Time) domain.Report {
	category := sub.Category
	if category == "" {
		category = domain.CategoryUserReport
	}
	return domain.Report{
		ID:        uuid.NewString(),
		Text:      sub.Description,
		Category:  category,
		Location:  domain.Coordinate{Lat: sub.Lat, Lng: sub.Lng},
		Source:    domain.SourceUserReport,
		Timestamp: now.UTC(),
		Severity:  domain.SeverityHigh,
	}
}

func seedID(kind, key string, loc domain.Coordinate) string {
	seed := fmt.Sprintf("vibewalk:%s:%s:%.6f:%.6f", kind, key, loc.Lat, loc.Lng)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String()
}
