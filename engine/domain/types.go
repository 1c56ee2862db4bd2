// Package domain defines the core data model, constants, and validation for
// the VibeWalk engine. It acts as the validation gate at pipeline entry points.
package domain

import "time"

// VectorDims is the embedding dimension used across the engine
// (bge-small class models).
const VectorDims = 384

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Category classifies a located report.
type Category string

const (
	CategoryCrime      Category = "crime"
	CategoryReview     Category = "review"
	CategoryUserReport Category = "user_report"
)

// ValidCategories is the set of recognised report categories.
var ValidCategories = map[Category]bool{
	CategoryCrime:      true,
	CategoryReview:     true,
	CategoryUserReport: true,
}

// Provenance tags for the Source field.
const (
	SourceSeeded     = "seeded"
	SourceUserReport = "user_report"
)

// Severity hints for the Severity field.
const (
	SeverityHigh = "high"
)

// Report is a text record anchored to a coordinate, carrying a precomputed
// embedding. Reports are append-only: a correction is a new record, never a
// mutation, and nothing deletes them.
type Report struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Category  Category   `json:"category"`
	Location  Coordinate `json:"location"`
	Embedding []float32  `json:"-"`

	// Present for reviews / points of interest.
	Name string `json:"name,omitempty"`
	// Provenance, e.g. "seeded" or "user_report".
	Source string `json:"source,omitempty"`
	// Required for user submissions.
	Timestamp time.Time `json:"timestamp,omitzero"`
	// Qualitative weight hint.
	Severity string `json:"severity,omitempty"`
}

// Submission is a user-provided vibe report before it becomes a Report.
// It carries no id, embedding, or timestamp; the engine assigns those.
type Submission struct {
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Description string   `json:"description"`
	Category    Category `json:"type"`
}
