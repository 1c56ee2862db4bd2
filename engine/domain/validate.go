package domain

import (
	"fmt"
	"strings"
)

// ValidateCoordinate checks that c lies in [-90,90] x [-180,180].
func ValidateCoordinate(c Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return NewValidationError("lat", fmt.Sprintf("%g", c.Lat), ErrInvalidLatitude)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return NewValidationError("lng", fmt.Sprintf("%g", c.Lng), ErrInvalidLongitude)
	}
	return nil
}

// ValidateSubmission validates a user-submitted vibe report at the boundary,
// before it reaches the engine. Category defaults to user_report when empty.
func ValidateSubmission(s Submission) error {
	if err := ValidateCoordinate(Coordinate{Lat: s.Lat, Lng: s.Lng}); err != nil {
		return err
	}
	if strings.TrimSpace(s.Description) == "" {
		return NewValidationError("description", s.Description, ErrEmptyText)
	}
	if s.Category != "" && !ValidCategories[s.Category] {
		return NewValidationError("type", string(s.Category), ErrInvalidCategory)
	}
	return nil
}

// ValidateReport validates a fully-formed report prior to indexing.
func ValidateReport(r Report) error {
	if r.ID == "" {
		return NewValidationError("id", "", ErrMissingID)
	}
	if strings.TrimSpace(r.Text) == "" {
		return NewValidationError("text", r.Text, ErrEmptyText)
	}
	if !ValidCategories[r.Category] {
		return NewValidationError("category", string(r.Category), ErrInvalidCategory)
	}
	if err := ValidateCoordinate(r.Location); err != nil {
		return err
	}
	if len(r.Embedding) != VectorDims {
		return NewValidationError("embedding", fmt.Sprintf("len=%d", len(r.Embedding)), ErrBadEmbedding)
	}
	return nil
}

// ClampCoordinate forces c into valid ranges. Bulk ingestion uses it for
// marginally out-of-range third-party records instead of dropping them.
func ClampCoordinate(c Coordinate) Coordinate {
	if c.Lat > 90 {
		c.Lat = 90
	} else if c.Lat < -90 {
		c.Lat = -90
	}
	if c.Lng > 180 {
		c.Lng = 180
	} else if c.Lng < -180 {
		c.Lng = -180
	}
	return c
}
