// Package ingest turns raw located signals into stored, embedded reports:
// open-data crime records and curated reviews at seed time, user submissions
// over NATS at runtime.
package ingest

import (
	"context"

	"github.com/vibewalk/vibewalk/engine/domain"
)

// RawIncident is one record from the NYC complaint open-data feed.
// Socrata serializes coordinates as strings.
type RawIncident struct {
	Description string `json:"pd_desc"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

// SeedReview is a curated place review used to bootstrap recommendations.
type SeedReview struct {
	Text     string
	Name     string
	Location domain.Coordinate
}

// SeedReviews returns the curated review fixture for the Manhattan demo area.
func SeedReviews() []SeedReview {
	return []SeedReview{
		{
			Text:     "Joe's Pizza - Best slice in NY! Felt super safe and busy.",
			Name:     "Joe's Pizza",
			Location: domain.Coordinate{Lat: 40.7305, Lng: -74.0021},
		},
		{
			Text:     "Bryant Park - Lovely place to sit and have coffee. Security is visible.",
			Name:     "Bryant Park",
			Location: domain.Coordinate{Lat: 40.7536, Lng: -73.9832},
		},
		{
			Text:     "MOMA - Amazing art, very secure entrance and clean area.",
			Name:     "MOMA",
			Location: domain.Coordinate{Lat: 40.7614, Lng: -73.9776},
		},
		{
			Text:     "High Line - Beautiful walk, filled with tourists and families.",
			Name:     "The High Line",
			Location: domain.Coordinate{Lat: 40.7480, Lng: -74.0048},
		},
		{
			Text:     "Subway Station Entrance - A bit sketchy at night, saw some fights.",
			Name:     "Subway Entrance",
			Location: domain.Coordinate{Lat: 40.7505, Lng: -73.9934},
		},
		{
			Text:     "Dark alley behavior near 8th Ave, avoid alone.",
			Name:     "8th Ave Corner",
			Location: domain.Coordinate{Lat: 40.7550, Lng: -73.9920},
		},
	}
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by clients that can embed many texts in one
// call. The seeder prefers it when available.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Sink is the slice of the hybrid index the ingest path writes through.
type Sink interface {
	Upsert(ctx context.Context, reports []domain.Report) error
	Count(ctx context.Context) (uint64, error)
}
