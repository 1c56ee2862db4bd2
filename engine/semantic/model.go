// Package semantic provides the hybrid geo+vector index for located reports:
// a Qdrant-backed store, an in-process fallback, and a resilience decorator
// that degrades failed queries to empty results.
package semantic

import (
	"context"

	"github.com/vibewalk/vibewalk/engine/domain"
)

// Hit is a single retrieval result with its similarity score.
type Hit struct {
	Report domain.Report `json:"report"`
	Score  float32       `json:"score"`
}

// Index is the hybrid retrieval contract: store located reports and answer
// combined geographic-radius + vector-similarity queries. Implementations
// must be safe for concurrent readers with append-only writers.
type Index interface {
	// Upsert stores reports, idempotent on id. A report is visible to
	// queries once Upsert returns.
	Upsert(ctx context.Context, reports []domain.Report) error

	// QueryNear returns at most limit reports within radiusMeters of center,
	// ordered by descending similarity to vector. category narrows the
	// candidate set when non-empty. No qualifying record is an empty slice,
	// not an error.
	QueryNear(ctx context.Context, center domain.Coordinate, radiusMeters float64, vector []float32, limit int, category domain.Category) ([]Hit, error)

	// ScanNear lists reports within radiusMeters of center without
	// similarity ranking. Used for inspection views.
	ScanNear(ctx context.Context, center domain.Coordinate, radiusMeters float64, limit int) ([]domain.Report, error)

	// Count reports the total number of stored records.
	Count(ctx context.Context) (uint64, error)
}
