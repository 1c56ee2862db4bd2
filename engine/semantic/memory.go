package semantic

import (
	"context"
	"sort"
	"sync"

	"github.com/vibewalk/vibewalk/engine/domain"
)

// MemoryIndex is an in-process Index used when the Qdrant backend is
// unreachable at startup, and as a deterministic double in tests. It scans
// linearly; fine for the degraded/local data volumes it exists for.
type MemoryIndex struct {
	mu      sync.RWMutex
	byID    map[string]int
	reports []domain.Report
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{byID: make(map[string]int)}
}

// Upsert stores reports, replacing any existing record with the same id.
func (m *MemoryIndex) Upsert(_ context.Context, reports []domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range reports {
		if i, ok := m.byID[r.ID]; ok {
			m.reports[i] = r
			continue
		}
		m.byID[r.ID] = len(m.reports)
		m.reports = append(m.reports, r)
	}
	return nil
}

// QueryNear filters by great-circle distance and ranks by cosine similarity.
func (m *MemoryIndex) QueryNear(_ context.Context, center domain.Coordinate, radiusMeters float64, vector []float32, limit int, category domain.Category) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []Hit
	for _, r := range m.reports {
		if category != "" && r.Category != category {
			continue
		}
		if Haversine(center, r.Location) > radiusMeters {
			continue
		}
		hits = append(hits, Hit{Report: r, Score: CosineSimilarity(vector, r.Embedding)})
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ScanNear lists reports within the radius in insertion order.
func (m *MemoryIndex) ScanNear(_ context.Context, center domain.Coordinate, radiusMeters float64, limit int) ([]domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Report
	for _, r := range m.reports {
		if Haversine(center, r.Location) > radiusMeters {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of stored reports.
func (m *MemoryIndex) Count(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.reports)), nil
}
