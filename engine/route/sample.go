package route

import "github.com/vibewalk/vibewalk/engine/domain"

// DefaultSampleCount bounds per-path retrieval calls regardless of how dense
// the routing capability's polylines are.
const DefaultSampleCount = 10

// SamplePath selects at most k points from path, evenly spaced by index
// stride, preserving order. The first point is always included; the final
// point only lands in the sample when the stride happens to reach it.
// Deterministic for a given path and k.
func SamplePath(path []domain.Coordinate, k int) []domain.Coordinate {
	if len(path) == 0 || k <= 0 {
		return nil
	}
	if len(path) <= k {
		out := make([]domain.Coordinate, len(path))
		copy(out, path)
		return out
	}

	step := len(path) / k
	if step < 1 {
		step = 1
	}
	out := make([]domain.Coordinate, 0, k)
	for i := 0; i < len(path) && len(out) < k; i += step {
		out = append(out, path[i])
	}
	return out
}
