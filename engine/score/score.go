// Package score turns a candidate path into a bounded safety score with
// supporting tags and nearby-place recommendations. It orchestrates, per
// sampled point, a danger query and a positive-vibe query against the
// hybrid index and aggregates whatever signal comes back.
package score

import (
	"context"
	"log/slog"

	"github.com/vibewalk/vibewalk/engine/concept"
	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/engine/route"
	"github.com/vibewalk/vibewalk/engine/semantic"
	"github.com/vibewalk/vibewalk/pkg/fn"
)

// Searcher abstracts the hybrid index read path the scorer depends on.
type Searcher interface {
	QueryNear(ctx context.Context, center domain.Coordinate, radiusMeters float64, vector []float32, limit int, category domain.Category) ([]semantic.Hit, error)
}

// Options holds the tunable policy constants of the scoring algorithm.
// They are policy, not derivation: tests and tuning target them by name.
type Options struct {
	// Danger query: radius, per-point hit cap, and the similarity floor a
	// hit must clear to count against the score.
	DangerRadiusMeters float64
	DangerLimit        int
	DangerThreshold    float32

	// Recommendation query: radius, per-point hit cap, similarity floor.
	// Only review-category records participate.
	RecommendRadiusMeters float64
	RecommendLimit        int
	RecommendThreshold    float32

	// PenaltyFactor scales accumulated danger similarity into score points.
	PenaltyFactor float64
	// MinScore and MaxScore clamp the final safety score.
	MinScore float64
	MaxScore float64

	// Result caps.
	MaxTags            int
	MaxRecommendations int

	// SampleCount bounds sampled points (and outstanding query pairs) per path.
	SampleCount int

	// Tag extraction policy.
	Tags TagPolicy
}

// DefaultOptions returns the tuned production constants.
func DefaultOptions() Options {
	return Options{
		DangerRadiusMeters:    150,
		DangerLimit:           2,
		DangerThreshold:       0.60,
		RecommendRadiusMeters: 100,
		RecommendLimit:        1,
		RecommendThreshold:    0.75,
		PenaltyFactor:         4.0,
		MinScore:              1.0,
		MaxScore:              10.0,
		MaxTags:               4,
		MaxRecommendations:    2,
		SampleCount:           route.DefaultSampleCount,
		Tags:                  DefaultTagPolicy(),
	}
}

// RouteScore is the scored result for one path.
type RouteScore struct {
	Path            []domain.Coordinate `json:"path"`
	SafetyScore     float64             `json:"safety_score"`
	Tags            []string            `json:"tags"`
	Recommendations []Recommendation    `json:"recommendations"`
}

// Scorer scores candidate paths against the hybrid index.
type Scorer struct {
	index    Searcher
	concepts *concept.Vectors
	opts     Options
	logger   *slog.Logger
}

// New creates a Scorer. concepts must already be initialized.
func New(index Searcher, concepts *concept.Vectors, opts Options, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{index: index, concepts: concepts, opts: opts, logger: logger}
}

// pointSignal is the retrieval outcome for one sampled point.
type pointSignal struct {
	danger   []semantic.Hit
	positive []semantic.Hit
}

// ScoreRoute scores one path. It never fails: a query that errors simply
// contributes no signal. The per-point query pairs run concurrently, bounded
// by the sample count; aggregation is serialized in sample order so tags and
// recommendations come out deterministic.
func (s *Scorer) ScoreRoute(ctx context.Context, path []domain.Coordinate) RouteScore {
	sampled := route.SamplePath(path, s.opts.SampleCount)
	s.logger.Debug("scoring route", "points", len(path), "sampled", len(sampled))

	signals := fn.ParMap(sampled, s.opts.SampleCount, func(p domain.Coordinate) pointSignal {
		pair := fn.FanOut(
			func() []semantic.Hit {
				return s.query(ctx, p, s.opts.DangerRadiusMeters, s.concepts.Danger(), s.opts.DangerLimit, "")
			},
			func() []semantic.Hit {
				return s.query(ctx, p, s.opts.RecommendRadiusMeters, s.concepts.Positive(), s.opts.RecommendLimit, domain.CategoryReview)
			},
		)
		return pointSignal{danger: pair[0], positive: pair[1]}
	})

	var totalDanger float64
	var hitCount int
	tags := newTagCollector(s.opts.MaxTags)
	recs := newRecommendationCollector(s.opts.MaxRecommendations)

	for _, sig := range signals {
		for _, hit := range sig.danger {
			if hit.Score <= s.opts.DangerThreshold {
				continue
			}
			totalDanger += float64(hit.Score)
			hitCount++
			if tag, ok := s.opts.Tags.Extract(hit.Report.Text); ok {
				tags.Add(tag)
			}
		}
		for _, hit := range sig.positive {
			if hit.Score <= s.opts.RecommendThreshold {
				continue
			}
			recs.Add(hit.Report.Name, hit.Report.Text)
		}
	}

	penalty := totalDanger * s.opts.PenaltyFactor
	final := s.opts.MaxScore - penalty
	if final < s.opts.MinScore {
		final = s.opts.MinScore
	}
	if final > s.opts.MaxScore {
		final = s.opts.MaxScore
	}

	if hitCount > 0 {
		s.logger.Info("route scored",
			"danger_hits", hitCount,
			"total_danger", totalDanger,
			"score", final,
		)
	}

	return RouteScore{
		Path:            path,
		SafetyScore:     final,
		Tags:            tags.Items(),
		Recommendations: recs.Items(),
	}
}

func (s *Scorer) query(ctx context.Context, center domain.Coordinate, radius float64, vector []float32, limit int, category domain.Category) []semantic.Hit {
	hits, err := s.index.QueryNear(ctx, center, radius, vector, limit, category)
	if err != nil {
		// A missing signal never blocks scoring.
		s.logger.Warn("score: query failed, treating as zero hits", "error", err)
		return nil
	}
	return hits
}
