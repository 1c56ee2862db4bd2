package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/pkg/fn"
)

// SeedBatchSize caps reports per upsert during seeding.
const SeedBatchSize = 100

// Seeder bootstraps the hybrid index from a report corpus.
type Seeder struct {
	sink     Sink
	embedder Embedder
	logger   *slog.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(sink Sink, embedder Embedder, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{sink: sink, embedder: embedder, logger: logger}
}

// BuildSeedCorpus converts raw incidents and curated reviews into reports.
// Incidents that fail to parse or fall outside the box are dropped, not fatal.
func BuildSeedCorpus(incidents []RawIncident, reviews []SeedReview, box BBox, logger *slog.Logger) []domain.Report {
	if logger == nil {
		logger = slog.Default()
	}

	reports := fn.FilterMap(incidents, func(inc RawIncident) (domain.Report, bool) {
		r, err := ReportFromIncident(inc, box)
		if err != nil {
			if !errors.Is(err, ErrOutsideArea) {
				logger.Debug("seed: skipping incident", "error", err)
			}
			return domain.Report{}, false
		}
		return r, true
	})
	logger.Info("seed: incidents in demo area", "kept", len(reports), "total", len(incidents))

	return append(reports, fn.Map(reviews, ReportFromReview)...)
}

// Seed embeds and upserts reports in batches. It is idempotent at the corpus
// level: a non-empty index means a previous run finished, so nothing is done.
// Returns the number of reports written.
func (s *Seeder) Seed(ctx context.Context, reports []domain.Report) (int, error) {
	count, err := s.sink.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: count: %w", err)
	}
	if count > 0 {
		s.logger.Info("seed: index already populated, skipping", "existing", count)
		return 0, nil
	}

	written := 0
	for _, batch := range fn.Chunk(reports, SeedBatchSize) {
		if err := s.embedBatch(ctx, batch); err != nil {
			return written, err
		}
		if err := s.sink.Upsert(ctx, batch); err != nil {
			return written, fmt.Errorf("seed: upsert: %w", err)
		}
		written += len(batch)
	}

	s.logger.Info("seed: complete", "vibe_nodes", written)
	return written, nil
}

// embedBatch attaches embeddings to a batch, in one round trip when the
// embedder supports it.
func (s *Seeder) embedBatch(ctx context.Context, batch []domain.Report) error {
	if be, ok := s.embedder.(BatchEmbedder); ok {
		texts := fn.Map(batch, func(r domain.Report) string { return r.Text })
		vecs, err := be.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("seed: embed batch: %w", err)
		}
		for i := range batch {
			batch[i].Embedding = vecs[i]
		}
		return nil
	}
	for i := range batch {
		vec, err := s.embedder.Embed(ctx, batch[i].Text)
		if err != nil {
			return fmt.Errorf("seed: embed %q: %w", batch[i].ID, err)
		}
		batch[i].Embedding = vec
	}
	return nil
}
