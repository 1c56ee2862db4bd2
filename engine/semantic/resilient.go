package semantic

import (
	"context"
	"log/slog"
	"time"

	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/pkg/resilience"
)

// DefaultQueryTimeout bounds a single retrieval call. A stalled backend must
// not block route scoring.
const DefaultQueryTimeout = 3 * time.Second

// Resilient decorates an Index with a per-query timeout and a circuit
// breaker. Read failures degrade to empty results — a missing signal never
// blocks route scoring — while write and count failures still propagate.
type Resilient struct {
	inner   Index
	breaker *resilience.Breaker
	timeout time.Duration
	logger  *slog.Logger
}

var _ Index = (*Resilient)(nil)

// NewResilient wraps inner. A zero timeout falls back to DefaultQueryTimeout.
func NewResilient(inner Index, breaker *resilience.Breaker, timeout time.Duration, logger *slog.Logger) *Resilient {
	if breaker == nil {
		breaker = resilience.NewBreaker(resilience.DefaultBreakerOpts)
	}
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resilient{inner: inner, breaker: breaker, timeout: timeout, logger: logger}
}

// Upsert passes through; submission and seeding callers handle write errors.
func (r *Resilient) Upsert(ctx context.Context, reports []domain.Report) error {
	return r.inner.Upsert(ctx, reports)
}

// QueryNear degrades any failure or timeout to zero hits.
func (r *Resilient) QueryNear(ctx context.Context, center domain.Coordinate, radiusMeters float64, vector []float32, limit int, category domain.Category) ([]Hit, error) {
	var hits []Hit
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		qctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		var qerr error
		hits, qerr = r.inner.QueryNear(qctx, center, radiusMeters, vector, limit, category)
		return qerr
	})
	if err != nil {
		r.logger.Warn("semantic: query degraded to empty", "error", err)
		return nil, nil
	}
	return hits, nil
}

// ScanNear degrades any failure or timeout to an empty listing.
func (r *Resilient) ScanNear(ctx context.Context, center domain.Coordinate, radiusMeters float64, limit int) ([]domain.Report, error) {
	var reports []domain.Report
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		qctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		var qerr error
		reports, qerr = r.inner.ScanNear(qctx, center, radiusMeters, limit)
		return qerr
	})
	if err != nil {
		r.logger.Warn("semantic: scan degraded to empty", "error", err)
		return nil, nil
	}
	return reports, nil
}

// Count passes through; seeding needs to distinguish empty from unreachable.
func (r *Resilient) Count(ctx context.Context) (uint64, error) {
	return r.inner.Count(ctx)
}
