package semantic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/pkg/resilience"
)

type failingIndex struct {
	*MemoryIndex
	queryErr error
	scanErr  error
}

func (f *failingIndex) QueryNear(ctx context.Context, c domain.Coordinate, r float64, v []float32, l int, cat domain.Category) ([]Hit, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.MemoryIndex.QueryNear(ctx, c, r, v, l, cat)
}

func (f *failingIndex) ScanNear(ctx context.Context, c domain.Coordinate, r float64, l int) ([]domain.Report, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.MemoryIndex.ScanNear(ctx, c, r, l)
}

func TestResilient_QueryFailureDegradesToEmpty(t *testing.T) {
	inner := &failingIndex{queryErr: errors.New("unavailable")}
	res := NewResilient(inner, nil, time.Second, nil)

	hits, err := res.QueryNear(context.Background(), timesSq, 150, []float32{1}, 2, "")
	if err != nil {
		t.Fatalf("degraded query must not error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("hits = %v", hits)
	}
}

func TestResilient_PassThroughOnSuccess(t *testing.T) {
	inner := &failingIndex{MemoryIndex: NewMemoryIndex()}
	_ = inner.Upsert(context.Background(), []domain.Report{
		report("a", domain.CategoryCrime, timesSq, []float32{1}),
	})
	res := NewResilient(inner, nil, time.Second, nil)

	hits, err := res.QueryNear(context.Background(), timesSq, 150, []float32{1}, 2, "")
	if err != nil || len(hits) != 1 {
		t.Fatalf("got %v, %v", hits, err)
	}

	scan, err := res.ScanNear(context.Background(), timesSq, 150, 10)
	if err != nil || len(scan) != 1 {
		t.Fatalf("got %v, %v", scan, err)
	}

	n, err := res.Count(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v", n, err)
	}
}

func TestResilient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	inner := &failingIndex{queryErr: errors.New("down")}
	breaker := resilience.NewBreaker(resilience.BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	res := NewResilient(inner, breaker, time.Second, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := res.QueryNear(ctx, timesSq, 150, []float32{1}, 2, ""); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if breaker.State() != resilience.StateOpen {
		t.Fatalf("breaker state = %v, want open", breaker.State())
	}

	// Open breaker still degrades gracefully rather than erroring.
	hits, err := res.QueryNear(ctx, timesSq, 150, []float32{1}, 2, "")
	if err != nil || hits != nil {
		t.Fatalf("got %v, %v", hits, err)
	}
}

func TestResilient_ScanFailureDegradesToEmpty(t *testing.T) {
	inner := &failingIndex{scanErr: errors.New("unavailable")}
	res := NewResilient(inner, nil, time.Second, nil)

	got, err := res.ScanNear(context.Background(), timesSq, 200, 20)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}
