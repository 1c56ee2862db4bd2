// Package concept holds the two fixed concept embeddings ("danger" and
// "positive vibe") used as the query side of every similarity search. They
// are computed once at startup; recomputing an embedding per request would
// dominate scoring latency.
package concept

import (
	"context"
	"fmt"
)

// Canonical phrases the concept vectors are embedded from.
const (
	DangerPhrase   = "Crime, assault, robbery, danger, dark, scary"
	PositivePhrase = "Fun, delicious, beautiful, safe, happy"
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Vectors is the immutable pair of concept embeddings. Construct it with
// Init or Fixed; there is no mutation after that, so concurrent readers
// need no locking.
type Vectors struct {
	danger   []float32
	positive []float32
}

// Init embeds both canonical phrases. It blocks until both vectors exist;
// no query path may run before it returns.
func Init(ctx context.Context, embedder Embedder) (*Vectors, error) {
	danger, err := embedder.Embed(ctx, DangerPhrase)
	if err != nil {
		return nil, fmt.Errorf("concept: embed danger phrase: %w", err)
	}
	positive, err := embedder.Embed(ctx, PositivePhrase)
	if err != nil {
		return nil, fmt.Errorf("concept: embed positive phrase: %w", err)
	}
	return &Vectors{danger: danger, positive: positive}, nil
}

// Fixed builds Vectors from precomputed embeddings. Tests use it to inject
// deterministic query vectors.
func Fixed(danger, positive []float32) *Vectors {
	return &Vectors{danger: danger, positive: positive}
}

// Danger returns the danger-concept query vector.
func (v *Vectors) Danger() []float32 { return v.danger }

// Positive returns the positive-vibe query vector.
func (v *Vectors) Positive() []float32 { return v.positive }
