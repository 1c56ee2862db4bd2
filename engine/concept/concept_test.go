package concept

import (
	"context"
	"errors"
	"testing"
)

type scriptedEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *scriptedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func TestInit(t *testing.T) {
	emb := &scriptedEmbedder{vectors: map[string][]float32{
		DangerPhrase:   {1, 0},
		PositivePhrase: {0, 1},
	}}

	v, err := Init(context.Background(), emb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Danger()[0] != 1 || v.Positive()[1] != 1 {
		t.Fatalf("got danger=%v positive=%v", v.Danger(), v.Positive())
	}
	if emb.calls != 2 {
		t.Fatalf("calls = %d, want exactly one embed per concept", emb.calls)
	}
}

func TestInit_EmbedderDown(t *testing.T) {
	emb := &scriptedEmbedder{err: errors.New("model not loaded")}
	if _, err := Init(context.Background(), emb); err == nil {
		t.Fatal("expected error")
	}
}

func TestFixed(t *testing.T) {
	v := Fixed([]float32{1}, []float32{2})
	if v.Danger()[0] != 1 || v.Positive()[0] != 2 {
		t.Fatal("fixed vectors not retained")
	}
}
