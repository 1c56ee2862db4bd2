package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/engine/semantic"
)

type stubEmbedder struct {
	calls int
	fail  bool
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("model offline")
	}
	vec := make([]float32, 3)
	vec[0] = float32(len(text))
	return vec, nil
}

func seedReports(n int) []domain.Report {
	out := make([]domain.Report, n)
	for i := range out {
		out[i] = domain.Report{
			ID:       fmt.Sprintf("seed-%d", i),
			Text:     fmt.Sprintf("Crime Report: incident %d", i),
			Category: domain.CategoryCrime,
			Location: domain.Coordinate{Lat: 40.75, Lng: -73.99},
		}
	}
	return out
}

func TestBuildSeedCorpus(t *testing.T) {
	incidents := []RawIncident{
		{Description: "ROBBERY", Latitude: "40.7505", Longitude: "-73.9934"},
		{Description: "OUTSIDE", Latitude: "40.90", Longitude: "-73.99"},
		{Description: "BROKEN", Latitude: "nope", Longitude: "-73.99"},
	}
	reports := BuildSeedCorpus(incidents, SeedReviews(), ManhattanDemo, nil)

	// 1 usable incident + 6 curated reviews.
	if len(reports) != 7 {
		t.Fatalf("corpus size = %d, want 7", len(reports))
	}
	if reports[0].Category != domain.CategoryCrime {
		t.Errorf("first = %+v, want the crime record", reports[0])
	}
	var names []string
	for _, r := range reports[1:] {
		names = append(names, r.Name)
	}
	if names[0] != "Joe's Pizza" || names[5] != "8th Ave Corner" {
		t.Errorf("review names = %v", names)
	}
}

func TestSeedWritesEmbeddedBatches(t *testing.T) {
	idx := semantic.NewMemoryIndex()
	emb := &stubEmbedder{}
	n := SeedBatchSize + 7

	written, err := NewSeeder(idx, emb, nil).Seed(context.Background(), seedReports(n))
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if written != n {
		t.Errorf("written = %d, want %d", written, n)
	}
	if emb.calls != n {
		t.Errorf("embed calls = %d, want %d", emb.calls, n)
	}
	count, _ := idx.Count(context.Background())
	if count != uint64(n) {
		t.Errorf("index count = %d, want %d", count, n)
	}
	hits, _ := idx.QueryNear(context.Background(), domain.Coordinate{Lat: 40.75, Lng: -73.99}, 100, []float32{1, 0, 0}, 1, "")
	if len(hits) != 1 || len(hits[0].Report.Embedding) == 0 {
		t.Error("stored reports missing embeddings")
	}
}

func TestSeedSkipsPopulatedIndex(t *testing.T) {
	idx := semantic.NewMemoryIndex()
	if err := idx.Upsert(context.Background(), seedReports(1)); err != nil {
		t.Fatal(err)
	}
	emb := &stubEmbedder{}

	written, err := NewSeeder(idx, emb, nil).Seed(context.Background(), seedReports(5))
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if written != 0 || emb.calls != 0 {
		t.Errorf("written = %d, embed calls = %d, want 0/0", written, emb.calls)
	}
}

type batchStub struct {
	stubEmbedder
	batchCalls int
}

func (e *batchStub) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.batchCalls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func TestSeedUsesBatchEmbedder(t *testing.T) {
	idx := semantic.NewMemoryIndex()
	emb := &batchStub{}

	written, err := NewSeeder(idx, emb, nil).Seed(context.Background(), seedReports(SeedBatchSize+1))
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if written != SeedBatchSize+1 {
		t.Errorf("written = %d", written)
	}
	if emb.batchCalls != 2 {
		t.Errorf("batch calls = %d, want 2", emb.batchCalls)
	}
	if emb.calls != 0 {
		t.Errorf("per-item calls = %d, want batch path only", emb.calls)
	}
}

func TestSeedFailsFastOnEmbedError(t *testing.T) {
	idx := semantic.NewMemoryIndex()
	_, err := NewSeeder(idx, &stubEmbedder{fail: true}, nil).Seed(context.Background(), seedReports(3))
	if err == nil {
		t.Fatal("want error")
	}
	count, _ := idx.Count(context.Background())
	if count != 0 {
		t.Errorf("count = %d, want nothing written", count)
	}
}

func TestSocrataFetchIncidents(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]RawIncident{
			{Description: "ASSAULT", Latitude: "40.75", Longitude: "-73.99"},
		})
	}))
	defer srv.Close()

	incidents, err := NewSocrataClient(srv.URL).FetchIncidents(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchIncidents: %v", err)
	}
	if len(incidents) != 1 || incidents[0].Description != "ASSAULT" {
		t.Errorf("incidents = %+v", incidents)
	}
	if gotQuery == "" {
		t.Fatal("no query sent")
	}
	req, _ := http.NewRequest("GET", srv.URL+"?"+gotQuery, nil)
	q := req.URL.Query()
	if q.Get("$limit") != "300" {
		t.Errorf("$limit = %q, want default 300", q.Get("$limit"))
	}
	if q.Get("$where") != "latitude IS NOT NULL" {
		t.Errorf("$where = %q", q.Get("$where"))
	}
}

func TestSocrataFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewSocrataClient(srv.URL).FetchIncidents(context.Background(), 10); err == nil {
		t.Fatal("want error on 503")
	}
}
