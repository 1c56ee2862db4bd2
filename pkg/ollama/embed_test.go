package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbed(t *testing.T) {
	var gotReq ollamaEmbedReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResp{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "all-minilm")
	vec, err := c.Embed(context.Background(), "dark alley")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[1] != float32(0.2) {
		t.Errorf("vec = %v", vec)
	}
	if gotReq.Model != "all-minilm" || gotReq.Prompt != "dark alley" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewEmbedClient(srv.URL, "").Embed(context.Background(), "x"); err == nil {
		t.Fatal("want error on 500")
	}
}

func TestEmbedBatchFailsFast(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(ollamaEmbedResp{Embedding: []float64{1}})
	}))
	defer srv.Close()

	_, err := NewEmbedClient(srv.URL, "").EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err == nil {
		t.Fatal("want error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want fail fast after 2", calls)
	}
}
