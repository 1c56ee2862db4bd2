package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterAndGauge(t *testing.T) {
	r := New()
	c := r.Counter("vibe_reports_total", "Reports ingested.")
	c.Inc()
	c.Add(2)
	if c.Value() != 3 {
		t.Errorf("counter = %d, want 3", c.Value())
	}

	g := r.Gauge("vibe_nodes", "Stored reports.")
	g.Set(10)
	g.Dec()
	if g.Value() != 9 {
		t.Errorf("gauge = %d, want 9", g.Value())
	}

	out := r.Render()
	for _, want := range []string{
		"# TYPE vibe_reports_total counter",
		"vibe_reports_total 3",
		"# HELP vibe_nodes Stored reports.",
		"vibe_nodes 9",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render missing %q:\n%s", want, out)
		}
	}
}

func TestCounterReuseByName(t *testing.T) {
	r := New()
	a := r.Counter("x", "")
	b := r.Counter("x", "")
	if a != b {
		t.Fatal("same name returned distinct counters")
	}
}

func TestLabeledSeries(t *testing.T) {
	r := New()
	r.Counter(WithLabels("index_queries_total", "kind", "danger"), "Index queries.").Add(4)
	r.Counter(WithLabels("index_queries_total", "kind", "recommend"), "").Inc()

	out := r.Render()
	if !strings.Contains(out, `index_queries_total{kind="danger"} 4`) {
		t.Errorf("missing danger series:\n%s", out)
	}
	if !strings.Contains(out, `index_queries_total{kind="recommend"} 1`) {
		t.Errorf("missing recommend series:\n%s", out)
	}
	if strings.Count(out, "# TYPE index_queries_total") != 1 {
		t.Errorf("TYPE line not deduped:\n%s", out)
	}
}

func TestHistogramRender(t *testing.T) {
	r := New()
	h := r.Histogram("score_duration_seconds", "Route scoring latency.", []float64{0.1, 1})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5)

	out := r.Render()
	for _, want := range []string{
		`score_duration_seconds_bucket{le="0.1"} 1`,
		`score_duration_seconds_bucket{le="1"} 2`,
		`score_duration_seconds_bucket{le="+Inf"} 3`,
		"score_duration_seconds_count 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render missing %q:\n%s", want, out)
		}
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("up", "").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "up 1") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
