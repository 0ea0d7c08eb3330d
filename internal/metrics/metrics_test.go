package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLabelsString(t *testing.T) {
	if got := (Labels{}).String(); got != "" {
		t.Errorf("empty labels = %q", got)
	}
	got := Labels{"outcome": "passed", "a": "x\"y"}.String()
	if got != `{a="x\"y",outcome="passed"}` {
		t.Errorf("labels = %s", got)
	}
}

func TestRegistryReturnsSameSeries(t *testing.T) {
	r := NewRegistry("hq")
	a := r.Counter("events_total", "help", Labels{"k": "1"})
	b := r.Counter("events_total", "help", Labels{"k": "1"})
	c := r.Counter("events_total", "help", Labels{"k": "2"})
	if a != b {
		t.Error("same name and labels should return the same counter")
	}
	if a == c {
		t.Error("different labels should be a separate series")
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var c *Counter
	var g *Gauge
	var h *Histogram
	var e *Engine
	c.Inc()
	g.Inc()
	h.Observe(1)
	e.KeyEvent(true, time.Millisecond)
	if c.Value() != 0 || g.Value() != 0 || h.Count() != 0 {
		t.Error("nil metrics should read as zero")
	}
	if err := e.WriteFile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("nil engine WriteFile: %v", err)
	}
}

func TestHistogramBuckets(t *testing.T) {
	r := NewRegistry("")
	h := r.Histogram("latency_seconds", "help", nil, []float64{1, 0.1})
	h.Observe(0.05)
	h.Observe(0.1)
	h.Observe(0.5)
	h.Observe(3)

	var buf bytes.Buffer
	if err := r.WritePrometheus(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`latency_seconds_bucket{le="0.1"} 2`,
		`latency_seconds_bucket{le="1"} 3`,
		`latency_seconds_bucket{le="+Inf"} 4`,
		`latency_seconds_count 4`,
		`# TYPE latency_seconds histogram`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if mean := h.Mean(); mean < 0.91 || mean > 0.92 {
		t.Errorf("mean = %v", mean)
	}
}

func TestEngineMetricsFile(t *testing.T) {
	m := NewEngine(nil)
	m.KeyEvent(true, 200*time.Microsecond)
	m.KeyEvent(true, 300*time.Microsecond)
	m.KeyEvent(false, 50*time.Microsecond)
	m.CharsCommitted.Add(2)
	m.EnginesActive.Inc()

	path := filepath.Join(t.TempDir(), "run", "halfqwerty-ibus.prom")
	if err := m.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		`halfqwerty_key_events_total{outcome="consumed"} 2`,
		`halfqwerty_key_events_total{outcome="passed"} 1`,
		`halfqwerty_chars_committed_total 2`,
		`halfqwerty_engines_active 1`,
		`halfqwerty_key_event_duration_seconds_count 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "# TYPE halfqwerty_key_events_total counter"); n != 1 {
		t.Errorf("key_events_total described %d times", n)
	}

	snap := m.Registry().Snapshot()
	if snap[`halfqwerty_key_events_total{outcome="consumed"}`] != 2 {
		t.Errorf("snapshot = %v", snap)
	}
}
