// Package metrics provides Prometheus-compatible counters for the IBus host.
//
// The host has no HTTP listener. It writes the registry in the Prometheus
// text format to a file, which node_exporter's textfile collector or
// halfqwertyctl status can read.
package metrics

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Labels represents metric labels.
type Labels map[string]string

// String renders the labels in Prometheus syntax, sorted by key.
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(l))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s=%q`, k, l[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels Labels
	value  atomic.Uint64
}

// Inc increments the counter by 1. A nil counter ignores the call.
func (c *Counter) Inc() {
	if c != nil {
		c.value.Add(1)
	}
}

// Add adds v to the counter.
func (c *Counter) Add(v uint64) {
	if c != nil {
		c.value.Add(v)
	}
}

// Value returns the current value.
func (c *Counter) Value() uint64 {
	if c == nil {
		return 0
	}
	return c.value.Load()
}

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels Labels
	value  atomic.Int64
}

// Set sets the gauge.
func (g *Gauge) Set(v int64) {
	if g != nil {
		g.value.Store(v)
	}
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.Add(-1) }

// Add adds v to the gauge.
func (g *Gauge) Add(v int64) {
	if g != nil {
		g.value.Add(v)
	}
}

// Value returns the current value.
func (g *Gauge) Value() int64 {
	if g == nil {
		return 0
	}
	return g.value.Load()
}

// LatencyBuckets are upper bounds in seconds for key handling latency.
var LatencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05,
}

// Histogram tracks the distribution of values.
type Histogram struct {
	name    string
	help    string
	labels  Labels
	buckets []float64

	mu     sync.Mutex
	counts []uint64 // per bucket, last is +Inf
	sum    float64
	count  uint64
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += v
	h.count++
	// le semantics: v lands in the first bucket whose bound is >= v
	h.counts[sort.SearchFloat64s(h.buckets, v)]++
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Mean returns the mean of observed values.
func (h *Histogram) Mean() float64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0
	}
	return h.sum / float64(h.count)
}

// Registry holds all registered metrics.
type Registry struct {
	mu         sync.RWMutex
	namespace  string
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

// NewRegistry creates a registry whose metric names start with namespace.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace:  namespace,
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

func (r *Registry) fullName(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + "_" + name
}

// key identifies a series: the same name may be registered with
// different labels.
func key(name string, labels Labels) string {
	return name + labels.String()
}

// Counter registers a counter, or returns the one already registered under
// the same name and labels.
func (r *Registry) Counter(name, help string, labels Labels) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = r.fullName(name)
	k := key(name, labels)
	if c, ok := r.counters[k]; ok {
		return c
	}
	c := &Counter{name: name, help: help, labels: labels}
	r.counters[k] = c
	return c
}

// Gauge registers a gauge.
func (r *Registry) Gauge(name, help string, labels Labels) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = r.fullName(name)
	k := key(name, labels)
	if g, ok := r.gauges[k]; ok {
		return g
	}
	g := &Gauge{name: name, help: help, labels: labels}
	r.gauges[k] = g
	return g
}

// Histogram registers a histogram. buckets are sorted on registration.
func (r *Registry) Histogram(name, help string, labels Labels, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = r.fullName(name)
	k := key(name, labels)
	if h, ok := r.histograms[k]; ok {
		return h
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	h := &Histogram{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: sorted,
		counts:  make([]uint64, len(sorted)+1),
	}
	r.histograms[k] = h
	return h
}

// WritePrometheus writes every metric in the Prometheus text format.
// Output is sorted so successive dumps diff cleanly.
func (r *Registry) WritePrometheus(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b bytes.Buffer
	described := make(map[string]bool)
	describe := func(name, help, typ string) {
		if described[name] {
			return
		}
		described[name] = true
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, typ)
	}

	for _, k := range sortedKeys(r.counters) {
		c := r.counters[k]
		describe(c.name, c.help, "counter")
		fmt.Fprintf(&b, "%s%s %d\n", c.name, c.labels, c.Value())
	}
	for _, k := range sortedKeys(r.gauges) {
		g := r.gauges[k]
		describe(g.name, g.help, "gauge")
		fmt.Fprintf(&b, "%s%s %d\n", g.name, g.labels, g.Value())
	}
	for _, k := range sortedKeys(r.histograms) {
		h := r.histograms[k]
		describe(h.name, h.help, "histogram")
		h.mu.Lock()
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += h.counts[i]
			fmt.Fprintf(&b, "%s_bucket%s %d\n", h.name, withLE(h.labels, fmt.Sprintf("%g", bound)), cumulative)
		}
		cumulative += h.counts[len(h.buckets)]
		fmt.Fprintf(&b, "%s_bucket%s %d\n", h.name, withLE(h.labels, "+Inf"), cumulative)
		fmt.Fprintf(&b, "%s_sum%s %g\n", h.name, h.labels, h.sum)
		fmt.Fprintf(&b, "%s_count%s %d\n", h.name, h.labels, h.count)
		h.mu.Unlock()
	}

	_, err := w.Write(b.Bytes())
	return err
}

// WriteFile dumps the registry to path through a temp file and rename, so
// a collector never reads a partial file.
func (r *Registry) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := r.WritePrometheus(&buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".metrics-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp metrics file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write metrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metrics: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Snapshot returns the current value of every counter and gauge keyed by
// series, plus _count and _mean for histograms.
func (r *Registry) Snapshot() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]float64, len(r.counters)+len(r.gauges)+2*len(r.histograms))
	for k, c := range r.counters {
		out[k] = float64(c.Value())
	}
	for k, g := range r.gauges {
		out[k] = float64(g.Value())
	}
	for k, h := range r.histograms {
		out[k+"_count"] = float64(h.Count())
		out[k+"_mean"] = h.Mean()
	}
	return out
}

func withLE(labels Labels, le string) string {
	l := make(Labels, len(labels)+1)
	for k, v := range labels {
		l[k] = v
	}
	l["le"] = le
	return l.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
