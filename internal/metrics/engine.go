package metrics

import "time"

// Key event outcomes.
const (
	OutcomeConsumed = "consumed"
	OutcomePassed   = "passed"
)

// Engine holds the IBus host metrics. A nil *Engine records nothing.
type Engine struct {
	registry *Registry

	KeysConsumed     *Counter
	KeysPassed       *Counter
	CharsCommitted   *Counter
	KeysForwarded    *Counter
	StickyToggles    *Counter
	LayoutSwitches   *Counter
	ConfigReloads    *Counter
	Panics           *Counter
	EnginesActive    *Gauge
	UptimeSeconds    *Gauge
	KeyEventDuration *Histogram

	started time.Time
}

// NewEngine registers the host metrics on registry.
func NewEngine(registry *Registry) *Engine {
	if registry == nil {
		registry = NewRegistry("halfqwerty")
	}
	keys := func(outcome string) *Counter {
		return registry.Counter("key_events_total",
			"Key events seen by the engine, by outcome",
			Labels{"outcome": outcome})
	}
	return &Engine{
		registry:       registry,
		KeysConsumed:   keys(OutcomeConsumed),
		KeysPassed:     keys(OutcomePassed),
		CharsCommitted: registry.Counter("chars_committed_total", "Characters sent with CommitText", nil),
		KeysForwarded:  registry.Counter("keys_forwarded_total", "Modified keys delivered with ForwardKeyEvent", nil),
		StickyToggles:  registry.Counter("sticky_toggles_total", "Sticky modifier taps", nil),
		LayoutSwitches: registry.Counter("layout_switches_total", "Layout changes from the IBus panel", nil),
		ConfigReloads:  registry.Counter("config_reloads_total", "Configuration reloads applied", nil),
		Panics:         registry.Counter("panics_total", "Recovered panics in IBus callbacks", nil),
		EnginesActive:  registry.Gauge("engines_active", "Engine instances created by IBus", nil),
		UptimeSeconds:  registry.Gauge("uptime_seconds", "Seconds since the host started", nil),
		KeyEventDuration: registry.Histogram("key_event_duration_seconds",
			"Time spent in ProcessKeyEvent", nil, LatencyBuckets),
		started: time.Now(),
	}
}

// Registry returns the registry the metrics live in.
func (m *Engine) Registry() *Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// KeyEvent records one ProcessKeyEvent call.
func (m *Engine) KeyEvent(consumed bool, d time.Duration) {
	if m == nil {
		return
	}
	if consumed {
		m.KeysConsumed.Inc()
	} else {
		m.KeysPassed.Inc()
	}
	m.KeyEventDuration.ObserveDuration(d)
}

// Committed records n characters sent with CommitText.
func (m *Engine) Committed(n int) {
	if m != nil && n > 0 {
		m.CharsCommitted.Add(uint64(n))
	}
}

// Forwarded records a key delivered with ForwardKeyEvent.
func (m *Engine) Forwarded() {
	if m != nil {
		m.KeysForwarded.Inc()
	}
}

// StickyToggled records a sticky modifier tap.
func (m *Engine) StickyToggled() {
	if m != nil {
		m.StickyToggles.Inc()
	}
}

// LayoutSwitched records a layout change from the panel.
func (m *Engine) LayoutSwitched() {
	if m != nil {
		m.LayoutSwitches.Inc()
	}
}

// Reloaded records an applied configuration reload.
func (m *Engine) Reloaded() {
	if m != nil {
		m.ConfigReloads.Inc()
	}
}

// Panicked records a recovered panic.
func (m *Engine) Panicked() {
	if m != nil {
		m.Panics.Inc()
	}
}

// EngineCreated records a new engine instance.
func (m *Engine) EngineCreated() {
	if m != nil {
		m.EnginesActive.Inc()
	}
}

// EngineDestroyed records an engine instance going away.
func (m *Engine) EngineDestroyed() {
	if m != nil {
		m.EnginesActive.Dec()
	}
}

// WriteFile refreshes the uptime gauge and dumps the registry to path.
func (m *Engine) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	m.UptimeSeconds.Set(int64(time.Since(m.started).Seconds()))
	return m.registry.WriteFile(path)
}
