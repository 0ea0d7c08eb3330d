package ibus

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"halfqwerty/internal/config"
	"halfqwerty/internal/ime"
	"halfqwerty/internal/layout"
	"halfqwerty/internal/metrics"
)

// Property names accepted by PropertyActivate.
const (
	PropLayoutWide  = "layout.wide"
	PropLayoutLeft  = "layout.left"
	PropLayoutRight = "layout.right"
)

// Sink receives the output of a Handler. The D-Bus engine implements it with
// the CommitText and ForwardKeyEvent signals.
type Sink interface {
	CommitText(text string) error
	ForwardKeyEvent(keyval, keycode, state uint32) error
}

// Handler adapts IBus key events to an ime.InputContext. It serializes
// every call into the context, so D-Bus method calls and the legacy ticker
// can run on different goroutines.
type Handler struct {
	mu      sync.Mutex
	ctx     *ime.InputContext
	tr      Translator
	sink    Sink
	logger  *slog.Logger
	legacy  bool
	enabled bool
	metrics *metrics.Engine

	// codes whose press was consumed; their release is consumed too
	swallowed map[byte]bool
}

// NewHandler creates a handler configured from cfg. Extra options are
// applied after the configured ones.
func NewHandler(cfg *config.Config, sink Sink, logger *slog.Logger, extra ...ime.Option) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := append(cfg.EngineOptions(), ime.WithLogger(logger))
	opts = append(opts, extra...)
	return &Handler{
		ctx:       ime.New(cfg.Variant(), opts...),
		sink:      sink,
		logger:    logger,
		legacy:    cfg.LegacyProtocol(),
		enabled:   true,
		swallowed: make(map[byte]bool),
	}
}

// SetMetrics makes the handler record into m. A nil m disables recording.
func (h *Handler) SetMetrics(m *metrics.Engine) {
	h.mu.Lock()
	h.metrics = m
	h.mu.Unlock()
}

// ProcessKeyEvent feeds one IBus key event to the engine and reports
// whether it was consumed.
func (h *Handler) ProcessKeyEvent(keyval, keycode, state uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	consumed := h.processKeyEvent(keyval, keycode, state)
	h.metrics.KeyEvent(consumed, time.Since(start))
	return consumed
}

func (h *Handler) processKeyEvent(keyval, keycode, state uint32) bool {
	if !h.enabled {
		return false
	}

	code, release, ok := h.tr.Translate(keyval, state)
	if !ok {
		return false
	}

	if ime.IsStickyKey(code) {
		// the modifier itself still reaches the application
		h.metrics.StickyToggled()
		if h.legacy {
			h.ctx.Process(code)
		} else {
			h.ctx.ProcessKeyDown(code)
		}
		return false
	}

	if release {
		consumed := h.swallowed[code]
		delete(h.swallowed, code)
		if !h.legacy {
			if h.ctx.ProcessKeyUp(code) {
				h.flush(keycode)
				consumed = true
			}
		}
		return consumed
	}

	var changed bool
	if h.legacy {
		changed = h.ctx.Process(code)
	} else {
		changed = h.ctx.ProcessKeyDown(code)
	}

	// erasing is left to the application
	if ime.IsBackspace(code) {
		return false
	}
	if code == ime.KeySpace && !changed && !h.legacy {
		// auto-repeat of a held space
		return true
	}
	if !changed {
		return false
	}

	h.flush(keycode)
	h.swallowed[code] = true
	return true
}

// flush delivers the pending commit. A single character typed while the
// ctrl or alt latch is armed is forwarded as a key event carrying those
// modifiers instead of being committed as text.
func (h *Handler) flush(keycode uint32) {
	commit := h.ctx.CommitString()
	text := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, commit)
	if text == "" {
		return
	}

	mods := h.ctx.Modifiers()
	if mask := modifierMask(mods); mask != 0 && len(text) == 1 && text != " " {
		keyval := CodeToKeyval(text[0])
		if err := h.sink.ForwardKeyEvent(keyval, keycode, mask); err != nil {
			h.logger.Warn("forward key event failed", "error", err)
		}
		if err := h.sink.ForwardKeyEvent(keyval, keycode, mask|ReleaseMask); err != nil {
			h.logger.Warn("forward key release failed", "error", err)
		}
		h.ctx.ClearCtrlAlt()
		h.metrics.Forwarded()
		h.logger.Debug("forwarded with sticky modifiers", "mods", mods.String())
		return
	}

	if err := h.sink.CommitText(text); err != nil {
		h.logger.Warn("commit text failed", "error", err)
		return
	}
	h.metrics.Committed(len(text))
}

// Tick expires a pending legacy chord. It does nothing in the explicit
// protocol or when no chord is open.
func (h *Handler) Tick() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.legacy || !h.ctx.ChordPending() {
		return
	}
	if h.ctx.Tick() {
		h.flush(0)
	}
}

// FocusIn is a no-op; state is dropped on the way out instead.
func (h *Handler) FocusIn() {}

// FocusOut drops an open chord without typing a space.
func (h *Handler) FocusOut() {
	h.dropChord()
}

// Reset drops an open chord without typing a space.
func (h *Handler) Reset() {
	h.dropChord()
}

// Enable resumes handling keys.
func (h *Handler) Enable() {
	h.mu.Lock()
	h.enabled = true
	h.mu.Unlock()
}

// Disable stops handling keys and drops an open chord.
func (h *Handler) Disable() {
	h.mu.Lock()
	h.enabled = false
	h.mu.Unlock()
	h.dropChord()
}

func (h *Handler) dropChord() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ctx.ResetSpaceState()
	h.tr.Reset()
	clear(h.swallowed)
}

// ActivateProperty switches the layout for a layout.* property. It reports
// whether the property was recognized.
func (h *Handler) ActivateProperty(name string) bool {
	var v layout.Variant
	switch name {
	case PropLayoutWide:
		v = layout.Wide
	case PropLayoutLeft:
		v = layout.Left
	case PropLayoutRight:
		v = layout.Right
	default:
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.ctx.ResetSpaceState()
	h.ctx.SetKeyboardType(v)
	h.metrics.LayoutSwitched()
	h.logger.Info("layout switched", "layout", v.String())
	return true
}

// Apply reconfigures the live context after a config reload. A protocol
// change drops any open chord, since its state belongs to the old protocol.
func (h *Handler) Apply(cfg *config.Config) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cfg.ApplyTo(h.ctx)
	if legacy := cfg.LegacyProtocol(); legacy != h.legacy {
		h.ctx.ResetSpaceState()
		clear(h.swallowed)
		h.legacy = legacy
	}
}

// Legacy reports whether the handler uses the single-event protocol.
func (h *Handler) Legacy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.legacy
}

// Layout returns the active layout variant.
func (h *Handler) Layout() layout.Variant {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctx.KeyboardType()
}

// Close releases the context.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ctx.Close()
}
