package ime

import (
	"log/slog"

	"halfqwerty/internal/layout"
)

// Space-chord timeout bounds, in milliseconds.
const (
	DefaultSpaceTimeout = 267
	MinSpaceTimeout     = 50
	MaxSpaceTimeout     = 1000
)

// ValidSpaceTimeout reports whether ms is an acceptable chord window.
func ValidSpaceTimeout(ms int) bool {
	return ms >= MinSpaceTimeout && ms <= MaxSpaceTimeout
}

// Option configures an InputContext at construction.
type Option func(*InputContext)

// WithClock replaces the system monotonic clock.
func WithClock(clock Clock) Option {
	return func(c *InputContext) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used for debug tracing of state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *InputContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSpaceTimeout sets the initial chord window. Out-of-range values are
// ignored, exactly like SetSpaceTimeout.
func WithSpaceTimeout(ms int) Option {
	return func(c *InputContext) {
		if ValidSpaceTimeout(ms) {
			c.spaceTimeoutMs = ms
		}
	}
}

// WithStickyKeys enables or disables the sticky modifier latches.
func WithStickyKeys(enabled bool) Option {
	return func(c *InputContext) {
		c.stickyEnabled = enabled
	}
}

// InputContext is one Half-QWERTY input session.
//
// It is a synchronous state machine: every method runs to completion and
// nothing happens between calls. Hosts that deliver events from several
// goroutines must serialize access themselves. All methods are safe on a nil
// or closed context: mutators do nothing and accessors return defaults.
type InputContext struct {
	layout layout.Variant

	// Legacy protocol: space was struck and the chord window is open.
	spacePressed bool
	spaceStartMs int64
	// Explicit protocol: space is physically held.
	spaceDown bool
	// A key was mirrored inside the current chord.
	spaceUsed bool

	spaceTimeoutMs int

	stickyEnabled bool
	shiftSticky   bool
	ctrlSticky    bool
	altSticky     bool

	commit commitBuffer
	test   typingTest

	clock  Clock
	logger *slog.Logger
	closed bool
}

// New creates an input context for the given layout variant.
// An unknown variant falls back to Wide.
func New(v layout.Variant, opts ...Option) *InputContext {
	if !v.Valid() {
		v = layout.Wide
	}
	c := &InputContext{
		layout:         v,
		spaceTimeoutMs: DefaultSpaceTimeout,
		stickyEnabled:  true,
		clock:          SystemClock{},
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close ends the session. An open chord is dropped without emitting a space.
func (c *InputContext) Close() {
	if c == nil || c.closed {
		return
	}
	c.resetChord()
	c.clearSticky()
	c.commit.reset()
	c.closed = true
}

func (c *InputContext) unusable() bool {
	return c == nil || c.closed
}

// Process handles one keystroke in the single-event protocol, where the host
// has no separate key-up notifications. KeyNull acts as a timer tick that
// resolves an expired chord into a space. It reports whether any state
// changed or anything was committed.
func (c *InputContext) Process(code byte) bool {
	if c.unusable() {
		return false
	}
	c.commit.reset()

	switch {
	case IsStickyKey(code):
		return c.toggleSticky(code)
	case code == KeySpace:
		if c.spacePressed {
			c.emit(KeySpace, false)
			c.closeLegacyChord()
		} else {
			c.openLegacyChord()
		}
		return true
	case IsBackspace(code):
		c.emit(code, false)
		return true
	case code == KeyNull:
		return c.expireChord()
	}
	return c.processKey(code)
}

// Tick is Process(KeyNull). Hosts using the single-event protocol call it
// periodically so a lone space tap is committed once the window expires.
func (c *InputContext) Tick() bool {
	return c.Process(KeyNull)
}

// ProcessKeyDown handles a key press in the explicit down/up protocol.
// Holding space opens a chord that lasts until ProcessKeyUp(KeySpace).
func (c *InputContext) ProcessKeyDown(code byte) bool {
	if c.unusable() {
		return false
	}
	c.commit.reset()

	switch {
	case IsStickyKey(code):
		return c.toggleSticky(code)
	case code == KeySpace:
		if c.spaceDown {
			// auto-repeat while held
			return false
		}
		c.spaceDown = true
		c.spaceUsed = false
		c.logger.Debug("chord held")
		return true
	case IsBackspace(code):
		c.emit(code, false)
		return true
	case code == KeyNull:
		return c.expireChord()
	}
	return c.processKey(code)
}

// ProcessKeyUp handles a key release in the explicit down/up protocol.
// Only the space release matters: it commits a space unless a key was
// mirrored while space was held.
func (c *InputContext) ProcessKeyUp(code byte) bool {
	if c.unusable() {
		return false
	}
	c.commit.reset()

	if code != KeySpace || !c.spaceDown {
		return false
	}
	c.spaceDown = false
	if c.spaceUsed {
		c.spaceUsed = false
		c.logger.Debug("chord released", "space", false)
		return true
	}
	c.emit(KeySpace, false)
	c.logger.Debug("chord released", "space", true)
	return true
}

// processKey resolves an ordinary character key.
func (c *InputContext) processKey(code byte) bool {
	chordOpen := c.spacePressed || c.spaceDown
	if c.layout == layout.Wide && !chordOpen {
		c.emit(code, false)
		return true
	}

	out := layout.Resolve(c.layout, code)
	if chordOpen {
		c.spaceUsed = true
	}
	// Wide keeps the chord open for a run of mirrored keys until it expires.
	if c.spacePressed && c.layout != layout.Wide {
		c.spacePressed = false
		c.spaceStartMs = 0
	}
	c.emit(out, out != code)
	return true
}

func (c *InputContext) openLegacyChord() {
	c.spacePressed = true
	c.spaceUsed = false
	c.spaceStartMs = c.clock.NowMillis()
	c.logger.Debug("chord opened", "timeout_ms", c.spaceTimeoutMs)
}

func (c *InputContext) closeLegacyChord() {
	c.spacePressed = false
	c.spaceStartMs = 0
	if !c.spaceDown {
		c.spaceUsed = false
	}
}

// expireChord commits a space and closes a legacy chord once its window,
// measured from the space that opened it, has elapsed.
func (c *InputContext) expireChord() bool {
	if !c.spacePressed {
		return false
	}
	elapsed := c.clock.NowMillis() - c.spaceStartMs
	if elapsed < int64(c.spaceTimeoutMs) {
		return false
	}
	c.closeLegacyChord()
	c.emit(KeySpace, false)
	c.logger.Debug("chord expired", "elapsed_ms", elapsed)
	return true
}

// emit commits one character and feeds the typing test.
func (c *InputContext) emit(ch byte, mirrored bool) {
	if !IsBackspace(ch) {
		ch = c.applySticky(ch)
	}
	if !c.commit.push(ch) {
		c.logger.Warn("commit buffer full, character dropped", "code", int(ch))
		return
	}
	c.tally(ch, mirrored)
}

func (c *InputContext) resetChord() {
	c.spacePressed = false
	c.spaceDown = false
	c.spaceUsed = false
	c.spaceStartMs = 0
}

// CommitString returns the characters committed by the most recent Process
// call. The value is replaced by the next call.
func (c *InputContext) CommitString() string {
	if c.unusable() {
		return ""
	}
	return c.commit.String()
}

// PreeditString is always empty: characters are committed immediately.
func (c *InputContext) PreeditString() string {
	return ""
}

// Reset drops the chord, the sticky latches and the pending commit, and
// restores the default chord window. Layout, the sticky-keys setting and the
// typing test survive.
func (c *InputContext) Reset() {
	if c.unusable() {
		return
	}
	c.resetChord()
	c.clearSticky()
	c.commit.reset()
	c.spaceTimeoutMs = DefaultSpaceTimeout
}

// IsEmpty reports whether there is no pending commit and no open legacy
// chord. A nil context is empty.
func (c *InputContext) IsEmpty() bool {
	if c.unusable() {
		return true
	}
	return c.commit.len() == 0 && !c.spacePressed
}

// ChordPending reports whether a legacy chord is waiting for a key or for
// its window to expire. Hosts use it to decide whether ticks are needed.
func (c *InputContext) ChordPending() bool {
	if c.unusable() {
		return false
	}
	return c.spacePressed
}

// SetKeyboardType switches the layout variant. Unknown variants are ignored.
func (c *InputContext) SetKeyboardType(v layout.Variant) {
	if c.unusable() || !v.Valid() {
		return
	}
	c.layout = v
}

// KeyboardType returns the layout variant; Wide for a nil context.
func (c *InputContext) KeyboardType() layout.Variant {
	if c.unusable() {
		return layout.Wide
	}
	return c.layout
}

// SetSpaceTimeout sets the chord window. Values outside
// [MinSpaceTimeout, MaxSpaceTimeout] are ignored.
func (c *InputContext) SetSpaceTimeout(ms int) {
	if c.unusable() || !ValidSpaceTimeout(ms) {
		return
	}
	c.spaceTimeoutMs = ms
}

// SpaceTimeout returns the chord window in milliseconds.
func (c *InputContext) SpaceTimeout() int {
	if c.unusable() {
		return DefaultSpaceTimeout
	}
	return c.spaceTimeoutMs
}

// IsSpaceDown reports whether space is held in the explicit protocol.
func (c *InputContext) IsSpaceDown() bool {
	if c.unusable() {
		return false
	}
	return c.spaceDown
}

// IsSpaceUsed reports whether a key was mirrored in the current chord.
func (c *InputContext) IsSpaceUsed() bool {
	if c.unusable() {
		return false
	}
	return c.spaceUsed
}

// ResetSpaceState drops any open chord without emitting a space.
func (c *InputContext) ResetSpaceState() {
	if c.unusable() {
		return
	}
	c.resetChord()
}

// SetStickyKeysEnabled turns the sticky modifiers on or off. Disabling
// clears every latch.
func (c *InputContext) SetStickyKeysEnabled(enabled bool) {
	if c.unusable() {
		return
	}
	c.stickyEnabled = enabled
	if !enabled {
		c.clearSticky()
	}
}

// StickyKeysEnabled reports whether sticky modifiers are on.
func (c *InputContext) StickyKeysEnabled() bool {
	if c.unusable() {
		return false
	}
	return c.stickyEnabled
}

// SetShiftSticky arms or disarms the shift latch.
func (c *InputContext) SetShiftSticky(on bool) {
	if c.unusable() || !c.stickyEnabled {
		return
	}
	c.shiftSticky = on
}

// SetCtrlSticky arms or disarms the ctrl latch.
func (c *InputContext) SetCtrlSticky(on bool) {
	if c.unusable() || !c.stickyEnabled {
		return
	}
	c.ctrlSticky = on
}

// SetAltSticky arms or disarms the alt latch.
func (c *InputContext) SetAltSticky(on bool) {
	if c.unusable() || !c.stickyEnabled {
		return
	}
	c.altSticky = on
}

// ShiftSticky reports whether the shift latch is armed.
func (c *InputContext) ShiftSticky() bool {
	return !c.unusable() && c.shiftSticky
}

// CtrlSticky reports whether the ctrl latch is armed.
func (c *InputContext) CtrlSticky() bool {
	return !c.unusable() && c.ctrlSticky
}

// AltSticky reports whether the alt latch is armed.
func (c *InputContext) AltSticky() bool {
	return !c.unusable() && c.altSticky
}

// Modifiers returns the armed sticky latches.
func (c *InputContext) Modifiers() Modifiers {
	if c.unusable() {
		return 0
	}
	var m Modifiers
	if c.shiftSticky {
		m |= ModShift
	}
	if c.ctrlSticky {
		m |= ModCtrl
	}
	if c.altSticky {
		m |= ModAlt
	}
	return m
}

// ClearCtrlAlt disarms the ctrl and alt latches. Hosts call it after they
// have delivered a key combined with those modifiers.
func (c *InputContext) ClearCtrlAlt() {
	if c.unusable() {
		return
	}
	c.ctrlSticky = false
	c.altSticky = false
}
