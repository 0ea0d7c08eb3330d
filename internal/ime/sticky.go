package ime

import "halfqwerty/internal/layout"

// applySticky runs an emitted character through the active sticky latches.
//
// Only the shift latch transforms characters, and it is consumed only by a
// character it actually changes; a space or an already-shifted symbol leaves
// it armed for the next eligible key. Ctrl and alt latches are left for the
// host to interpret.
func (c *InputContext) applySticky(ch byte) byte {
	if !c.shiftSticky {
		return ch
	}
	if s, ok := layout.Shift(ch); ok {
		c.shiftSticky = false
		c.logger.Debug("sticky shift consumed", "char", string(s))
		return s
	}
	return ch
}

// toggleSticky flips the latch selected by a sticky virtual code.
func (c *InputContext) toggleSticky(code byte) bool {
	if !c.stickyEnabled {
		return false
	}
	switch code {
	case KeyStickyShift:
		c.shiftSticky = !c.shiftSticky
	case KeyStickyCtrl:
		c.ctrlSticky = !c.ctrlSticky
	case KeyStickyAlt:
		c.altSticky = !c.altSticky
	default:
		return false
	}
	c.logger.Debug("sticky toggled",
		"shift", c.shiftSticky, "ctrl", c.ctrlSticky, "alt", c.altSticky)
	return true
}

// clearSticky drops all latches.
func (c *InputContext) clearSticky() {
	c.shiftSticky = false
	c.ctrlSticky = false
	c.altSticky = false
}

// Modifiers reports the sticky latches as a bit set.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether m contains mod.
func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod != 0
}

func (m Modifiers) String() string {
	if m == 0 {
		return "none"
	}
	var s string
	add := func(name string) {
		if s != "" {
			s += "+"
		}
		s += name
	}
	if m.Has(ModCtrl) {
		add("ctrl")
	}
	if m.Has(ModAlt) {
		add("alt")
	}
	if m.Has(ModShift) {
		add("shift")
	}
	return s
}
