package ibus

import "halfqwerty/internal/ime"

// IBus key event state masks
const (
	ShiftMask   uint32 = 1 << 0
	LockMask    uint32 = 1 << 1
	ControlMask uint32 = 1 << 2
	Mod1Mask    uint32 = 1 << 3 // Alt
	Mod4Mask    uint32 = 1 << 6 // Super
	SuperMask   uint32 = 1 << 26
	ReleaseMask uint32 = 1 << 30
)

// Keysyms handled by the translator.
const (
	KeyBackSpace uint32 = 0xff08
	KeyTab       uint32 = 0xff09
	KeyReturn    uint32 = 0xff0d
	KeyEscape    uint32 = 0xff1b
	KeyDelete    uint32 = 0xffff
	KeyShiftL    uint32 = 0xffe1
	KeyShiftR    uint32 = 0xffe2
	KeyControlL  uint32 = 0xffe3
	KeyControlR  uint32 = 0xffe4
	KeyAltL      uint32 = 0xffe9
	KeyAltR      uint32 = 0xffea
)

// shortcutMask selects modifiers that turn a key into an application
// shortcut. Shift and CapsLock only change the character.
const shortcutMask = ControlMask | Mod1Mask | Mod4Mask | SuperMask

// Translator turns IBus key events into engine key codes. It remembers a
// lone modifier press so that a tap of Shift, Control or Alt can toggle the
// matching sticky latch.
type Translator struct {
	pendingTap uint32
}

// Translate maps one key event. ok is false when the event belongs to the
// application and must be passed through untouched. A modifier tap is
// reported on the release with release=false, as a press of the sticky
// virtual code.
func (t *Translator) Translate(keyval, state uint32) (code byte, release, ok bool) {
	release = state&ReleaseMask != 0

	if sticky, isMod := stickyCode(keyval); isMod {
		if !release {
			t.pendingTap = 0
			if state&shortcutMask == 0 {
				t.pendingTap = keyval
			}
			return 0, false, false
		}
		tapped := t.pendingTap == keyval
		t.pendingTap = 0
		if tapped {
			return sticky, false, true
		}
		return 0, true, false
	}

	if !release {
		t.pendingTap = 0
	}
	if state&shortcutMask != 0 {
		return 0, release, false
	}

	code, ok = KeyvalToCode(keyval)
	return code, release, ok
}

// Reset forgets a pending modifier tap.
func (t *Translator) Reset() {
	t.pendingTap = 0
}

// KeyvalToCode maps a keysym to an engine key code. Printable ASCII keysyms
// map to themselves.
func KeyvalToCode(keyval uint32) (byte, bool) {
	switch {
	case keyval >= 0x20 && keyval <= 0x7e:
		return byte(keyval), true
	case keyval == KeyBackSpace:
		return ime.KeyBackspace, true
	case keyval == KeyDelete:
		return ime.KeyDelete, true
	}
	return 0, false
}

// CodeToKeyval is the inverse of KeyvalToCode for printable characters.
func CodeToKeyval(code byte) uint32 {
	switch code {
	case ime.KeyBackspace:
		return KeyBackSpace
	case ime.KeyDelete:
		return KeyDelete
	}
	return uint32(code)
}

func stickyCode(keyval uint32) (byte, bool) {
	switch keyval {
	case KeyShiftL, KeyShiftR:
		return ime.KeyStickyShift, true
	case KeyControlL, KeyControlR:
		return ime.KeyStickyCtrl, true
	case KeyAltL, KeyAltR:
		return ime.KeyStickyAlt, true
	}
	return 0, false
}

// modifierMask returns the IBus state bits for the engine's ctrl and alt
// latches.
func modifierMask(mods ime.Modifiers) uint32 {
	var state uint32
	if mods.Has(ime.ModCtrl) {
		state |= ControlMask
	}
	if mods.Has(ime.ModAlt) {
		state |= Mod1Mask
	}
	return state
}
