package ime

// Key codes understood by InputContext. Everything else is treated as an
// ordinary character key.
const (
	// KeyNull is the host "tick": no key, just a chance to expire a chord.
	KeyNull byte = 0x00
	// KeyBackspace and KeyDelete both erase the previous character.
	KeyBackspace byte = 0x08
	KeyDelete    byte = 0x7F
	KeySpace     byte = ' '

	// Virtual codes that toggle the sticky modifier latches.
	KeyStickyCtrl  byte = 0xF1
	KeyStickyShift byte = 0xF2
	KeyStickyAlt   byte = 0xF3
)

// IsBackspace reports whether code erases a character.
func IsBackspace(code byte) bool {
	return code == KeyBackspace || code == KeyDelete
}

// IsStickyKey reports whether code is one of the sticky-modifier toggles.
func IsStickyKey(code byte) bool {
	return code == KeyStickyCtrl || code == KeyStickyShift || code == KeyStickyAlt
}

// IsPrintable reports whether code is a printable ASCII character.
func IsPrintable(code byte) bool {
	return code >= 0x20 && code <= 0x7E
}
