// Package layout holds the Half-QWERTY mirror tables.
//
// A Half-QWERTY keyboard lets one hand reach the whole alphabet: every key
// on the left half of a QWERTY board is paired with the key in the mirrored
// position on the right half (q↔p, a↔;, z↔/, 1↔0, ...). The tables are
// built once at package init and never change, so every function here is
// pure and safe for concurrent use.
package layout

import (
	"fmt"
	"strings"
)

// Variant selects how keys are mirrored.
type Variant int

const (
	// Wide mirrors in both directions, classifying each key by hand.
	Wide Variant = iota
	// Left always maps a left-hand key to its right-hand pair.
	Left
	// Right always maps a right-hand key to its left-hand pair.
	Right
)

// String returns the configuration name of the variant.
func (v Variant) String() string {
	switch v {
	case Wide:
		return "wide"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	return v == Wide || v == Left || v == Right
}

// ParseVariant parses a variant name as used in configuration files.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wide", "both", "":
		return Wide, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Wide, fmt.Errorf("unknown layout variant: %q", s)
	}
}

// Variants lists all variants in declaration order.
func Variants() []Variant {
	return []Variant{Wide, Left, Right}
}

// HandSide classifies a key by the hand that types it on a full keyboard.
type HandSide int

const (
	NoHand HandSide = iota
	LeftHand
	RightHand
)

func (h HandSide) String() string {
	switch h {
	case LeftHand:
		return "left"
	case RightHand:
		return "right"
	default:
		return "none"
	}
}

// pair is one entry of the mirror table.
type pair struct {
	left  byte
	right byte
}

var pairs = [...]pair{
	// top row
	{'q', 'p'}, {'w', 'o'}, {'e', 'i'}, {'r', 'u'}, {'t', 'y'},
	// home row
	{'a', ';'}, {'s', 'l'}, {'d', 'k'}, {'f', 'j'}, {'g', 'h'},
	// bottom row
	{'z', '/'}, {'x', '.'}, {'c', ','}, {'v', 'm'}, {'b', 'n'},

	// shifted
	{'Q', 'P'}, {'W', 'O'}, {'E', 'I'}, {'R', 'U'}, {'T', 'Y'},
	{'A', ':'}, {'S', 'L'}, {'D', 'K'}, {'F', 'J'}, {'G', 'H'},
	{'Z', '?'}, {'X', '>'}, {'C', '<'}, {'V', 'M'}, {'B', 'N'},

	// digit row
	{'1', '0'}, {'2', '9'}, {'3', '8'}, {'4', '7'}, {'5', '6'},
}

// shiftPairs is the unshifted → shifted symbol table of a US keyboard.
var shiftPairs = [...]pair{
	{'`', '~'}, {'1', '!'}, {'2', '@'}, {'3', '#'}, {'4', '$'},
	{'5', '%'}, {'6', '^'}, {'7', '&'}, {'8', '*'}, {'9', '('},
	{'0', ')'}, {'-', '_'}, {'=', '+'}, {'[', '{'}, {']', '}'},
	{'\\', '|'}, {';', ':'}, {'\'', '"'}, {',', '<'}, {'.', '>'},
	{'/', '?'},
}

var (
	toRight [256]byte
	toLeft  [256]byte
	hands   [256]HandSide
	shifted [256]byte
)

func init() {
	for i := 0; i < 256; i++ {
		toRight[i] = byte(i)
		toLeft[i] = byte(i)
	}
	for _, p := range pairs {
		toRight[p.left] = p.right
		toLeft[p.right] = p.left
		hands[p.left] = LeftHand
		hands[p.right] = RightHand
	}
	for c := byte('a'); c <= 'z'; c++ {
		shifted[c] = c - 'a' + 'A'
	}
	for _, p := range shiftPairs {
		shifted[p.left] = p.right
	}
}

// Hand returns which hand types code on a full QWERTY keyboard.
// Keys outside the mirror table are NoHand.
func Hand(code byte) HandSide {
	return hands[code]
}

// Resolve returns the key that code mirrors to under variant v.
// Keys without a table entry, and unknown variants, resolve to themselves.
func Resolve(v Variant, code byte) byte {
	switch v {
	case Left:
		return toRight[code]
	case Right:
		return toLeft[code]
	case Wide:
		switch hands[code] {
		case LeftHand:
			return toRight[code]
		case RightHand:
			return toLeft[code]
		}
	}
	return code
}

// Mirrors reports whether Resolve(v, code) changes the key.
func Mirrors(v Variant, code byte) bool {
	return Resolve(v, code) != code
}

// Shift returns the shifted form of code: uppercase for lowercase letters,
// the US-keyboard symbol for digits and punctuation. The second result is
// false when code has no shifted form.
func Shift(code byte) (byte, bool) {
	s := shifted[code]
	return s, s != 0
}

// MirrorString resolves every byte of s under v.
// Bytes outside the ASCII range pass through unchanged.
func MirrorString(v Variant, s string) string {
	b := []byte(s)
	for i, c := range b {
		b[i] = Resolve(v, c)
	}
	return string(b)
}
