// Package ime is the Half-QWERTY keystroke resolution engine.
//
// # Architecture Overview
//
// A Half-QWERTY keyboard lets a single hand type the whole alphabet. Keys
// typed normally produce themselves; keys typed while space is held (a
// "chord") produce the key in the mirrored position on the other half of the
// keyboard. InputContext turns a stream of 8-bit key codes into committed
// characters:
//
//	Key Event → Classify → Mirror → Sticky → Commit Buffer → Host
//	                ↓
//	     [chord / sticky state]
//	                ↓
//	          Typing statistics
//
// # Protocols
//
// Hosts deliver keys in one of two ways, both driving the same chord state:
//
//	┌──────────────┬───────────────────────────────┬──────────────────────────┐
//	│ Protocol     │ Entry points                  │ Chord ends when          │
//	├──────────────┼───────────────────────────────┼──────────────────────────┤
//	│ single-event │ Process, Tick                 │ window expires, space    │
//	│              │                               │ struck again, or (Left/  │
//	│              │                               │ Right) one key mirrored  │
//	│ explicit     │ ProcessKeyDown, ProcessKeyUp  │ space released           │
//	└──────────────┴───────────────────────────────┴──────────────────────────┘
//
// In the single-event protocol a lone space tap cannot be told apart from the
// start of a chord until either another key arrives (chord) or the window
// expires (space). The engine owns no timer: the host calls Tick often enough
// to notice the expiry.
//
// # Layout Variants
//
//   - Wide: keys are mirrored only inside a chord, in both directions.
//   - Left: every key is mapped toward its right-hand pair.
//   - Right: every key is mapped toward its left-hand pair.
//
// # Sticky Modifiers
//
// The virtual codes KeyStickyShift, KeyStickyCtrl and KeyStickyAlt toggle
// latches. Shift is consumed by the next character it can change; ctrl and
// alt are reported through Modifiers for the host to apply.
//
// # Typing Tests
//
// StartTypingTest/EndTypingTest bracket a timed test; every printable commit
// counts as a character and every backspace as an error.
package ime
