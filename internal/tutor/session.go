// Package tutor is a typing trainer for the Half-QWERTY engine. A Session
// tracks one practice line; UI puts it on a terminal.
package tutor

import (
	"time"

	"halfqwerty/internal/ime"
	"halfqwerty/internal/layout"
	"halfqwerty/internal/store"
)

// Session drives an input context through the single-event protocol while
// the user types a target line. The typing test starts on the first key and
// ends when the typed text matches the target.
type Session struct {
	ic      *ime.InputContext
	variant layout.Variant
	target  string
	typed   []byte

	started   bool
	done      bool
	startedAt time.Time
	result    *store.Result

	now func() time.Time
}

// NewSession starts a session for target. opts configure the input context.
func NewSession(target string, v layout.Variant, opts ...ime.Option) *Session {
	if !v.Valid() {
		v = layout.Wide
	}
	return &Session{
		ic:      ime.New(v, opts...),
		variant: v,
		target:  target,
		now:     time.Now,
	}
}

// Key feeds one key code to the engine and reports whether anything
// changed.
func (s *Session) Key(code byte) bool {
	if s.done {
		return false
	}
	if !s.started && !ime.IsStickyKey(code) && code != ime.KeyNull {
		s.ic.StartTypingTest()
		s.started = true
		s.startedAt = s.now()
	}
	changed := s.ic.Process(code)
	s.apply(s.ic.CommitString())
	return changed
}

// Tick expires a pending chord. It reports whether a space was typed or the
// chord closed.
func (s *Session) Tick() bool {
	if s.done || !s.ic.ChordPending() {
		return false
	}
	changed := s.ic.Tick()
	s.apply(s.ic.CommitString())
	return changed
}

func (s *Session) apply(commit string) {
	for i := 0; i < len(commit); i++ {
		ch := commit[i]
		switch {
		case ime.IsBackspace(ch):
			if len(s.typed) > 0 {
				s.typed = s.typed[:len(s.typed)-1]
			}
		case ime.IsPrintable(ch):
			s.typed = append(s.typed, ch)
		}
	}
	if s.started && string(s.typed) == s.target {
		s.finish()
	}
}

func (s *Session) finish() {
	s.ic.EndTypingTest()
	s.done = true
	s.result = store.NewResult(s.ic.TypingStats(), s.variant.String(), store.SourceTutor, s.startedAt)
}

// Restart discards progress and begins target. Layout, chord window and
// sticky setting are kept.
func (s *Session) Restart(target string) {
	timeout := s.ic.SpaceTimeout()
	s.ic.Reset()
	s.ic.SetSpaceTimeout(timeout)
	s.ic.ResetTypingStats()
	s.target = target
	s.typed = s.typed[:0]
	s.started = false
	s.done = false
	s.result = nil
}

// Target returns the line being practised.
func (s *Session) Target() string { return s.target }

// Typed returns what has been typed so far.
func (s *Session) Typed() string { return string(s.typed) }

// Done reports whether the target was typed.
func (s *Session) Done() bool { return s.done }

// Started reports whether the first key has been typed.
func (s *Session) Started() bool { return s.started }

// Result returns the finished test, or nil while the session is running.
func (s *Session) Result() *store.Result { return s.result }

// Stats returns the live typing statistics.
func (s *Session) Stats() ime.TypingStats { return s.ic.TypingStats() }

// Layout returns the layout variant.
func (s *Session) Layout() layout.Variant { return s.variant }

// Modifiers returns the armed sticky latches.
func (s *Session) Modifiers() ime.Modifiers { return s.ic.Modifiers() }

// ChordPending reports whether the space chord is open.
func (s *Session) ChordPending() bool { return s.ic.ChordPending() }

// Correct returns the length of the prefix of Typed that matches Target.
func (s *Session) Correct() int {
	n := 0
	for n < len(s.typed) && n < len(s.target) && s.typed[n] == s.target[n] {
		n++
	}
	return n
}

// Close releases the input context.
func (s *Session) Close() {
	s.ic.Close()
}
