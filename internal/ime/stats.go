package ime

import "time"

// typingTest accumulates counters while a typing test is running.
type typingTest struct {
	active      bool
	totalChars  int
	mirrorChars int
	errors      int
	startMs     int64
	endMs       int64
}

// TypingStats is a snapshot of the typing-test counters.
type TypingStats struct {
	Active      bool          `json:"active"`
	TotalChars  int           `json:"total_chars"`
	MirrorChars int           `json:"mirror_chars"`
	Errors      int           `json:"errors"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

// WPM returns words per minute, counting five characters as a word.
func (s TypingStats) WPM() float64 {
	minutes := s.Elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	return (float64(s.TotalChars) / 5) / minutes
}

// Accuracy returns the percentage of committed characters that were not
// erased again. It is 0 when nothing was typed and never negative.
func (s TypingStats) Accuracy() float64 {
	if s.TotalChars == 0 {
		return 0
	}
	acc := float64(s.TotalChars-s.Errors) / float64(s.TotalChars) * 100
	if acc < 0 {
		return 0
	}
	return acc
}

// MirrorRatio returns the share of characters produced by mirroring.
func (s TypingStats) MirrorRatio() float64 {
	if s.TotalChars == 0 {
		return 0
	}
	return float64(s.MirrorChars) / float64(s.TotalChars)
}

// StartTypingTest resets the counters and starts timing.
func (c *InputContext) StartTypingTest() {
	if c.unusable() {
		return
	}
	c.test = typingTest{
		active:  true,
		startMs: c.clock.NowMillis(),
	}
	c.logger.Debug("typing test started")
}

// EndTypingTest stops timing. It does nothing if no test is running.
func (c *InputContext) EndTypingTest() {
	if c.unusable() || !c.test.active {
		return
	}
	c.test.endMs = c.clock.NowMillis()
	c.test.active = false
	c.logger.Debug("typing test ended",
		"chars", c.test.totalChars, "errors", c.test.errors)
}

// ResetTypingStats clears the counters and stops any running test.
func (c *InputContext) ResetTypingStats() {
	if c.unusable() {
		return
	}
	c.test = typingTest{}
}

// TypingStats returns the current counters. While a test is running the
// elapsed time is measured against the clock.
func (c *InputContext) TypingStats() TypingStats {
	if c.unusable() {
		return TypingStats{}
	}
	end := c.test.endMs
	if c.test.active {
		end = c.clock.NowMillis()
	}
	var elapsed time.Duration
	if d := end - c.test.startMs; d > 0 {
		elapsed = time.Duration(d) * time.Millisecond
	}
	return TypingStats{
		Active:      c.test.active,
		TotalChars:  c.test.totalChars,
		MirrorChars: c.test.mirrorChars,
		Errors:      c.test.errors,
		Elapsed:     elapsed,
	}
}

// tally records a committed character in the running test.
func (c *InputContext) tally(ch byte, mirrored bool) {
	if !c.test.active {
		return
	}
	if IsBackspace(ch) {
		c.test.errors++
		return
	}
	if !IsPrintable(ch) {
		return
	}
	c.test.totalChars++
	if mirrored {
		c.test.mirrorChars++
	}
}
