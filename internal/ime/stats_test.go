package ime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"halfqwerty/internal/layout"
)

func TestTypingStatsAccuracy(t *testing.T) {
	ic, clock := newTestContext(t, layout.Wide)

	ic.StartTypingTest()
	for _, c := range []byte("helloworld") {
		clock.Advance(100)
		ic.Process(c)
	}
	ic.Process(KeyBackspace)
	ic.Process(KeyDelete)
	ic.EndTypingTest()

	stats := ic.TypingStats()
	assert.False(t, stats.Active)
	assert.Equal(t, 10, stats.TotalChars)
	assert.Equal(t, 2, stats.Errors)
	assert.InDelta(t, 80.0, stats.Accuracy(), 1e-9)
	assert.Equal(t, time.Second, stats.Elapsed)
	// 2 words in 1/60 minute
	assert.InDelta(t, 120.0, stats.WPM(), 1e-9)
}

func TestTypingStatsMirrorCount(t *testing.T) {
	ic, _ := newTestContext(t, layout.Wide)
	ic.StartTypingTest()

	ic.ProcessKeyDown(' ')
	ic.ProcessKeyDown('a')
	ic.ProcessKeyDown('s')
	ic.ProcessKeyUp(' ')
	ic.ProcessKeyDown('d')
	ic.ProcessKeyDown(' ')
	ic.ProcessKeyUp(' ')

	stats := ic.TypingStats()
	assert.Equal(t, 4, stats.TotalChars, "two mirrored, one plain, one space")
	assert.Equal(t, 2, stats.MirrorChars)
	assert.InDelta(t, 0.5, stats.MirrorRatio(), 1e-9)
}

func TestTypingStatsIdentityMirrorNotCounted(t *testing.T) {
	ic, _ := newTestContext(t, layout.Left)
	ic.StartTypingTest()

	ic.Process('a') // → ';'
	ic.Process('p') // right-hand key, unchanged under Left
	stats := ic.TypingStats()
	assert.Equal(t, 2, stats.TotalChars)
	assert.Equal(t, 1, stats.MirrorChars)
}

func TestTypingStatsInactive(t *testing.T) {
	ic, _ := newTestContext(t, layout.Wide)
	ic.Process('a')
	ic.Process(KeyBackspace)

	stats := ic.TypingStats()
	assert.Equal(t, 0, stats.TotalChars)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, 0.0, stats.WPM())
	assert.Equal(t, 0.0, stats.Accuracy())
	assert.Equal(t, 0.0, stats.MirrorRatio())
}

func TestTypingStatsActiveElapsed(t *testing.T) {
	ic, clock := newTestContext(t, layout.Wide)
	ic.StartTypingTest()
	clock.Advance(1500)
	stats := ic.TypingStats()
	assert.True(t, stats.Active)
	assert.Equal(t, 1500*time.Millisecond, stats.Elapsed)
}

func TestEndTypingTestWithoutStart(t *testing.T) {
	ic, clock := newTestContext(t, layout.Wide)
	ic.EndTypingTest()
	clock.Advance(1000)
	stats := ic.TypingStats()
	assert.False(t, stats.Active)
	assert.Equal(t, time.Duration(0), stats.Elapsed)
}

func TestEndTypingTestFreezesElapsed(t *testing.T) {
	ic, clock := newTestContext(t, layout.Wide)
	ic.StartTypingTest()
	clock.Advance(2000)
	ic.EndTypingTest()
	clock.Advance(9000)
	ic.EndTypingTest()
	assert.Equal(t, 2*time.Second, ic.TypingStats().Elapsed)
}

func TestAccuracyNeverNegative(t *testing.T) {
	s := TypingStats{TotalChars: 2, Errors: 5}
	assert.Equal(t, 0.0, s.Accuracy())
}

func TestResetTypingStats(t *testing.T) {
	ic, clock := newTestContext(t, layout.Wide)
	ic.StartTypingTest()
	ic.Process('a')
	clock.Advance(100)
	ic.ResetTypingStats()

	assert.Equal(t, TypingStats{}, ic.TypingStats())
	ic.Process('a')
	assert.Equal(t, 0, ic.TypingStats().TotalChars)
}

func TestStartTypingTestResetsCounters(t *testing.T) {
	ic, _ := newTestContext(t, layout.Wide)
	ic.StartTypingTest()
	ic.Process('a')
	ic.StartTypingTest()
	assert.Equal(t, 0, ic.TypingStats().TotalChars)
}
