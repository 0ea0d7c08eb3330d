package ime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halfqwerty/internal/layout"
)

func TestStickyShiftUppercasesNextLetter(t *testing.T) {
	ic, _ := newTestContext(t, layout.Wide)

	require.True(t, ic.Process(KeyStickyShift))
	assert.Equal(t, "", ic.CommitString())
	assert.True(t, ic.ShiftSticky())

	ic.Process('a')
	assert.Equal(t, "A", ic.CommitString())
	assert.False(t, ic.ShiftSticky(), "latch is one-shot")

	ic.Process('a')
	assert.Equal(t, "a", ic.CommitString())
}

func TestStickyShiftSymbol(t *testing.T) {
	tests := []struct {
		in   byte
		want string
	}{
		{'1', "!"}, {'-', "_"}, {'[', "{"}, {'/', "?"}, {'=', "+"},
	}
	for _, tc := range tests {
		ic, _ := newTestContext(t, layout.Wide)
		ic.Process(KeyStickyShift)
		ic.Process(tc.in)
		assert.Equal(t, tc.want, ic.CommitString(), "%q", tc.in)
		assert.False(t, ic.ShiftSticky())
	}
}

func TestStickyShiftAppliesAfterMirror(t *testing.T) {
	ic, _ := newTestContext(t, layout.Wide)

	ic.Process(KeyStickyShift)
	ic.ProcessKeyDown(' ')
	ic.ProcessKeyDown('f')
	assert.Equal(t, "J", ic.CommitString())

	ic.Process(KeyStickyShift)
	ic.ProcessKeyDown('a')
	// a mirrors to ';' which shifts to ':'
	assert.Equal(t, ":", ic.CommitString())
}

func TestStickyShiftSurvivesUntransformable(t *testing.T) {
	ic, clock := newTestContext(t, layout.Wide)

	ic.Process(KeyStickyShift)
	ic.Process('!')
	assert.Equal(t, "!", ic.CommitString())
	assert.True(t, ic.ShiftSticky())

	// a chord space does not consume it either
	ic.Process(' ')
	clock.Advance(DefaultSpaceTimeout)
	ic.Tick()
	assert.Equal(t, " ", ic.CommitString())
	assert.True(t, ic.ShiftSticky())

	// backspace is emitted verbatim and leaves the latch
	ic.Process(KeyBackspace)
	assert.Equal(t, "\b", ic.CommitString())
	assert.True(t, ic.ShiftSticky())

	ic.Process('b')
	assert.Equal(t, "B", ic.CommitString())
	assert.False(t, ic.ShiftSticky())
}

func TestStickyToggleTwiceDisarms(t *testing.T) {
	ic, _ := newTestContext(t, layout.Wide)
	ic.Process(KeyStickyShift)
	ic.Process(KeyStickyShift)
	assert.False(t, ic.ShiftSticky())
	ic.Process('a')
	assert.Equal(t, "a", ic.CommitString())
}

func TestCtrlAltLatchesAreReportedNotApplied(t *testing.T) {
	ic, _ := newTestContext(t, layout.Wide)

	ic.Process(KeyStickyCtrl)
	ic.ProcessKeyDown(KeyStickyAlt)
	assert.Equal(t, ModCtrl|ModAlt, ic.Modifiers())
	assert.Equal(t, "ctrl+alt", ic.Modifiers().String())

	ic.Process('c')
	assert.Equal(t, "c", ic.CommitString())
	assert.True(t, ic.CtrlSticky())
	assert.True(t, ic.AltSticky())

	ic.ClearCtrlAlt()
	assert.Equal(t, Modifiers(0), ic.Modifiers())
	assert.Equal(t, "none", ic.Modifiers().String())
}

func TestStickyToggleDoesNotTouchChord(t *testing.T) {
	ic, _ := newTestContext(t, layout.Wide)

	ic.Process(' ')
	ic.Process(KeyStickyShift)
	assert.True(t, ic.ChordPending())
	assert.False(t, ic.IsSpaceUsed())

	ic.ProcessKeyDown(' ')
	ic.ProcessKeyDown(KeyStickyAlt)
	assert.True(t, ic.IsSpaceDown())
	assert.False(t, ic.IsSpaceUsed())
	ic.ProcessKeyUp(' ')
	assert.Equal(t, " ", ic.CommitString())
}

func TestStickyDisabled(t *testing.T) {
	ic := New(layout.Wide, WithStickyKeys(false))

	assert.False(t, ic.Process(KeyStickyShift))
	assert.False(t, ic.ShiftSticky())
	ic.SetShiftSticky(true)
	ic.SetCtrlSticky(true)
	ic.SetAltSticky(true)
	assert.Equal(t, Modifiers(0), ic.Modifiers())

	ic.SetStickyKeysEnabled(true)
	ic.SetShiftSticky(true)
	ic.SetAltSticky(true)
	assert.Equal(t, ModShift|ModAlt, ic.Modifiers())

	ic.SetStickyKeysEnabled(false)
	assert.Equal(t, Modifiers(0), ic.Modifiers(), "disabling clears latches")
}

func TestStickyCodesAreNotCounted(t *testing.T) {
	ic, _ := newTestContext(t, layout.Left)
	ic.StartTypingTest()
	ic.Process(KeyStickyShift)
	ic.Process(KeyStickyCtrl)
	assert.Equal(t, 0, ic.TypingStats().TotalChars)
}
