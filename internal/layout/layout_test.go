package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		input    string
		expected Variant
		hasError bool
	}{
		{"wide", Wide, false},
		{"WIDE", Wide, false},
		{"", Wide, false},
		{"left", Left, false},
		{" Right ", Right, false},
		{"middle", Wide, true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			v, err := ParseVariant(tc.input)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestVariantStringRoundTrip(t *testing.T) {
	for _, v := range Variants() {
		parsed, err := ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
		assert.True(t, v.Valid())
	}
	assert.False(t, Variant(7).Valid())
	assert.Equal(t, "variant(7)", Variant(7).String())
}

func TestDigitMirroring(t *testing.T) {
	digits := map[byte]byte{'1': '0', '2': '9', '3': '8', '4': '7', '5': '6'}
	for l, r := range digits {
		assert.Equal(t, r, Resolve(Wide, l), "wide %c", l)
		assert.Equal(t, l, Resolve(Wide, r), "wide %c", r)
		assert.Equal(t, r, Resolve(Left, l), "left %c", l)
		assert.Equal(t, l, Resolve(Right, r), "right %c", r)
	}
}

// Left and Right are direction-fixed, so they invert each other only on the
// side each one moves: Right undoes Left on left-hand keys and Left undoes
// Right on right-hand keys. Right(Left('p')) is 'q', not 'p'.
func TestLeftIsInverseOfRight(t *testing.T) {
	moved := 0
	for c := 0x20; c <= 0x7e; c++ {
		code := byte(c)
		switch Hand(code) {
		case LeftHand:
			mirrored := Resolve(Left, code)
			assert.NotEqual(t, code, mirrored, "left-hand %q not mirrored", code)
			assert.Equal(t, RightHand, Hand(mirrored))
			assert.Equal(t, code, Resolve(Right, mirrored), "Right(Left(%q))", code)
			moved++
		case RightHand:
			mirrored := Resolve(Right, code)
			assert.Equal(t, code, Resolve(Left, mirrored), "Left(Right(%q))", code)
			assert.Equal(t, code, Resolve(Left, code), "Left moved right-hand %q", code)
		default:
			assert.Equal(t, code, Resolve(Left, code))
			assert.Equal(t, code, Resolve(Right, code))
		}
	}
	assert.NotZero(t, moved)
}

func TestDirectionFixedVariants(t *testing.T) {
	// Left never moves a right-hand key, Right never moves a left-hand key.
	assert.Equal(t, byte(';'), Resolve(Left, 'a'))
	assert.Equal(t, byte('p'), Resolve(Left, 'p'))
	assert.Equal(t, byte('q'), Resolve(Right, 'p'))
	assert.Equal(t, byte('a'), Resolve(Right, 'a'))
}

func TestWideIsInvolution(t *testing.T) {
	for c := 0; c < 256; c++ {
		code := byte(c)
		assert.Equal(t, code, Resolve(Wide, Resolve(Wide, code)), "code %d", c)
	}
}

func TestResolveTotal(t *testing.T) {
	unmapped := []byte{0, 8, ' ', '-', '=', '[', '\'', 127, 0xF1, 0xFF}
	for _, v := range append(Variants(), Variant(42)) {
		for _, c := range unmapped {
			assert.Equal(t, c, Resolve(v, c), "%s %d", v, c)
		}
	}
	assert.Equal(t, byte('a'), Resolve(Variant(42), 'a'))
}

func TestHand(t *testing.T) {
	assert.Equal(t, LeftHand, Hand('q'))
	assert.Equal(t, LeftHand, Hand('B'))
	assert.Equal(t, RightHand, Hand(';'))
	assert.Equal(t, RightHand, Hand('?'))
	assert.Equal(t, NoHand, Hand(' '))
	assert.Equal(t, "right", RightHand.String())
}

func TestShift(t *testing.T) {
	tests := map[byte]byte{
		'a': 'A', 'z': 'Z', '1': '!', '0': ')', '-': '_',
		'[': '{', '/': '?', '\'': '"', '`': '~',
	}
	for in, want := range tests {
		got, ok := Shift(in)
		assert.True(t, ok, "%q", in)
		assert.Equal(t, want, got, "%q", in)
	}

	for _, c := range []byte{'A', ' ', '!', 8, 0} {
		_, ok := Shift(c)
		assert.False(t, ok, "%q", c)
	}
}

func TestMirrorString(t *testing.T) {
	assert.Equal(t, ";lkj", MirrorString(Wide, "asdf"))
	assert.Equal(t, "asdf", MirrorString(Wide, ";lkj"))
	assert.Equal(t, "qwws", MirrorString(Right, "pool"))
	assert.Equal(t, "pool", MirrorString(Left, "qwws"))
	assert.Equal(t, "", MirrorString(Left, ""))
}
