package ime

// CommitCapacity is the maximum number of bytes one Process call can commit.
const CommitCapacity = 63

// commitBuffer holds the characters resolved by the current Process call.
type commitBuffer struct {
	buf [CommitCapacity]byte
	n   int
}

// reset empties the buffer.
func (b *commitBuffer) reset() {
	b.n = 0
}

// push appends ch. It reports false and drops ch when the buffer is full.
func (b *commitBuffer) push(ch byte) bool {
	if b.n >= CommitCapacity {
		return false
	}
	b.buf[b.n] = ch
	b.n++
	return true
}

func (b *commitBuffer) len() int {
	return b.n
}

func (b *commitBuffer) String() string {
	return string(b.buf[:b.n])
}
