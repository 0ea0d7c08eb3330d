package tutor

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"halfqwerty/internal/ime"
)

//go:embed words.txt
var defaultWordList string

// ErrNoWords is returned when a word list has no usable entries.
var ErrNoWords = errors.New("word list is empty")

// DefaultWords returns the built-in word list.
func DefaultWords() []string {
	words, _ := parseWords(strings.NewReader(defaultWordList))
	return words
}

// LoadWordList reads one word per line from path. Blank lines, lines
// starting with '#', and words that cannot be typed on the engine are
// skipped.
func LoadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	words, err := parseWords(f)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	return words, nil
}

func parseWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if typeable(line) {
			words = append(words, line)
		}
	}
	return words, sc.Err()
}

// typeable reports whether w is printable ASCII without spaces.
func typeable(w string) bool {
	for i := 0; i < len(w); i++ {
		if !ime.IsPrintable(w[i]) || w[i] == ' ' {
			return false
		}
	}
	return true
}

// Generator builds practice lines from a word list.
type Generator struct {
	words []string
	rng   *rand.Rand
}

// NewGenerator creates a generator. The same seed yields the same lines.
func NewGenerator(words []string, seed uint64) (*Generator, error) {
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	return &Generator{
		words: words,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Line returns n random words joined by single spaces.
func (g *Generator) Line(n int) string {
	if n < 1 {
		n = 1
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = g.words[g.rng.IntN(len(g.words))]
	}
	return strings.Join(parts, " ")
}
