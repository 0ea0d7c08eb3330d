package store

import (
	"errors"
	"time"

	"halfqwerty/internal/ime"
)

// ErrNotFound is returned when a requested result does not exist.
var ErrNotFound = errors.New("store: not found")

// Sources of a stored result.
const (
	SourceTutor = "tutor"
	SourceTry   = "try"
)

// Result is one completed typing test.
type Result struct {
	ID          int64         `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Layout      string        `json:"layout"`
	Source      string        `json:"source"`
	TotalChars  int           `json:"total_chars"`
	MirrorChars int           `json:"mirror_chars"`
	Errors      int           `json:"errors"`
	WPM         float64       `json:"wpm"`
	Accuracy    float64       `json:"accuracy"`
}

// NewResult builds a Result from a typing-test snapshot. The derived WPM and
// accuracy figures are frozen at this point.
func NewResult(stats ime.TypingStats, layoutName, source string, startedAt time.Time) *Result {
	return &Result{
		StartedAt:   startedAt,
		Elapsed:     stats.Elapsed,
		Layout:      layoutName,
		Source:      source,
		TotalChars:  stats.TotalChars,
		MirrorChars: stats.MirrorChars,
		Errors:      stats.Errors,
		WPM:         stats.WPM(),
		Accuracy:    stats.Accuracy(),
	}
}

// Summary aggregates all stored results.
type Summary struct {
	Count       int            `json:"count"`
	TotalChars  int            `json:"total_chars"`
	BestWPM     float64        `json:"best_wpm"`
	AverageWPM  float64        `json:"average_wpm"`
	AverageAcc  float64        `json:"average_accuracy"`
	ByLayout    map[string]int `json:"by_layout"`
	FirstResult time.Time      `json:"first_result,omitempty"`
	LastResult  time.Time      `json:"last_result,omitempty"`
}
