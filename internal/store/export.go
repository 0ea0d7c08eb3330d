package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportSchema identifies the export document format.
const ExportSchema = "typing-results-v1"

// Export is the JSON document written by halfqwertyctl export.
type Export struct {
	Schema     string         `json:"schema"`
	ExportedAt time.Time      `json:"exported_at"`
	Results    []ExportResult `json:"results"`
}

// ExportResult is the exported form of a Result.
type ExportResult struct {
	ID          int64     `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	Layout      string    `json:"layout"`
	Source      string    `json:"source"`
	TotalChars  int       `json:"total_chars"`
	MirrorChars int       `json:"mirror_chars"`
	Errors      int       `json:"errors"`
	WPM         float64   `json:"wpm"`
	Accuracy    float64   `json:"accuracy"`
}

// NewExport builds an export document. Timestamps are written in UTC.
func NewExport(results []Result, now time.Time) *Export {
	doc := &Export{
		Schema:     ExportSchema,
		ExportedAt: now.UTC().Truncate(time.Second),
		Results:    make([]ExportResult, 0, len(results)),
	}
	for _, r := range results {
		doc.Results = append(doc.Results, ExportResult{
			ID:          r.ID,
			StartedAt:   r.StartedAt.UTC(),
			ElapsedMs:   r.Elapsed.Milliseconds(),
			Layout:      r.Layout,
			Source:      r.Source,
			TotalChars:  r.TotalChars,
			MirrorChars: r.MirrorChars,
			Errors:      r.Errors,
			WPM:         r.WPM,
			Accuracy:    r.Accuracy,
		})
	}
	return doc
}

// Marshal encodes the document as indented JSON.
func (e *Export) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFileAtomic writes data to path through a temp file and rename, so a
// reader never sees a partial export.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}
