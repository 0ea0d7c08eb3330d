package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"
)

// CrashReport describes a recovered panic.
type CrashReport struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	GOOS       string    `json:"goos"`
	GOARCH     string    `json:"goarch"`
	Component  string    `json:"component,omitempty"`
	Operation  string    `json:"operation,omitempty"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
}

// CrashHandler recovers panics in host callbacks. An input method that dies
// takes the user's keyboard with it, so hosts keep running after a panic
// and leave a JSON report behind instead.
type CrashHandler struct {
	mu        sync.Mutex
	dir       string
	version   string
	component string
	logger    *slog.Logger
	seq       int
	onPanic   func(op string)
}

// NewCrashHandler creates a handler writing reports to dir. A nil logger
// discards the log line; the report file is still written.
func NewCrashHandler(dir, component, version string, logger *slog.Logger) *CrashHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CrashHandler{
		dir:       dir,
		version:   version,
		component: component,
		logger:    logger,
	}
}

// Recover must be deferred directly. It swallows a panic in progress and
// records it under op.
//
//	defer crash.Recover("ProcessKeyEvent")
func (h *CrashHandler) Recover(op string) {
	if r := recover(); r != nil {
		h.HandlePanic(op, r)
	}
}

// Guard runs fn and reports whether it completed without panicking.
func (h *CrashHandler) Guard(op string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.HandlePanic(op, r)
			ok = false
		}
	}()
	fn()
	return true
}

// OnPanic registers fn to be called after every recovered panic.
func (h *CrashHandler) OnPanic(fn func(op string)) {
	h.mu.Lock()
	h.onPanic = fn
	h.mu.Unlock()
}

// HandlePanic logs and persists a panic value.
func (h *CrashHandler) HandlePanic(op string, value any) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.onPanic != nil {
		defer h.onPanic(op)
	}

	report := CrashReport{
		Timestamp:  time.Now().UTC(),
		Version:    h.version,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		Component:  h.component,
		Operation:  op,
		PanicValue: fmt.Sprint(value),
		StackTrace: string(debug.Stack()),
	}

	path, err := h.write(report)
	if err != nil {
		h.logger.Error("panic recovered, report not written",
			"op", op, "panic", report.PanicValue, "error", err)
		return
	}
	h.logger.Error("panic recovered", "op", op, "panic", report.PanicValue, "report", path)
}

func (h *CrashHandler) write(report CrashReport) (string, error) {
	if h.dir == "" {
		return "", fmt.Errorf("no crash directory")
	}
	if err := os.MkdirAll(h.dir, 0750); err != nil {
		return "", fmt.Errorf("create crash directory: %w", err)
	}

	h.seq++
	name := fmt.Sprintf("crash-%s-%s-%d.json",
		h.component, report.Timestamp.Format("20060102-150405"), h.seq)
	path := filepath.Join(h.dir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// Reports returns stored crash reports, oldest first.
func (h *CrashHandler) Reports() ([]CrashReport, error) {
	files, err := filepath.Glob(filepath.Join(h.dir, "crash-*.json"))
	if err != nil {
		return nil, err
	}

	reports := make([]CrashReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var report CrashReport
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Timestamp.Before(reports[j].Timestamp)
	})
	return reports, nil
}

// Cleanup removes reports older than maxAge.
func (h *CrashHandler) Cleanup(maxAge time.Duration) error {
	files, err := filepath.Glob(filepath.Join(h.dir, "crash-*.json"))
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(file)
		}
	}
	return nil
}
