package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"halfqwerty/internal/ibus"
	"halfqwerty/internal/store"
)

func cmdStatus() {
	cfg := loadConfig()

	fmt.Println("=== halfqwerty Status ===")
	fmt.Println()

	pid, held, err := ibus.LockHolder(cfg.IBus.LockPath)
	switch {
	case err != nil:
		fmt.Printf("IBus engine:  UNKNOWN (%v)\n", err)
	case held:
		fmt.Printf("IBus engine:  RUNNING (PID %d)\n", pid)
	default:
		fmt.Println("IBus engine:  NOT RUNNING")
	}
	fmt.Printf("Layout:       %s\n", cfg.Engine.Layout)
	fmt.Printf("Protocol:     %s\n", cfg.Engine.Protocol)
	fmt.Printf("Chord window: %s\n", cfg.SpaceTimeout())
	fmt.Printf("Sticky keys:  %t\n", cfg.Engine.StickyKeys)

	component := ibus.ComponentPath(cfg.IBus.ComponentDir, cfg.IBus.EngineName)
	if _, err := os.Stat(component); err == nil {
		fmt.Printf("Component:    %s\n", component)
	} else {
		fmt.Println("Component:    not installed (run halfqwerty-ibus -install)")
	}
	fmt.Println()

	if data, err := os.ReadFile(cfg.IBus.MetricsPath); err == nil && cfg.IBus.MetricsPath != "" {
		fmt.Println("Engine metrics:")
		for _, line := range metricLines(data) {
			fmt.Printf("  %s\n", line)
		}
		fmt.Println()
	}

	if _, err := os.Stat(cfg.Storage.Path); err != nil {
		fmt.Println("Results:      no database yet")
		return
	}
	db := openStore(cfg)
	defer db.Close()
	s, err := db.Summary()
	if err != nil {
		fmt.Printf("Results:      error: %v\n", err)
		return
	}
	fmt.Printf("Results:      %d tests, best %.1f wpm\n", s.Count, s.BestWPM)
	if last, err := db.ListResults(1); err == nil && len(last) == 1 {
		printLast(last[0])
	}
}

func printLast(r store.Result) {
	fmt.Printf("Last test:    %.1f wpm, %.1f%% accuracy (%s, %s)\n",
		r.WPM, r.Accuracy, r.Layout, r.StartedAt.Local().Format("2006-01-02 15:04"))
}

// metricLines returns the samples of a Prometheus text dump, skipping
// comments and histogram buckets.
func metricLines(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.Contains(line, "_bucket{") {
			continue
		}
		out = append(out, line)
	}
	return out
}
