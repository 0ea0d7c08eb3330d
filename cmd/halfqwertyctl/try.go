package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"halfqwerty/internal/ime"
	"halfqwerty/internal/store"
)

const (
	ctrlC = 0x03
	ctrlD = 0x04
	esc   = 0x1b
)

func cmdTry(args []string) {
	fs := flag.NewFlagSet("try", flag.ExitOnError)
	name := layoutFlag(fs)
	noSave := fs.Bool("no-save", false, "do not store the result")
	fs.Parse(args)

	cfg := loadConfig()
	v := resolveLayout(*name, cfg)
	log := newLogger(cfg)
	defer log.Close()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fatalf("try needs an interactive terminal")
	}

	opts := append(cfg.EngineOptions(), ime.WithLogger(log.Logger))
	ic := ime.New(v, opts...)
	defer ic.Close()

	fmt.Printf("Typing with the %s layout. Hold space (tap, then type) to mirror. Ctrl-C or Ctrl-D ends.\n", v)

	state, err := term.MakeRaw(fd)
	if err != nil {
		fatalf("Error enabling raw mode: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	startedAt := time.Now()
	stats := tryLoop(ctx, readBytes(ctx, os.Stdin), os.Stdout, ic, cfg.TickInterval())
	cancel()
	if err := term.Restore(fd, state); err != nil {
		log.Warn("restore terminal", "error", err)
	}

	fmt.Println()
	printStats(stats)

	if *noSave || stats.TotalChars == 0 {
		return
	}
	db := openStore(cfg)
	defer db.Close()
	if _, err := db.InsertResult(store.NewResult(stats, v.String(), store.SourceTry, startedAt)); err != nil {
		fatalf("Error saving result: %v", err)
	}
}

// readBytes streams r one byte at a time until it fails or ctx is done.
// Once ctx is done no further input is read, so the terminal gets it back.
func readBytes(ctx context.Context, r io.Reader) <-chan byte {
	ch := make(chan byte, 64)
	go func() {
		defer close(ch)
		buf := make([]byte, 64)
		for waitReadable(ctx, r) {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				select {
				case ch <- b:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// tryLoop feeds raw terminal bytes through the single-event protocol and
// echoes the committed text to out. It returns the typing statistics when
// the input ends, Ctrl-C or Ctrl-D arrives, or ctx is done.
func tryLoop(ctx context.Context, in <-chan byte, out io.Writer, ic *ime.InputContext, tick time.Duration) ime.TypingStats {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	started := false
	for {
		select {
		case <-ctx.Done():
			return finishTry(ic)
		case <-ticker.C:
			if ic.Tick() {
				echo(out, ic.CommitString())
			}
		case b, ok := <-in:
			if !ok || b == ctrlC || b == ctrlD {
				return finishTry(ic)
			}
			switch {
			case b == '\r' || b == '\n':
				ic.ResetSpaceState()
				io.WriteString(out, "\r\n")
				continue
			case b == esc:
				// arrow keys and the like arrive as escape sequences
				continue
			}
			if !started && (ime.IsPrintable(b) || ime.IsBackspace(b)) {
				ic.StartTypingTest()
				started = true
			}
			if ic.Process(b) {
				echo(out, ic.CommitString())
			}
		}
	}
}

func finishTry(ic *ime.InputContext) ime.TypingStats {
	ic.EndTypingTest()
	return ic.TypingStats()
}

// echo writes committed text, turning backspaces into terminal erases.
func echo(out io.Writer, commit string) {
	for i := 0; i < len(commit); i++ {
		c := commit[i]
		switch {
		case ime.IsBackspace(c):
			io.WriteString(out, "\b \b")
		case ime.IsPrintable(c):
			out.Write([]byte{c})
		}
	}
}

func printStats(s ime.TypingStats) {
	fmt.Printf("Characters:  %d (%d mirrored, %.0f%%)\n", s.TotalChars, s.MirrorChars, s.MirrorRatio()*100)
	fmt.Printf("Corrections: %d\n", s.Errors)
	fmt.Printf("Time:        %s\n", s.Elapsed.Round(100*time.Millisecond))
	fmt.Printf("Speed:       %.1f wpm\n", s.WPM())
	fmt.Printf("Accuracy:    %.1f%%\n", s.Accuracy())
}
