// halfqwerty-tutor is a terminal typing trainer for Half-QWERTY. Finished
// lines are saved to the result database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"halfqwerty/internal/config"
	"halfqwerty/internal/layout"
	"halfqwerty/internal/logging"
	"halfqwerty/internal/store"
	"halfqwerty/internal/tutor"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	layoutFlag := flag.String("layout", "", "keyboard layout: wide, left or right")
	words := flag.Int("words", 0, "words per line")
	noSave := flag.Bool("no-save", false, "do not store results")
	flag.Parse()

	if err := run(*configPath, *layoutFlag, *words, *noSave); err != nil {
		fmt.Fprintf(os.Stderr, "halfqwerty-tutor: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, layoutName string, words int, noSave bool) error {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if layoutName != "" {
		if _, err := layout.ParseVariant(layoutName); err != nil {
			return err
		}
		cfg.Engine.Layout = layoutName
	}
	if words > 0 {
		cfg.Tutor.Words = words
	}

	// The terminal belongs to the tutor; logs go to the file only.
	logCfg, err := logging.FromSettings(cfg.Logging, "tutor")
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if !strings.EqualFold(logCfg.Output, "file") {
		logCfg.Output = "file"
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer log.Close()

	list := tutor.DefaultWords()
	if cfg.Tutor.WordList != "" {
		if list, err = tutor.LoadWordList(cfg.Tutor.WordList); err != nil {
			return err
		}
	}
	gen, err := tutor.NewGenerator(list, uint64(time.Now().UnixNano()))
	if err != nil {
		return err
	}

	opts := tutor.Options{
		Layout:        cfg.Variant(),
		EngineOptions: cfg.EngineOptions(),
		Tick:          cfg.TickInterval(),
		NextLine:      func() string { return gen.Line(cfg.Tutor.Words) },
		Logger:        log.Logger,
	}
	if !noSave {
		db, err := store.Open(cfg.Storage.Path,
			store.WithBusyTimeout(time.Duration(cfg.Storage.BusyTimeoutMs)*time.Millisecond))
		if err != nil {
			return fmt.Errorf("open result database: %w", err)
		}
		defer db.Close()
		opts.OnResult = func(r *store.Result) error {
			_, err := db.InsertResult(r)
			return err
		}
	}

	results, err := runScreen(opts)
	if err != nil {
		return err
	}
	for i, r := range results {
		fmt.Printf("line %d: %.1f wpm, %.1f%% accuracy, %d of %d characters mirrored\n",
			i+1, r.WPM, r.Accuracy, r.MirrorChars, r.TotalChars)
	}
	return nil
}

// runScreen owns the terminal for the lifetime of the tutor.
func runScreen(opts tutor.Options) ([]*store.Result, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	ui := tutor.NewUI(screen, opts)
	if err := ui.Run(ctx); err != nil {
		return nil, err
	}
	return ui.Results(), nil
}
