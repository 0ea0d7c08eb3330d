// halfqwertyctl is the control CLI for halfqwerty.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"halfqwerty/internal/config"
	"halfqwerty/internal/layout"
	"halfqwerty/internal/logging"
	"halfqwerty/internal/store"
)

var (
	configPath = flag.String("config", "", "path to config file")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	switch cmd {
	case "status":
		cmdStatus()
	case "mirror":
		cmdMirror(args)
	case "try":
		cmdTry(args)
	case "history":
		cmdHistory(args)
	case "summary":
		cmdSummary()
	case "export":
		cmdExport(args)
	case "validate":
		cmdValidate(args)
	case "prune":
		cmdPrune(args)
	case "config":
		cmdConfig(args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `halfqwertyctl - Control utility for halfqwerty

Usage: halfqwertyctl [options] <command> [args]

Commands:
  status                       Show engine, configuration and result status
  mirror [-layout v] <text>    Print text as typed with the space chord held
  try [-layout v]              Type through the engine in this terminal
  history [-n N]               Show recent typing results
  summary                      Show aggregate typing statistics
  export <out.json>            Export all results as JSON
  validate <file.json>         Check an export file against its schema
  prune -older-than <dur>      Delete results older than a duration
  config init|show|check       Create, print or validate the configuration
  help                         Show this help message

Options:
  -config <path>  Path to config file (default: `+config.ConfigPath()+`)`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func loadConfig() *config.Config {
	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		fatalf("Error loading config: %v", err)
	}
	return cfg
}

// newLogger returns the CLI logger. Anything below warnings stays out of the
// user's terminal.
func newLogger(cfg *config.Config) *logging.Logger {
	logCfg, err := logging.FromSettings(cfg.Logging, "ctl")
	if err != nil {
		fatalf("Error configuring logging: %v", err)
	}
	if logCfg.Output != "file" && logCfg.Level < logging.LevelWarn {
		logCfg.Level = logging.LevelWarn
	}
	log, err := logging.New(logCfg)
	if err != nil {
		fatalf("Error configuring logging: %v", err)
	}
	return log
}

func openStore(cfg *config.Config) *store.Store {
	db, err := store.Open(cfg.Storage.Path,
		store.WithBusyTimeout(time.Duration(cfg.Storage.BusyTimeoutMs)*time.Millisecond))
	if err != nil {
		fatalf("Error opening result database: %v", err)
	}
	return db
}

// layoutFlag registers -layout on fs.
func layoutFlag(fs *flag.FlagSet) *string {
	return fs.String("layout", "", "keyboard layout: wide, left or right (default from config)")
}

// resolveLayout picks the -layout value or the configured layout.
func resolveLayout(name string, cfg *config.Config) layout.Variant {
	if name == "" {
		return cfg.Variant()
	}
	v, err := layout.ParseVariant(name)
	if err != nil {
		fatalf("%v", err)
	}
	return v
}

func cmdMirror(args []string) {
	fs := flag.NewFlagSet("mirror", flag.ExitOnError)
	name := layoutFlag(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatalf("Usage: halfqwertyctl mirror [-layout v] <text>")
	}
	v := resolveLayout(*name, loadConfig())
	for i, text := range fs.Args() {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(layout.MirrorString(v, text))
	}
	fmt.Println()
}
