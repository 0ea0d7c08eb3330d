package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"halfqwerty/internal/config"
)

func cmdConfig(args []string) {
	if len(args) < 1 {
		fatalf("Usage: halfqwertyctl config init|show|check")
	}
	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("config init", flag.ExitOnError)
		force := fs.Bool("force", false, "overwrite an existing file")
		fs.Parse(args[1:])

		if _, err := os.Stat(path); err == nil && !*force {
			fatalf("Config already exists: %s (use -force to overwrite)", path)
		}
		cfg := config.DefaultConfig()
		if err := config.SaveConfig(cfg, path); err != nil {
			fatalf("Error writing config: %v", err)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			fatalf("Error creating directories: %v", err)
		}
		fmt.Printf("Wrote %s\n", path)

	case "show":
		cfg := loadConfig()
		data, err := config.Encode(cfg, filepath.Ext(path))
		if err != nil {
			fatalf("Error encoding config: %v", err)
		}
		os.Stdout.Write(data)

	case "check":
		if _, err := config.NewLoader(path).Load(); err != nil {
			var verrs config.ValidationErrors
			if errors.As(err, &verrs) {
				fmt.Fprintf(os.Stderr, "%s: %d problem(s)\n", path, len(verrs))
				for _, e := range verrs {
					fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Field, e.Message)
				}
				os.Exit(1)
			}
			fatalf("%s: %v", path, err)
		}
		fmt.Printf("%s: OK\n", path)

	default:
		fatalf("Unknown config command: %s", args[0])
	}
}
