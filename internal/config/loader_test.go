package config

import (
	"path/filepath"
	"testing"
	"time"

	"halfqwerty/internal/layout"
)

func TestLoaderWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[engine]\nlayout = \"wide\"\n")

	loader := NewLoader(path)
	defer loader.Close()

	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	changed := make(chan *Config, 4)
	loader.OnChange(func(cfg *Config) { changed <- cfg })

	if err := loader.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, path, "[engine]\nlayout = \"left\"\n")

	select {
	case cfg := <-changed:
		if cfg.Variant() != layout.Left {
			t.Errorf("reloaded layout = %s", cfg.Engine.Layout)
		}
		if loader.Config().Variant() != layout.Left {
			t.Error("Config() not updated")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after file change")
	}
}

func TestLoaderRejectsInvalidReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[engine]\nlayout = \"right\"\n")

	loader := NewLoader(path)
	defer loader.Close()

	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := loader.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, path, "[engine]\nlayout = \"sideways\"\n")

	select {
	case err := <-loader.Errors():
		if err == nil {
			t.Fatal("nil error on channel")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("invalid reload not reported")
	}

	if loader.Config().Variant() != layout.Right {
		t.Error("invalid config replaced the previous one")
	}
}

func TestLoaderIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "")

	loader := NewLoader(path)
	defer loader.Close()
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	changed := make(chan struct{}, 1)
	loader.OnChange(func(*Config) { changed <- struct{}{} })
	if err := loader.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, filepath.Join(dir, "notes.txt"), "hello")

	select {
	case <-changed:
		t.Fatal("reload triggered by unrelated file")
	case <-time.After(400 * time.Millisecond):
	}
}
