package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// SaveConfig writes the configuration to path in the format implied by the
// extension (TOML when unknown). The write goes through a temporary file
// and a rename, so readers and the file watcher never see a partial file.
func SaveConfig(cfg *Config, path string) error {
	data, err := Encode(cfg, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}

	return nil
}

// Encode renders the configuration as TOML, JSON or YAML. ext is a file
// extension such as ".json"; anything unrecognised yields TOML.
func Encode(cfg *Config, ext string) ([]byte, error) {
	snapshot := cfg.Clone()

	switch ext {
	case ".json":
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case ".yaml", ".yml":
		return yaml.Marshal(snapshot)
	default:
		var buf bytes.Buffer
		buf.WriteString("# halfqwerty configuration\n\n")
		if err := toml.NewEncoder(&buf).Encode(snapshot); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}
