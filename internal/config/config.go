// Package config handles configuration loading, validation, and management for halfqwerty.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"halfqwerty/internal/ime"
	"halfqwerty/internal/layout"
)

// Version is the current configuration schema version.
const Version = 1

// Engine key-delivery protocols.
const (
	ProtocolExplicit = "explicit"
	ProtocolLegacy   = "legacy"
)

// Config holds the complete configuration shared by the IBus engine, the
// tutor and the control CLI.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Engine configures the keystroke resolution engine.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// IBus configures the IBus host process.
	IBus IBusConfig `toml:"ibus" json:"ibus" yaml:"ibus"`

	// Tutor configures the terminal typing tutor.
	Tutor TutorConfig `toml:"tutor" json:"tutor" yaml:"tutor"`

	// Storage configures the typing-result database.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// EngineConfig holds the engine settings.
type EngineConfig struct {
	// Layout is the keyboard variant: "wide", "left" or "right".
	Layout string `toml:"layout" json:"layout" yaml:"layout"`

	// SpaceTimeoutMs is the space-chord window in milliseconds.
	SpaceTimeoutMs int `toml:"space_timeout_ms" json:"space_timeout_ms" yaml:"space_timeout_ms"`

	// StickyKeys enables the sticky shift/ctrl/alt latches.
	StickyKeys bool `toml:"sticky_keys" json:"sticky_keys" yaml:"sticky_keys"`

	// Protocol selects how hosts deliver keys: "explicit" (press/release)
	// or "legacy" (press only, chords resolved by timer ticks).
	Protocol string `toml:"protocol" json:"protocol" yaml:"protocol"`

	// TickIntervalMs is how often hosts tick the engine in legacy mode.
	TickIntervalMs int `toml:"tick_interval_ms" json:"tick_interval_ms" yaml:"tick_interval_ms"`
}

// IBusConfig holds the IBus host settings.
type IBusConfig struct {
	// BusName is the well-known D-Bus name requested on the session bus.
	BusName string `toml:"bus_name" json:"bus_name" yaml:"bus_name"`

	// EngineName is the engine name advertised in the component file.
	EngineName string `toml:"engine_name" json:"engine_name" yaml:"engine_name"`

	// ComponentDir is where the IBus component XML is installed.
	ComponentDir string `toml:"component_dir" json:"component_dir" yaml:"component_dir"`

	// LockPath is the single-instance lock file.
	LockPath string `toml:"lock_path" json:"lock_path" yaml:"lock_path"`

	// MetricsPath receives engine metrics in the Prometheus text format.
	// Empty disables the file.
	MetricsPath string `toml:"metrics_path" json:"metrics_path" yaml:"metrics_path"`
}

// TutorConfig holds the typing tutor settings.
type TutorConfig struct {
	// Words is the number of words per test.
	Words int `toml:"words" json:"words" yaml:"words"`

	// WordList is an optional file with one word per line.
	WordList string `toml:"word_list" json:"word_list" yaml:"word_list"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// Path is the path to the SQLite database file.
	Path string `toml:"path" json:"path" yaml:"path"`

	// BusyTimeoutMs is the SQLite busy timeout in milliseconds.
	BusyTimeoutMs int `toml:"busy_timeout_ms" json:"busy_timeout_ms" yaml:"busy_timeout_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file" or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file" or "both").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of log files in days.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DataDir()

	return &Config{
		Version: Version,
		Engine: EngineConfig{
			Layout:         layout.Wide.String(),
			SpaceTimeoutMs: ime.DefaultSpaceTimeout,
			StickyKeys:     true,
			Protocol:       ProtocolExplicit,
			TickIntervalMs: 10,
		},
		IBus: IBusConfig{
			BusName:      "org.freedesktop.IBus.HalfQwerty",
			EngineName:   "halfqwerty",
			ComponentDir: DefaultComponentDir(),
			LockPath:     filepath.Join(PlatformRuntimeDir(), "halfqwerty-ibus.lock"),
			MetricsPath:  filepath.Join(PlatformRuntimeDir(), "halfqwerty-ibus.prom"),
		},
		Tutor: TutorConfig{
			Words:    25,
			WordList: "",
		},
		Storage: StorageConfig{
			Path:          filepath.Join(dir, "results.db"),
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   filepath.Join(PlatformLogDir(), "halfqwerty.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	cfg.ApplyEnvOverrides()

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the configured files live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Storage.Path),
		filepath.Dir(c.IBus.LockPath),
	}
	if c.Logging.Output == "file" || c.Logging.Output == "both" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DataDir returns the base halfqwerty data directory.
// Uses platform-specific paths or the HALFQWERTY_DATA_DIR environment override.
func DataDir() string {
	if envDir := os.Getenv("HALFQWERTY_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with HALFQWERTY_. Malformed numeric
// values are ignored and left for Validate to judge the file value.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Engine overrides
	if v := os.Getenv("HALFQWERTY_LAYOUT"); v != "" {
		c.Engine.Layout = v
	}
	if v := os.Getenv("HALFQWERTY_SPACE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Engine.SpaceTimeoutMs = ms
		}
	}

	// Storage overrides
	if v := os.Getenv("HALFQWERTY_DB_PATH"); v != "" {
		c.Storage.Path = v
	}

	// Logging overrides
	if v := os.Getenv("HALFQWERTY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HALFQWERTY_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Version: c.Version,
		Engine:  c.Engine,
		IBus:    c.IBus,
		Tutor:   c.Tutor,
		Storage: c.Storage,
		Logging: c.Logging,
	}
}

// Variant returns the configured layout variant. An unparsable layout
// yields Wide; Validate reports it.
func (c *Config) Variant() layout.Variant {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, err := layout.ParseVariant(c.Engine.Layout)
	if err != nil {
		return layout.Wide
	}
	return v
}

// SpaceTimeout returns the chord window as a duration.
func (c *Config) SpaceTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.Engine.SpaceTimeoutMs) * time.Millisecond
}

// TickInterval returns the legacy-protocol tick period, never below 1ms.
func (c *Config) TickInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Engine.TickIntervalMs < 1 {
		return time.Millisecond
	}
	return time.Duration(c.Engine.TickIntervalMs) * time.Millisecond
}

// LegacyProtocol reports whether hosts should use Process/Tick instead of
// explicit key-down/key-up events.
func (c *Config) LegacyProtocol() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Engine.Protocol == ProtocolLegacy
}

// EngineOptions translates the engine section into constructor options.
func (c *Config) EngineOptions() []ime.Option {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []ime.Option{
		ime.WithSpaceTimeout(c.Engine.SpaceTimeoutMs),
		ime.WithStickyKeys(c.Engine.StickyKeys),
	}
}

// ApplyTo reconfigures a live input context from the engine section. Only
// settings that can change without dropping state are applied.
func (c *Config) ApplyTo(ic *ime.InputContext) {
	v := c.Variant()

	c.mu.RLock()
	defer c.mu.RUnlock()
	ic.SetKeyboardType(v)
	ic.SetSpaceTimeout(c.Engine.SpaceTimeoutMs)
	ic.SetStickyKeysEnabled(c.Engine.StickyKeys)
}

// decodeTOML is shared by Load and the auto-detecting loader.
func decodeTOML(data []byte, cfg *Config) error {
	_, err := toml.Decode(string(data), cfg)
	return err
}
