package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

const appName = "halfqwerty"

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/halfqwerty/
//   - Linux:   ~/.local/share/halfqwerty/
//   - Windows: %LOCALAPPDATA%\halfqwerty\
//
// Falls back to ~/.halfqwerty if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	case "windows":
		return windowsDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/halfqwerty/
//   - Linux:   ~/.config/halfqwerty/
//   - Windows: %LOCALAPPDATA%\halfqwerty\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return xdgDir("XDG_CONFIG_HOME", ".config")
	case "windows":
		return windowsDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", appName)
	case "linux":
		return filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), "logs")
	default:
		return filepath.Join(PlatformDataDir(), "logs")
	}
}

// PlatformRuntimeDir returns the directory for lock files.
//
// Platform paths:
//   - Linux:   $XDG_RUNTIME_DIR/halfqwerty/ or /tmp/halfqwerty-$UID/
//   - other:   the system temp dir plus halfqwerty-$UID
func PlatformRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
			return filepath.Join(xdgRuntime, appName)
		}
	}
	return filepath.Join(os.TempDir(), appName+"-"+getUserID())
}

// DefaultComponentDir returns the per-user IBus component directory.
func DefaultComponentDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "ibus", "component")
	}
	return filepath.Join(homeDir(), ".local", "share", "ibus", "component")
}

// xdgDir resolves an XDG base directory with its home-relative fallback.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	parts := append([]string{homeDir()}, fallback...)
	return filepath.Join(append(parts, appName)...)
}

func macOSDataDir() string {
	return filepath.Join(homeDir(), "Library", "Application Support", appName)
}

func windowsDataDir() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, appName)
	}
	return filepath.Join(homeDir(), "AppData", "Local", appName)
}

func fallbackDataDir() string {
	return filepath.Join(homeDir(), "."+appName)
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

func getUserID() string {
	if uid := os.Getuid(); uid >= 0 {
		return strconv.Itoa(uid)
	}
	return "0"
}

// SupportedConfigFormats returns the file extensions Load understands.
func SupportedConfigFormats() []string {
	return []string{"toml", "json", "yaml", "yml"}
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first found config file, or empty string if none found.
func FindConfigFile() string {
	// Search order: current directory, then the config directory.
	for _, dir := range []string{".", PlatformConfigDir()} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}
