// Package paths resolves configuration directory and layout file locations.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user configuration directory.
const AppName = "platforms"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PLATFORMS_CONFIG_DIR"
	EnvLayoutDir = "PLATFORMS_LAYOUT_DIR"
)

// LayoutDirName is the layouts subdirectory of the config directory.
const LayoutDirName = "layouts"

// ErrLayoutNotFound is returned when a layout file cannot be located.
var ErrLayoutNotFound = errors.New("layout file not found")

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/platforms (fallback ~/.config/platforms)
// macOS:   ~/Library/Application Support/platforms
// Windows: %APPDATA%/platforms
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > PLATFORMS_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// LayoutDirs returns the directories searched for relative layout names:
// PLATFORMS_LAYOUT_DIR when set, then <configDir>/layouts.
func LayoutDirs(configDir string) []string {
	var dirs []string
	if env := os.Getenv(EnvLayoutDir); env != "" {
		dirs = append(dirs, env)
	}
	if configDir != "" {
		dirs = append(dirs, filepath.Join(configDir, LayoutDirName))
	}
	return dirs
}

// ResolveLayoutFile returns the absolute path of a layout file. Absolute
// names and names that exist relative to the working directory are used as
// given; otherwise each of LayoutDirs is tried in order.
func ResolveLayoutFile(name, configDir string) (string, error) {
	if name == "" {
		return "", ErrLayoutNotFound
	}
	if exists(name) {
		return filepath.Abs(name)
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%s: %w", name, ErrLayoutNotFound)
	}
	for _, dir := range LayoutDirs(configDir) {
		p := filepath.Join(dir, name)
		if exists(p) {
			return filepath.Abs(p)
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrLayoutNotFound)
}

func exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
