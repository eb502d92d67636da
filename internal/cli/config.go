package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "PLATFORMS"

	// Config keys.
	cfgKeyCellSize          = "cell_size"
	cfgKeyOriginX           = "origin_x"
	cfgKeyOriginZ           = "origin_z"
	cfgKeyGridBackend       = "grid_backend"
	cfgKeyConnectivity      = "connectivity"
	cfgKeyBoundaryTolerance = "boundary_tolerance"
	cfgKeyDebounceWindow    = "debounce_window"
	cfgKeyLogLevel          = "log_level"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	CellSize          float64 `yaml:"cell_size"`
	OriginX           float64 `yaml:"origin_x"`
	OriginZ           float64 `yaml:"origin_z"`
	GridBackend       string  `yaml:"grid_backend"`
	Connectivity      int     `yaml:"connectivity"`
	BoundaryTolerance float64 `yaml:"boundary_tolerance"`
	DebounceWindow    string  `yaml:"debounce_window"`
	LogLevel          string  `yaml:"log_level"`
}

func defaultConfigFile() configFile {
	d := types.DefaultConfig()
	return configFile{
		CellSize:          d.CellSize,
		OriginX:           d.OriginX,
		OriginZ:           d.OriginZ,
		GridBackend:       d.GridBackend,
		Connectivity:      d.Connectivity,
		BoundaryTolerance: d.BoundaryTolerance,
		DebounceWindow:    d.DebounceWindow.String(),
		LogLevel:          d.LogLevel,
	}
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# deck configuration\n")
	return true, os.WriteFile(path, append(header, data...), 0o644)
}

// loadConfig reads config.yaml from configDir with Viper, layering
// PLATFORMS_* environment variables and the global flags on top. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (types.Config, error) {
	d := types.DefaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyCellSize, d.CellSize)
	v.SetDefault(cfgKeyOriginX, d.OriginX)
	v.SetDefault(cfgKeyOriginZ, d.OriginZ)
	v.SetDefault(cfgKeyGridBackend, d.GridBackend)
	v.SetDefault(cfgKeyConnectivity, d.Connectivity)
	v.SetDefault(cfgKeyBoundaryTolerance, d.BoundaryTolerance)
	v.SetDefault(cfgKeyDebounceWindow, d.DebounceWindow)
	v.SetDefault(cfgKeyLogLevel, d.LogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags.gridBackend != "" {
		v.Set(cfgKeyGridBackend, flags.gridBackend)
	}
	if flags.logLevel != "" {
		v.Set(cfgKeyLogLevel, flags.logLevel)
	}

	cfg := types.Config{
		CellSize:          v.GetFloat64(cfgKeyCellSize),
		OriginX:           v.GetFloat64(cfgKeyOriginX),
		OriginZ:           v.GetFloat64(cfgKeyOriginZ),
		GridBackend:       v.GetString(cfgKeyGridBackend),
		Connectivity:      v.GetInt(cfgKeyConnectivity),
		BoundaryTolerance: v.GetFloat64(cfgKeyBoundaryTolerance),
		DebounceWindow:    v.GetDuration(cfgKeyDebounceWindow),
		LogLevel:          v.GetString(cfgKeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("%s: %w", filepath.Join(configDir, configFileExt), err)
	}
	return cfg, nil
}

// newLogger returns a text logger on w at the configured level.
func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
