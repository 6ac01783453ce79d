package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/subsail/internal/logging"
	"github.com/mgpai22/subsail/internal/subtitle"
)

//go:embed sample_config.toml
var sampleConfig string

// Subtitles contains decoding settings.
type Subtitles struct {
	FallbackCodec string `toml:"fallback_codec"`
}

// Playback contains synchronizer settings.
type Playback struct {
	Mode               string `toml:"mode"`
	StepMS             int    `toml:"step_ms"`
	SliderEnabled      bool   `toml:"slider_enabled"`
	AutoResume         bool   `toml:"autoresume"`
	PauseWhenMinimized bool   `toml:"pause_when_minimized"`
	TickMS             int    `toml:"tick_ms"`
	FPSWaitSeconds     int    `toml:"fps_wait_seconds"`
}

// Config encapsulates all configuration values for subsail.
type Config struct {
	Subtitles Subtitles `toml:"subtitles"`
	Playback  Playback  `toml:"playback"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It also returns
// the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

func (c *Config) normalize() {
	c.Subtitles.FallbackCodec = strings.TrimSpace(c.Subtitles.FallbackCodec)
	if c.Subtitles.FallbackCodec == "" {
		c.Subtitles.FallbackCodec = defaultFallbackCodec
	}
	c.Playback.Mode = strings.ToLower(strings.TrimSpace(c.Playback.Mode))
	if c.Playback.Mode == "" {
		c.Playback.Mode = defaultMode
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// WriteDefault writes the commented sample configuration to path. An
// existing file is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders c as TOML.
func (c *Config) Encode() (string, error) {
	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return sb.String(), nil
}

// Step returns the forward/backward step.
func (c *Config) Step() time.Duration {
	return time.Duration(c.Playback.StepMS) * time.Millisecond
}

// TickInterval returns the playback clock cadence.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Playback.TickMS) * time.Millisecond
}

// FPSWait returns how long a frame-indexed load waits for a frame rate.
func (c *Config) FPSWait() time.Duration {
	return time.Duration(c.Playback.FPSWaitSeconds) * time.Second
}

// EngineOptions builds the engine settings. Validate must have passed.
func (c *Config) EngineOptions(logger *logging.Logger) subtitle.Options {
	mode, _ := subtitle.ParseAdjustMode(c.Playback.Mode)
	return subtitle.Options{
		FallbackCodec: c.Subtitles.FallbackCodec,
		FPSWait:       c.FPSWait(),
		Logger:        logger,
		Sync: subtitle.SyncOptions{
			Mode:               mode,
			StepIncrement:      c.Step(),
			SliderEnabled:      c.Playback.SliderEnabled,
			AutoResume:         c.Playback.AutoResume,
			PauseWhenMinimized: c.Playback.PauseWhenMinimized,
		},
	}
}
