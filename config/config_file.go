package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig is the tunable part of Config as one layer supplies it, either
// the TOML file or the PIFST_* environment. Nil pointers and empty strings
// leave the lower layer's value alone.
type FileConfig struct {
	Sort       string `toml:"sort"`
	Preview    *int   `toml:"preview_rows"`
	WithCounts *bool  `toml:"with_counts"`
	Quiet      *bool  `toml:"quiet"`
	LogLevel   string `toml:"log_level"`
	Push       *bool  `toml:"push"`
	Bucket     string `toml:"bucket"`
	Project    string `toml:"project"`
	Debounce   string `toml:"debounce"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.pifst/config.toml, or "" without a home directory.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".pifst", "config.toml")
	}
	return ""
}

// EnvConfig reads the PIFST_* environment into a FileConfig.
func EnvConfig() (FileConfig, error) {
	fc := FileConfig{
		Sort:     os.Getenv("PIFST_SORT"),
		LogLevel: os.Getenv("PIFST_LOG_LEVEL"),
		Bucket:   os.Getenv("PIFST_BUCKET"),
		Project:  os.Getenv("PIFST_PROJECT"),
		Debounce: os.Getenv("PIFST_DEBOUNCE"),
	}
	if v := os.Getenv("PIFST_PREVIEW_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fc, fmt.Errorf("PIFST_PREVIEW_ROWS: %w", err)
		}
		fc.Preview = &n
	}
	for _, b := range []struct {
		env string
		dst **bool
	}{
		{"PIFST_WITH_COUNTS", &fc.WithCounts},
		{"PIFST_QUIET", &fc.Quiet},
		{"PIFST_PUSH", &fc.Push},
	} {
		v := os.Getenv(b.env)
		if v == "" {
			continue
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fc, fmt.Errorf("%s: %w", b.env, err)
		}
		*b.dst = &on
	}
	return fc, nil
}

// ApplyFileConfig lays fc over cfg. Settings whose flag is in changed were
// given on the command line and keep the flag's value.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	text := func(flag, v string, dst *string) {
		if v != "" && !changed[flag] {
			*dst = v
		}
	}
	text("sort", fc.Sort, &cfg.Sort)
	text("log-level", fc.LogLevel, &cfg.LogLevel)
	text("bucket", fc.Bucket, &cfg.Bucket)
	text("project", fc.Project, &cfg.Project)

	setIf(changed, "with-counts", fc.WithCounts, &cfg.WithCounts)
	setIf(changed, "quiet", fc.Quiet, &cfg.Quiet)
	setIf(changed, "push", fc.Push, &cfg.Push)

	// 0 turns the preview off; Validate rejects negatives.
	setIf(changed, "preview", fc.Preview, &cfg.Preview)

	if fc.Debounce != "" && !changed["debounce"] {
		d, err := time.ParseDuration(fc.Debounce)
		if err != nil {
			return fmt.Errorf("debounce: %w", err)
		}
		cfg.Debounce = d
	}
	return nil
}

func setIf[T any](changed map[string]bool, flag string, v *T, dst *T) {
	if v != nil && !changed[flag] {
		*dst = *v
	}
}

// ApplyEnvConfig lays the PIFST_* environment over cfg, skipping flags in changed.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	fc, err := EnvConfig()
	if err != nil {
		return err
	}
	if err := ApplyFileConfig(cfg, fc, changed); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// Load applies the config file at path (when it exists) and then the
// environment on top of cfg.
func Load(cfg *Config, path string, changed map[string]bool) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return err
		}
		if err := ApplyFileConfig(cfg, fc, changed); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return ApplyEnvConfig(cfg, changed)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
