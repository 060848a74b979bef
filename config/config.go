package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/plantimals/pifst/window"
)

// Config holds everything a merge run needs.
type Config struct {
	Pop1       string
	Pop1Pi     string
	Pop2       string
	Pop2Pi     string
	Fst        string
	Output     string
	Sort       string
	Preview    int
	WithCounts bool
	Quiet      bool
	LogLevel   string
	Push       bool
	Bucket     string
	Project    string
	Debounce   time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Sort:     string(window.Natural),
		Preview:  5,
		LogLevel: "info",
		Debounce: 500 * time.Millisecond,
		Project:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for _, p := range []struct{ name, val string }{
		{"pop1", c.Pop1}, {"pop1 pi file", c.Pop1Pi},
		{"pop2", c.Pop2}, {"pop2 pi file", c.Pop2Pi},
		{"fst file", c.Fst}, {"output file", c.Output},
	} {
		if strings.TrimSpace(p.val) == "" {
			return fmt.Errorf("%s is required", p.name)
		}
	}
	if c.Pop1 == c.Pop2 {
		return fmt.Errorf("population labels must differ (both %q)", c.Pop1)
	}
	if _, err := window.ParseOrder(c.Sort); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Preview < 0 {
		return fmt.Errorf("preview rows must not be negative")
	}
	if c.Push && c.Bucket == "" {
		return fmt.Errorf("--push needs a bucket")
	}
	return nil
}

// Order returns the parsed chromosome order; call after Validate.
func (c *Config) Order() window.Order {
	o, _ := window.ParseOrder(c.Sort)
	return o
}

// Inputs lists the three input tables in read order.
func (c *Config) Inputs() []string {
	return []string{c.Pop1Pi, c.Pop2Pi, c.Fst}
}
