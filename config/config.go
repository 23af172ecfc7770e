package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Scene   string        `yaml:"scene"`
	Debug   bool          `yaml:"debug"`
	Watch   bool          `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
	Feed    FeedConfig    `yaml:"feed"`
	Input   InputConfig   `yaml:"input"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
}

type FeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	RateHz  int    `yaml:"rate_hz"`
}

// Interval is the time between two pose messages.
func (f FeedConfig) Interval() time.Duration {
	if f.RateHz <= 0 {
		return time.Second / 20
	}
	return time.Second / time.Duration(f.RateHz)
}

type InputConfig struct {
	// SensitivityScale multiplies every scene's mouse sensitivity.
	SensitivityScale float64 `yaml:"sensitivity_scale"`
}

func Default() Config {
	return Config{
		Window: WindowConfig{Width: 960, Height: 640, Title: "Location Game"},
		Scene:  "airport",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Feed: FeedConfig{
			Addr:   "127.0.0.1:8765",
			RateHz: 20,
		},
		Input: InputConfig{SensitivityScale: 1},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	case c.Scene == "":
		return errors.New("scene must be set")
	case c.Feed.RateHz < 0:
		return fmt.Errorf("feed.rate_hz must not be negative, got %d", c.Feed.RateHz)
	case c.Feed.Enabled && c.Feed.Addr == "":
		return errors.New("feed.addr must be set when the feed is enabled")
	case c.Input.SensitivityScale <= 0:
		return fmt.Errorf("input.sensitivity_scale must be positive, got %v", c.Input.SensitivityScale)
	}
	return nil
}
