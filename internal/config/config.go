package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "sm4desk/internal/infrastructure/errors"
)

// DefaultSM4Key is the key the batch tool uses when the user does not supply one
const DefaultSM4Key = "cc9368581322479ebf3e79348a2757d9"

// WindowConfig holds the main window options handed to the host
type WindowConfig struct {
	Title       string `env:"TITLE" envDefault:"SM4 Batch Tool"`
	Width       int    `env:"WIDTH" envDefault:"1024"`
	Height      int    `env:"HEIGHT" envDefault:"720"`
	MinWidth    int    `env:"MIN_WIDTH" envDefault:"640"`
	MinHeight   int    `env:"MIN_HEIGHT" envDefault:"480"`
	Frameless   bool   `env:"FRAMELESS" envDefault:"true"`
	AlwaysOnTop bool   `env:"ALWAYS_ON_TOP" envDefault:"false"`
}

// Config holds all application configuration, read from SM4DESK_* variables
type Config struct {
	Environment string `env:"ENV" envDefault:"production"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Window WindowConfig `envPrefix:"WINDOW_"`

	// Directories the filesystem plugin may touch; empty means the user's home
	FSScope []string `env:"FS_SCOPE" envSeparator:","`

	DefaultKey string `env:"DEFAULT_KEY" envDefault:"cc9368581322479ebf3e79348a2757d9"`
}

// Load reads an optional dotenv file and then the process environment.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewWithContext("config.load", err, apperrors.ErrCodeStartup,
				map[string]string{"env_file": envFile})
		}
	}

	return parse(env.Options{Prefix: "SM4DESK_"})
}

// LoadFromMap builds a config from an explicit variable set instead of the process environment
func LoadFromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: "SM4DESK_", Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, apperrors.New("config.parse", err, apperrors.ErrCodeStartup)
	}

	if len(cfg.FSScope) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.FSScope = []string{home}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the window geometry and default key, and makes fs scope entries absolute
func (c *Config) Validate() error {
	fail := func(field string, err error) error {
		return apperrors.NewWithContext("config.validate", err, apperrors.ErrCodeValidation,
			map[string]string{"field": field})
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fail("window.size", fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Window.MinWidth < 0 || c.Window.MinHeight < 0 {
		return fail("window.min_size", fmt.Errorf("minimum window size must not be negative"))
	}
	if c.Window.MinWidth > c.Window.Width || c.Window.MinHeight > c.Window.Height {
		return fail("window.min_size", fmt.Errorf("minimum window size %dx%d exceeds window size %dx%d",
			c.Window.MinWidth, c.Window.MinHeight, c.Window.Width, c.Window.Height))
	}

	key, err := hex.DecodeString(c.DefaultKey)
	if err != nil {
		return fail("default_key", fmt.Errorf("default key is not hex: %w", err))
	}
	if len(key) != 16 {
		return fail("default_key", fmt.Errorf("default key must be 16 bytes, got %d", len(key)))
	}

	for i, dir := range c.FSScope {
		if dir == "" {
			return fail("fs_scope", fmt.Errorf("scope entry %d is empty", i))
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fail("fs_scope", err)
		}
		c.FSScope[i] = abs
	}

	return nil
}

// IsDevelopment reports whether the app runs in a development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// EffectiveLogLevel forces debug logging when Debug is set
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}
