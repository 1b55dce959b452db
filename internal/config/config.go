// Package config loads InkBoard settings from a TOML file, a .env file and
// INKBOARD_* environment variables, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds the complete application configuration.
type Config struct {
	Recognition RecognitionConfig `toml:"recognition"`
	Canvas      CanvasConfig      `toml:"canvas"`
	Share       ShareConfig       `toml:"share"`
	Export      ExportConfig      `toml:"export"`
	History     HistoryConfig     `toml:"history"`
	Logging     LoggingConfig     `toml:"logging"`
}

// RecognitionConfig selects the recognition backend and its credentials.
type RecognitionConfig struct {
	// Backend is "myscript", "azure" or "demo". Empty picks myscript when
	// an application key is set.
	Backend        string `toml:"backend"`
	Endpoint       string `toml:"endpoint"`
	Lang           string `toml:"lang"`
	ApplicationKey string `toml:"application_key"`
	HMACKey        string `toml:"hmac_key"`
	AzureEndpoint  string `toml:"azure_endpoint"`
	AzureKey       string `toml:"azure_key"`
	TimeoutSec     int    `toml:"timeout_sec"`

	// InitAttempts bounds backend initialization retries.
	InitAttempts  int `toml:"init_attempts"`
	InitBackoffMs int `toml:"init_backoff_ms"`
}

func (r RecognitionConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSec) * time.Second
}

func (r RecognitionConfig) InitBackoff() time.Duration {
	return time.Duration(r.InitBackoffMs) * time.Millisecond
}

type CanvasConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// ShareConfig controls the read-only LAN mirror.
type ShareConfig struct {
	Enabled   bool `toml:"enabled"`
	Port      int  `toml:"port"`
	Advertise bool `toml:"advertise"`
}

type ExportConfig struct {
	Dir string `toml:"dir"`
}

// HistoryConfig points at the sqlite recognition journal. Empty disables it.
type HistoryConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Recognition: RecognitionConfig{
			Lang:          "en_US",
			TimeoutSec:    15,
			InitAttempts:  3,
			InitBackoffMs: 200,
		},
		Canvas: CanvasConfig{Width: 1024, Height: 700},
		Share:  ShareConfig{Port: 8888, Advertise: true},
		Export: ExportConfig{Dir: filepath.Join(home, "Pictures", "InkBoard")},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of the defaults, then applies .env and environment
// overrides. A missing path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides copies INKBOARD_* variables over file values.
func (c *Config) ApplyEnvOverrides() {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("INKBOARD_BACKEND", &c.Recognition.Backend)
	str("INKBOARD_ENDPOINT", &c.Recognition.Endpoint)
	str("INKBOARD_APP_KEY", &c.Recognition.ApplicationKey)
	str("INKBOARD_HMAC_KEY", &c.Recognition.HMACKey)
	str("INKBOARD_AZURE_ENDPOINT", &c.Recognition.AzureEndpoint)
	str("INKBOARD_AZURE_KEY", &c.Recognition.AzureKey)
	str("INKBOARD_EXPORT_DIR", &c.Export.Dir)
	str("INKBOARD_HISTORY", &c.History.Path)
	str("INKBOARD_LOG_LEVEL", &c.Logging.Level)

	if v, ok := os.LookupEnv("INKBOARD_SHARE_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Share.Port = port
		}
	}
	if v, ok := os.LookupEnv("INKBOARD_SHARE"); ok {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Share.Enabled = on
		}
	}
}

// Validate checks value ranges and backend requirements.
func (c *Config) Validate() error {
	var errs []error
	switch c.Recognition.Backend {
	case "", "myscript", "demo":
	case "azure":
		if c.Recognition.AzureEndpoint == "" {
			errs = append(errs, errors.New("recognition.azure_endpoint is required for the azure backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("recognition.backend %q is not one of myscript, azure, demo", c.Recognition.Backend))
	}
	if c.Recognition.TimeoutSec <= 0 {
		errs = append(errs, errors.New("recognition.timeout_sec must be positive"))
	}
	if c.Recognition.InitAttempts < 1 {
		errs = append(errs, errors.New("recognition.init_attempts must be at least 1"))
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height))
	}
	if c.Share.Port < 1 || c.Share.Port > 65535 {
		errs = append(errs, fmt.Errorf("share.port %d out of range", c.Share.Port))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	return errors.Join(errs...)
}
