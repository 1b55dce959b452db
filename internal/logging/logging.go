// Package logging configures structured logging with slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config holds the logging configuration.
type Config struct {
	Level  Level
	Format Format
	// Output is "stdout" or "stderr".
	Output    string
	AddSource bool
	// Writer overrides Output when set.
	Writer io.Writer
}

func DefaultConfig() *Config {
	return &Config{Level: LevelInfo, Format: FormatText, Output: "stderr"}
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// sensitive attribute keys are never written in clear.
var sensitive = map[string]bool{
	"app_key":         true,
	"application_key": true,
	"hmac_key":        true,
	"azure_key":       true,
	"hmac":            true,
}

// New builds a logger from cfg.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
		if cfg.Output == "stdout" {
			w = os.Stdout
		}
	}
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if sensitive[strings.ToLower(a.Key)] {
				a.Value = slog.StringValue("[REDACTED]")
			}
			return a
		},
	}
	var h slog.Handler
	if cfg.Format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Setup builds a logger from level and format names and installs it as the
// process default.
func Setup(level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	l := New(&Config{Level: lvl, Format: f, Output: "stderr"})
	slog.SetDefault(l)
	return l, nil
}

// WithComponent returns a child of the default logger tagged with name.
func WithComponent(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
