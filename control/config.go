// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Environment driven configuration for the allocator, the worker set and
// logging.

package control

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/momentics/hioload-sync/api"
)

// EnvPrefix prefixes every variable read by LoadConfig.
const EnvPrefix = "HIOLOAD_"

// Config holds tunables shared by the library components and the CLI.
type Config struct {
	ByteLimit  int    `env:"ALLOC_BYTE_LIMIT" envDefault:"2097152"`
	BlockSize  int    `env:"ALLOC_BLOCK_SIZE" envDefault:"96"`
	Mmap       bool   `env:"ALLOC_MMAP" envDefault:"false"`
	Workers    int    `env:"WORKERS" envDefault:"4"`
	PinWorkers bool   `env:"PIN_WORKERS" envDefault:"false"`
	Listeners  int    `env:"LISTENERS" envDefault:"64"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"text"`
}

// LoadConfig reads HIOLOAD_* variables, applying defaults for missing ones.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("control: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the components cannot work with.
func (c Config) Validate() error {
	switch {
	case c.ByteLimit <= 0:
		return fmt.Errorf("control: byte limit must be positive: %w", api.ErrInvalidArgument)
	case c.BlockSize <= 0:
		return fmt.Errorf("control: block size must be positive: %w", api.ErrInvalidArgument)
	case c.Workers <= 0:
		return fmt.Errorf("control: worker count must be positive: %w", api.ErrInvalidArgument)
	case c.Listeners < 0:
		return fmt.Errorf("control: listener count must not be negative: %w", api.ErrInvalidArgument)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("control: unknown log format %q: %w", c.LogFormat, api.ErrInvalidArgument)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("control: log level %q: %w", c.LogLevel, api.ErrInvalidArgument)
	}
	return lvl, nil
}

// NewLogger builds a logger writing to w in the configured format and level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
