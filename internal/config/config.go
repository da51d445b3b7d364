// Package config loads the .lli.toml configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	lerrors "github.com/standardbeagle/lli/internal/errors"
)

// Config is the complete configuration for the indexing core and the
// file monitor.
type Config struct {
	Index Index `toml:"index"`
	Watch Watch `toml:"watch"`
}

// Index configures the indexing pipeline and change detection.
type Index struct {
	// ReadBufferSizeMB sets the prefetch window of the indexing
	// pipeline: the number of 1 MiB blocks that may be in flight
	// between the reader and the parser.
	ReadBufferSizeMB int `toml:"read-buffer-size-mb"`

	// FastModificationDetection enables the header/tail digest fast
	// path in change detection, so a 10 GB file is checked by reading
	// only the header window (under 2 MiB) and the tail window (at
	// most 2 MiB).
	FastModificationDetection bool `toml:"fast-modification-detection"`
}

// Watch configures the file monitor.
type Watch struct {
	DebounceMs     int `toml:"debounce-ms"`
	PollIntervalMs int `toml:"poll-interval-ms"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Index: Index{
			ReadBufferSizeMB:          16,
			FastModificationDetection: true,
		},
		Watch: Watch{
			DebounceMs:     250,
			PollIntervalMs: 2000,
		},
	}
}

// Load reads configuration from path. A missing file is not an error:
// defaults are returned so the core always has a usable configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, lerrors.NewConfigError("load", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, lerrors.NewConfigError("parse", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Index.ReadBufferSizeMB < 1 {
		return lerrors.NewConfigError("validate",
			fmt.Errorf("index.read-buffer-size-mb must be at least 1, got %d", c.Index.ReadBufferSizeMB))
	}
	if c.Watch.DebounceMs < 0 {
		return lerrors.NewConfigError("validate",
			fmt.Errorf("watch.debounce-ms must not be negative, got %d", c.Watch.DebounceMs))
	}
	if c.Watch.PollIntervalMs < 0 {
		return lerrors.NewConfigError("validate",
			fmt.Errorf("watch.poll-interval-ms must not be negative, got %d", c.Watch.PollIntervalMs))
	}
	return nil
}
