// Copyright 2025 orbitfm
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// 📝 Package config loads and validates the fileops configuration from
// JSON, YAML or HCL files.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/orbitfm/fileops/pkg/conflict"
	"github.com/orbitfm/fileops/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// Config is the resolved, validated configuration
type Config struct {
	// Workers bounds concurrent operations
	Workers int

	// TrashDir is where deletes are routed; empty disables the trash
	// and makes deletes permanent
	TrashDir string

	// CleanupMaxAge is how long finished operation records are retained
	CleanupMaxAge time.Duration

	// ResponseTimeout is how long a paused operation waits for an error
	// decision before defaulting to skip
	ResponseTimeout time.Duration

	// LogLevel is a zerolog level name
	LogLevel string

	// Exclude holds doublestar patterns for sources to drop
	Exclude []string

	// OnConflict is the non-interactive answer for destination conflicts
	OnConflict conflict.Resolution

	// OnError is the non-interactive answer for recoverable errors
	OnError operation.ErrorAction

	location string
}

// Location returns the path this config was loaded from
func (c *Config) Location() string {
	return c.location
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Workers:         4,
		TrashDir:        defaultTrashDir(),
		CleanupMaxAge:   10 * time.Minute,
		ResponseTimeout: 5 * time.Minute,
		LogLevel:        "info",
		OnConflict:      conflict.ResolutionSkip,
		OnError:         operation.ActionSkip,
	}
}

func defaultTrashDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fileops", "trash")
}

// fileConfig is the on-disk schema shared by every format. Durations
// are strings so "30m" works in all three.
type fileConfig struct {
	Workers         int      `json:"workers" yaml:"workers" hcl:"workers,optional"`
	TrashDir        string   `json:"trash_dir" yaml:"trash_dir" hcl:"trash_dir,optional"`
	CleanupMaxAge   string   `json:"cleanup_max_age" yaml:"cleanup_max_age" hcl:"cleanup_max_age,optional"`
	ResponseTimeout string   `json:"response_timeout" yaml:"response_timeout" hcl:"response_timeout,optional"`
	LogLevel        string   `json:"log_level" yaml:"log_level" hcl:"log_level,optional"`
	Exclude         []string `json:"exclude" yaml:"exclude" hcl:"exclude,optional"`
	OnConflict      string   `json:"on_conflict" yaml:"on_conflict" hcl:"on_conflict,optional"`
	OnError         string   `json:"on_error" yaml:"on_error" hcl:"on_error,optional"`
}

// resolve overlays the file values on the defaults and parses the
// string-typed fields
func (fc *fileConfig) resolve() (*Config, error) {
	cfg := Default()

	if fc.Workers != 0 {
		cfg.Workers = fc.Workers
	}
	if fc.TrashDir != "" {
		cfg.TrashDir = fc.TrashDir
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	cfg.Exclude = fc.Exclude

	if fc.CleanupMaxAge != "" {
		d, err := time.ParseDuration(fc.CleanupMaxAge)
		if err != nil {
			return nil, errors.Errorf("parsing cleanup_max_age: %w", err)
		}
		cfg.CleanupMaxAge = d
	}
	if fc.ResponseTimeout != "" {
		d, err := time.ParseDuration(fc.ResponseTimeout)
		if err != nil {
			return nil, errors.Errorf("parsing response_timeout: %w", err)
		}
		cfg.ResponseTimeout = d
	}
	if fc.OnConflict != "" {
		res, err := conflict.ParseResolution(fc.OnConflict)
		if err != nil {
			return nil, errors.Errorf("parsing on_conflict: %w", err)
		}
		cfg.OnConflict = res
	}
	if fc.OnError != "" {
		action, err := operation.ParseErrorAction(fc.OnError)
		if err != nil {
			return nil, errors.Errorf("parsing on_error: %w", err)
		}
		cfg.OnError = action
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.CleanupMaxAge < 0 {
		return errors.Errorf("cleanup_max_age must not be negative")
	}
	if c.ResponseTimeout <= 0 {
		return errors.Errorf("response_timeout must be positive")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return errors.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
