// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/stylecheck/pkg/logging"
	"github.com/AleutianAI/stylecheck/services/checker"
	"github.com/AleutianAI/stylecheck/services/server"
	"github.com/AleutianAI/stylecheck/services/telemetry"
)

// CurrentConfigVersion is written into new config files.
const CurrentConfigVersion = "1"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type StylecheckConfig struct {
	Meta MetaConfig `yaml:"meta"`

	// Checker: which style checker to run and how results are cached
	Checker checker.Config `yaml:"checker"`

	// Logging: stderr format and optional log directory
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry: trace and metric exporters
	Telemetry telemetry.Config `yaml:"telemetry"`

	// Server: settings for `stylecheck serve`
	Server server.Config `yaml:"server"`
}

type MetaConfig struct {
	Version string `yaml:"version"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`             // debug, info, warn, error
	JSON   bool   `yaml:"json"`              // JSON on stderr instead of text
	LogDir string `yaml:"log_dir,omitempty"` // e.g. ~/.stylecheck/logs
}

func DefaultConfig() StylecheckConfig {
	return StylecheckConfig{
		Meta:    MetaConfig{Version: CurrentConfigVersion},
		Checker: checker.DefaultConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: telemetry.DefaultConfig(),
		Server:    server.DefaultConfig(),
	}
}

// Validate reports the first unusable setting.
func (c *StylecheckConfig) Validate() error {
	if err := c.Checker.Validate(); err != nil {
		return fmt.Errorf("%w: checker: %v", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging: %v", ErrInvalidConfig, err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("%w: telemetry: %v", ErrInvalidConfig, err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server: addr must not be empty", ErrInvalidConfig)
	}
	if c.Server.MaxLines < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("%w: server: max_lines and rate_burst must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoggingOptions converts the logging section for logging.New.
func (c *StylecheckConfig) LoggingOptions() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return logging.Config{
		Level:   level,
		JSON:    c.Logging.JSON,
		LogDir:  c.Logging.LogDir,
		Service: "stylecheck",
	}
}
