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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".stylecheck", "stylecheck.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var cfg StylecheckConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}

	if len(cfg.Checker.Command) != 1 || cfg.Checker.Command[0] != "pycodestyle" {
		t.Errorf("Checker.Command = %q, want [pycodestyle]", cfg.Checker.Command)
	}
	if cfg.Checker.CacheLimit != 10 {
		t.Errorf("Checker.CacheLimit = %d, want 10", cfg.Checker.CacheLimit)
	}
	if cfg.Meta.Version != CurrentConfigVersion {
		t.Errorf("Meta.Version = %q, want %q", cfg.Meta.Version, CurrentConfigVersion)
	}
}

// TestLoad_FirstRun verifies a missing file is created and loaded.
func TestLoad_FirstRun(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "deep", "nested", "stylecheck.yaml")

	var notice bytes.Buffer
	cfg, err := Load(configPath, &notice)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !strings.Contains(notice.String(), "First run detected") {
		t.Errorf("notice = %q, want first-run message", notice.String())
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8765" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

// TestLoad_PartialFileKeepsDefaults verifies omitted keys fall back.
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "stylecheck.yaml")
	content := `
checker:
  command: [python3, -m, pycodestyle]
  args: [--max-line-length=100]
  timeout: 5s
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath, nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := cfg.Checker.Command; len(got) != 3 || got[2] != "pycodestyle" {
		t.Errorf("Checker.Command = %q", got)
	}
	if cfg.Checker.Timeout != 5*time.Second {
		t.Errorf("Checker.Timeout = %v, want 5s", cfg.Checker.Timeout)
	}
	if cfg.Checker.CacheLimit != 10 {
		t.Errorf("Checker.CacheLimit = %d, want default 10", cfg.Checker.CacheLimit)
	}
	if cfg.Server.RateBurst != 20 {
		t.Errorf("Server.RateBurst = %d, want default 20", cfg.Server.RateBurst)
	}
	if cfg.LoggingOptions().Level.String() != "DEBUG" {
		t.Errorf("logging level = %v, want DEBUG", cfg.LoggingOptions().Level)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"not yaml", "checker: [", false},
		{"empty command", "checker:\n  command: []\n", true},
		{"negative cache", "checker:\n  cache_limit: -1\n", true},
		{"bad level", "logging:\n  level: loud\n", true},
		{"bad exporter", "telemetry:\n  trace_exporter: zipkin\n", true},
		{"empty addr", "server:\n  addr: \"\"\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "stylecheck.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := Load(configPath, nil)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if tt.invalid && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Checker.Args = []string{"--ignore=E501"}
	cfg.Checker.CacheToolErrors = true
	cfg.Server.ShutdownTimeout = 3 * time.Second

	if err := Save(configPath, cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	loaded, err := Load(configPath, nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(loaded.Checker.Args) != 1 || loaded.Checker.Args[0] != "--ignore=E501" {
		t.Errorf("Checker.Args = %q", loaded.Checker.Args)
	}
	if !loaded.Checker.CacheToolErrors {
		t.Error("Checker.CacheToolErrors lost")
	}
	if loaded.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v", loaded.Server.ShutdownTimeout)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error: %v", err)
	}
	if filepath.Base(path) != "stylecheck.yaml" || filepath.Base(filepath.Dir(path)) != ".stylecheck" {
		t.Errorf("DefaultPath() = %q", path)
	}
}

func TestLoad_ExistingFileNoNotice(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "stylecheck.yaml")
	if err := Save(configPath, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	var notice bytes.Buffer
	if _, err := Load(configPath, &notice); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if notice.Len() != 0 {
		t.Errorf("notice = %q, want empty for an existing file", notice.String())
	}
}
