package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AMEKIT_SOCKET", "")
	t.Setenv("AMEKIT_DB", "")
	t.Setenv("AMEKIT_LOG_LEVEL", "")

	cfg := Load()

	if cfg.SocketPath == "" {
		t.Error("socket path should not be empty")
	}
	if cfg.DatabasePath != cfg.Index.DBPath {
		t.Errorf("database path %q differs from index db path %q", cfg.DatabasePath, cfg.Index.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if !cfg.Index.Enabled {
		t.Error("index should be enabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AMEKIT_SOCKET", "/tmp/override.sock")
	t.Setenv("AMEKIT_DB", "/tmp/override.db")
	t.Setenv("AMEKIT_LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.SocketPath != "/tmp/override.sock" {
		t.Errorf("socket path = %q", cfg.SocketPath)
	}
	if cfg.DatabasePath != "/tmp/override.db" {
		t.Errorf("database path = %q", cfg.DatabasePath)
	}
	if cfg.Index.DBPath != "/tmp/override.db" {
		t.Errorf("index db path = %q", cfg.Index.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadWithInstance(t *testing.T) {
	cfg := LoadWithInstance("bench")

	if !strings.Contains(cfg.SocketPath, filepath.Join(".amekit", "bench")) {
		t.Errorf("socket path %q not scoped to instance", cfg.SocketPath)
	}
	if cfg.DatabasePath != cfg.Index.DBPath {
		t.Errorf("database path %q differs from index db path %q", cfg.DatabasePath, cfg.Index.DBPath)
	}
}

func TestLoadWithInstanceEnvOverridesWin(t *testing.T) {
	t.Setenv("AMEKIT_DB", "/tmp/pinned.db")

	cfg := LoadWithInstance("bench")
	if cfg.DatabasePath != "/tmp/pinned.db" {
		t.Errorf("database path = %q, want env override", cfg.DatabasePath)
	}
	if cfg.Index.DBPath != "/tmp/pinned.db" {
		t.Errorf("index db path = %q, want env override", cfg.Index.DBPath)
	}
}
