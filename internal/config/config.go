package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dlemos/amekit/internal/solver"
	"github.com/dlemos/amekit/internal/watcher"
)

type IndexConfig struct {
	Enabled         bool     `yaml:"enabled"`
	DBPath          string   `yaml:"db_path"`
	MaxFileSize     int64    `yaml:"max_file_size"`
	MaxQueueSize    int      `yaml:"max_queue_size"`
	WorkerCount     int      `yaml:"worker_count"`
	RateLimit       int      `yaml:"rate_limit"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

type Config struct {
	SocketPath     string
	DatabasePath   string
	LogLevel       string
	MaxConnections int
	Index          IndexConfig
	Solver         solver.ManagerConfig `yaml:"solver"`
	Watcher        watcher.WatcherConfig
}

func Load() *Config {
	homeDir, _ := os.UserHomeDir()
	amekitDir := filepath.Join(homeDir, ".amekit")
	socketPath := filepath.Join(amekitDir, "daemon.sock")
	indexDBPath := filepath.Join(amekitDir, "index.db")

	cfg := &Config{
		SocketPath:     socketPath,
		DatabasePath:   indexDBPath,
		LogLevel:       "info",
		MaxConnections: 100,
		Index: IndexConfig{
			Enabled:      true,
			DBPath:       indexDBPath,
			MaxFileSize:  256 * 1024 * 1024,
			MaxQueueSize: 1000,
			WorkerCount:  2,
			RateLimit:    100,
			ExcludePatterns: []string{
				"**/.git/**",
				"**/csv/**",
				"**/*.results.bak",
			},
		},
		Solver: solver.DefaultManagerConfig(),
		Watcher: watcher.WatcherConfig{
			Enabled:        true,
			DebounceWindow: 300 * time.Millisecond,
			MaxBatchSize:   100,
			IgnorePatterns: []string{
				"**/.git/**",
				"**/csv/**",
				"**/*.log",
				"**/*.tmp",
			},
			WatchHidden: false,
		},
	}

	applyEnvOverrides(cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if lvl := os.Getenv("AMEKIT_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if sock := os.Getenv("AMEKIT_SOCKET"); sock != "" {
		cfg.SocketPath = sock
	}
	if db := os.Getenv("AMEKIT_DB"); db != "" {
		cfg.DatabasePath = db
		cfg.Index.DBPath = db
	}
}

// LoadWithInstance returns a config scoped to a named instance, so
// several daemons can run side by side against separate data roots.
// The empty instance name yields the default paths.
func LoadWithInstance(instance string) *Config {
	cfg := Load()
	if instance == "" {
		return cfg
	}

	homeDir, _ := os.UserHomeDir()
	amekitDir := filepath.Join(homeDir, ".amekit", instance)
	cfg.SocketPath = filepath.Join(amekitDir, "daemon.sock")
	cfg.DatabasePath = filepath.Join(amekitDir, "index.db")
	cfg.Index.DBPath = cfg.DatabasePath
	// Explicit overrides win over instance scoping.
	applyEnvOverrides(cfg)
	return cfg
}

func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(filepath.Dir(c.SocketPath), 0700)
}
