package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlemos/amekit/internal/config"
	"github.com/dlemos/amekit/internal/daemon"
	"github.com/dlemos/amekit/internal/logger"
)

func main() {
	instance := ""
	if len(os.Args) > 1 {
		instance = os.Args[1]
	}

	cfg := config.LoadWithInstance(instance)
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to ensure directories: %v", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	logger.Init(logCfg)

	lifecycle := daemon.NewLifecycleManager(filepath.Dir(cfg.SocketPath), cfg.SocketPath)
	if err := lifecycle.ValidateNoOtherInstance(); err != nil {
		if errors.Is(err, daemon.ErrLockHeld) {
			fmt.Println("Daemon already running")
			os.Exit(0)
		}
		log.Fatalf("Failed to acquire instance lock: %v", err)
	}
	defer lifecycle.Cleanup()

	if err := lifecycle.RegisterRunningDaemon(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}

	d, err := daemon.NewDaemon(cfg)
	if err != nil {
		log.Fatalf("Failed to create daemon: %v", err)
	}

	for _, root := range dataRoots() {
		if err := d.AddWatchRoot(root); err != nil {
			log.Printf("Failed to watch %s: %v", root, err)
		}
	}

	// Start blocks until a shutdown signal arrives.
	if err := d.Start(); err != nil {
		log.Fatalf("Failed to start daemon: %v", err)
	}
}

// dataRoots returns the directories to watch for simulation data,
// taken from the AMEKIT_DATA_ROOTS path list.
func dataRoots() []string {
	env := os.Getenv("AMEKIT_DATA_ROOTS")
	if env == "" {
		return nil
	}

	var roots []string
	for _, root := range filepath.SplitList(env) {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			roots = append(roots, root)
		}
	}
	return roots
}
