package solver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/logger"
)

var (
	ErrBackendNotSupported = errors.New("backend not supported")
	ErrUnknownRun          = errors.New("unknown run")
	ErrManagerClosed       = errors.New("manager is closed")

	log = logger.ForComponent("solver")
)

type Manager struct {
	config    ManagerConfig
	processes map[Backend]*Process
	starting  map[Backend]bool

	idleTimers  map[Backend]*time.Timer
	lastAccess  map[Backend]time.Time
	runBackends map[string]Backend

	mu       sync.RWMutex
	closed   bool
	closedCh chan struct{}
}

func NewManager(config ManagerConfig) *Manager {
	return &Manager{
		config:      config,
		processes:   make(map[Backend]*Process),
		starting:    make(map[Backend]bool),
		idleTimers:  make(map[Backend]*time.Timer),
		lastAccess:  make(map[Backend]time.Time),
		runBackends: make(map[string]Backend),
		closedCh:    make(chan struct{}),
	}
}

// StartRun submits a simulation of the referenced system. The backend
// is chosen from the run options integrator and started on demand.
// The returned status carries the generated run identifier.
func (m *Manager) StartRun(ctx context.Context, ref string, opt *ame.RunOptions) (*RunStatusInfo, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}

	backend := BackendFor(opt)
	backendConfig, ok := m.config.Backends[backend]
	if !ok || !backendConfig.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotSupported, backend)
	}

	sysname, syspath := ame.ExtractSystemName(ref)

	process, err := m.getOrStartProcess(ctx, backend, syspath)
	if err != nil {
		return nil, fmt.Errorf("failed to get solver process: %w", err)
	}

	m.recordAccess(backend)

	client := process.Client()
	if client == nil || !client.IsReady() {
		return nil, fmt.Errorf("solver client not ready for %s", backend)
	}

	req := RunRequest{
		RunID:   uuid.New().String(),
		System:  sysname,
		WorkDir: syspath,
	}
	if opt != nil {
		raw, err := json.Marshal(opt)
		if err != nil {
			return nil, fmt.Errorf("failed to encode run options: %w", err)
		}
		req.Options = raw
	}

	log.Info("starting run", "system", sysname, "backend", backend, "run_id", req.RunID)

	status, err := client.StartRun(ctx, req)
	if err != nil {
		return nil, err
	}
	if status.RunID == "" {
		status.RunID = req.RunID
	}

	m.mu.Lock()
	m.runBackends[status.RunID] = backend
	m.mu.Unlock()

	return status, nil
}

// RunStatus queries the backend that owns the run.
func (m *Manager) RunStatus(ctx context.Context, runID string) (*RunStatusInfo, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}

	m.mu.RLock()
	backend, ok := m.runBackends[runID]
	proc := m.processes[backend]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if proc == nil {
		return nil, ErrProcessNotRunning
	}

	m.recordAccess(backend)

	client := proc.Client()
	if client == nil || !client.IsReady() {
		return nil, fmt.Errorf("solver client not ready for %s", backend)
	}

	return client.RunStatus(ctx, runID)
}

func (m *Manager) getOrStartProcess(ctx context.Context, backend Backend, workDir string) (*Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if proc, exists := m.processes[backend]; exists {
		state := proc.State()
		if state == StateReady {
			if proc.WorkDir() == workDir {
				log.Debug("reusing solver", "backend", backend)
				return proc, nil
			}
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			proc.Stop(stopCtx)
			cancel()
		} else if state == StateStarting || state == StateInitializing {
			return proc, nil
		}
	}

	if m.starting[backend] {
		return nil, errors.New("process already starting for backend: " + string(backend))
	}

	runningCount := 0
	for _, p := range m.processes {
		if p.State() == StateReady {
			runningCount++
		}
	}

	if runningCount >= m.config.MaxConcurrent {
		if err := m.stopOldestProcess(ctx); err != nil {
			return nil, fmt.Errorf("at max concurrent (%d) and cannot stop idle process: %w",
				m.config.MaxConcurrent, err)
		}
	}

	backendConfig, ok := m.config.Backends[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotSupported, backend)
	}

	proc := NewProcess(backendConfig)
	m.processes[backend] = proc
	m.starting[backend] = true

	m.mu.Unlock()

	log.Info("starting solver", "backend", backend, "work_dir", workDir)

	err := proc.Start(ctx, workDir)
	m.mu.Lock()

	m.starting[backend] = false

	if err != nil {
		delete(m.processes, backend)
		log.Error("failed to start solver", "backend", backend, "error", err)
		return nil, err
	}

	m.setupIdleTimer(backend)

	return proc, nil
}

func (m *Manager) stopOldestProcess(ctx context.Context) error {
	var oldestBackend Backend
	var oldestTime time.Time

	for backend, t := range m.lastAccess {
		if proc, exists := m.processes[backend]; exists {
			if proc.State() == StateReady {
				if oldestTime.IsZero() || t.Before(oldestTime) {
					oldestTime = t
					oldestBackend = backend
				}
			}
		}
	}

	if oldestBackend == "" {
		return errors.New("no idle process to stop")
	}

	return m.stopProcessLocked(ctx, oldestBackend)
}

func (m *Manager) stopProcessLocked(ctx context.Context, backend Backend) error {
	proc, exists := m.processes[backend]
	if !exists {
		return nil
	}

	log.Info("stopping solver", "backend", backend, "reason", "idle")

	if timer, exists := m.idleTimers[backend]; exists {
		timer.Stop()
		delete(m.idleTimers, backend)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := proc.Stop(stopCtx); err != nil {
		proc.Kill()
	}

	delete(m.processes, backend)
	delete(m.lastAccess, backend)

	return nil
}

func (m *Manager) setupIdleTimer(backend Backend) {
	if timer, exists := m.idleTimers[backend]; exists {
		timer.Stop()
	}

	log.Debug("solver idle timer set", "backend", backend, "timeout", m.config.IdleTimeout)

	m.idleTimers[backend] = time.AfterFunc(m.config.IdleTimeout, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if lastAccess, exists := m.lastAccess[backend]; exists {
			if time.Since(lastAccess) >= m.config.IdleTimeout {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				m.stopProcessLocked(ctx, backend)
			}
		}
	})
}

func (m *Manager) recordAccess(backend Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastAccess[backend] = time.Now()
	m.setupIdleTimer(backend)
}

func (m *Manager) GetProcess(backend Backend) *Process {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.processes[backend]
}

func (m *Manager) StartProcess(ctx context.Context, backend Backend, workDir string) error {
	if m.isClosed() {
		return ErrManagerClosed
	}

	_, err := m.getOrStartProcess(ctx, backend, workDir)
	return err
}

func (m *Manager) StopProcess(ctx context.Context, backend Backend) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopProcessLocked(ctx, backend)
}

func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.Info("stopping all solver processes")

	var lastErr error
	for backend := range m.processes {
		if err := m.stopProcessLocked(ctx, backend); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.closedCh)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return m.StopAll(ctx)
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *Manager) Stats() map[Backend]SolverStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[Backend]SolverStats)
	for backend, proc := range m.processes {
		stats[backend] = proc.Stats()
	}
	return stats
}

func (m *Manager) IsBackendSupported(backend Backend) bool {
	config, ok := m.config.Backends[backend]
	return ok && config.Enabled
}

func (m *Manager) IsBackendInstalled(backend Backend) bool {
	config, ok := m.config.Backends[backend]
	if !ok {
		return false
	}
	proc := NewProcess(config)
	return proc.IsInstalled()
}

func (m *Manager) EnabledBackends() []Backend {
	return m.config.GetEnabledBackends()
}

func (m *Manager) InstalledBackends() []Backend {
	var installed []Backend
	for backend, config := range m.config.Backends {
		if config.Enabled {
			proc := NewProcess(config)
			if proc.IsInstalled() {
				installed = append(installed, backend)
			}
		}
	}
	return installed
}
