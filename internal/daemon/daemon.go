package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dlemos/amekit/internal/config"
	"github.com/dlemos/amekit/internal/index"
	"github.com/dlemos/amekit/internal/router"
	"github.com/dlemos/amekit/internal/rpc"
	"github.com/dlemos/amekit/internal/solver"
	"github.com/dlemos/amekit/internal/tools"
	convtools "github.com/dlemos/amekit/internal/tools/convert"
	rftools "github.com/dlemos/amekit/internal/tools/rainflow"
	"github.com/dlemos/amekit/internal/tools/results"
	"github.com/dlemos/amekit/internal/tools/runs"
	"github.com/dlemos/amekit/internal/tools/simopt"
	"github.com/dlemos/amekit/internal/tools/vars"
	"github.com/dlemos/amekit/internal/watcher"
)

type Daemon struct {
	config       *config.Config
	socketPath   string
	listener     *SocketListener
	registry     *tools.Registry
	server       *rpc.Server
	store        *index.IndexStore
	indexer      *index.IndexWorker
	watcher      *watcher.Watcher
	solvers      *solver.Manager
	router       *router.Router
	connections  map[net.Conn]bool
	connMu       sync.Mutex
	shutdown     chan struct{}
	shutdownOnce sync.Once
	startTime    time.Time
}

func NewDaemon(cfg *config.Config) (*Daemon, error) {
	d := &Daemon{
		config:      cfg,
		socketPath:  cfg.SocketPath,
		registry:    tools.NewRegistry(),
		connections: make(map[net.Conn]bool),
		shutdown:    make(chan struct{}),
		startTime:   time.Now(),
	}

	store, err := index.NewIndexStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	d.store = store

	d.indexer = index.NewIndexWorker(store, index.WorkerConfig{
		WorkerCount:     cfg.Index.WorkerCount,
		MaxQueueSize:    cfg.Index.MaxQueueSize,
		RateLimit:       cfg.Index.RateLimit,
		MaxFileSize:     cfg.Index.MaxFileSize,
		ExcludePatterns: cfg.Index.ExcludePatterns,
	})

	d.router = router.NewRouter(store)
	d.solvers = solver.NewManager(cfg.Solver)

	if cfg.Watcher.Enabled {
		w, err := watcher.New(cfg.Watcher, d.indexer, store)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
		d.watcher = w
	}

	d.server = rpc.NewServer(d.registry)

	if err := d.registerAllTools(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return d, nil
}

func (d *Daemon) registerAllTools() error {
	d.registry.Register(tools.NewHealthTool())

	for _, tool := range results.GetTools(d.router) {
		if err := d.registry.Register(tool); err != nil {
			return fmt.Errorf("results: %w", err)
		}
	}

	for _, tool := range vars.GetTools(d.store, d.indexer, d.router) {
		if err := d.registry.Register(tool); err != nil {
			return fmt.Errorf("vars: %w", err)
		}
	}

	for _, tool := range simopt.GetTools() {
		if err := d.registry.Register(tool); err != nil {
			return fmt.Errorf("simopt: %w", err)
		}
	}

	for _, tool := range convtools.GetTools() {
		if err := d.registry.Register(tool); err != nil {
			return fmt.Errorf("convert: %w", err)
		}
	}

	for _, tool := range rftools.GetTools() {
		if err := d.registry.Register(tool); err != nil {
			return fmt.Errorf("rainflow: %w", err)
		}
	}

	for _, tool := range runs.GetTools(d.solvers, d.store) {
		if err := d.registry.Register(tool); err != nil {
			return fmt.Errorf("runs: %w", err)
		}
	}

	return nil
}

// AddWatchRoot registers a directory for live indexing. Existing data
// files under the root are enqueued at low priority.
func (d *Daemon) AddWatchRoot(path string) error {
	if d.watcher == nil {
		return fmt.Errorf("watcher disabled")
	}
	return d.watcher.AddRoot(path)
}

func (d *Daemon) Start() error {
	d.listener = NewSocketListener(d.socketPath)
	if err := d.listener.Start(); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	d.indexer.Start()
	if d.watcher != nil {
		if err := d.watcher.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
	}

	go d.acceptConnections()
	d.handleSignals()

	return nil
}

func (d *Daemon) acceptConnections() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
				continue
			}
		}

		d.connMu.Lock()
		d.connections[conn] = true
		d.connMu.Unlock()

		go d.handleConnection(conn)
	}
}

func (d *Daemon) handleConnection(conn net.Conn) {
	defer func() {
		conn.Close()
		d.connMu.Lock()
		delete(d.connections, conn)
		d.connMu.Unlock()
	}()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req rpc.Request
		if err := decoder.Decode(&req); err != nil {
			return
		}

		resp := d.server.HandleRequest(&req)

		if err := encoder.Encode(resp); err != nil {
			return
		}
	}
}

func (d *Daemon) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-d.shutdown:
	}
	d.Shutdown()
}

func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)

		if d.listener != nil {
			d.listener.Close()
		}

		d.connMu.Lock()
		for conn := range d.connections {
			conn.Close()
		}
		d.connMu.Unlock()

		if d.watcher != nil {
			d.watcher.Stop()
		}
		d.indexer.Stop()
		d.solvers.Close()
		d.store.Close()

		os.Remove(d.socketPath)
	})
}

func (d *Daemon) SocketPath() string {
	return d.socketPath
}

func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.startTime)
}

func (d *Daemon) ToolCount() int {
	return len(d.registry.Names())
}
