// Package solver drives external simulation runner processes over
// JSON-RPC on stdio. Each backend binary is started on demand, kept
// alive while runs are active and shut down after an idle period.
package solver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/jsonrpc2"
)

var (
	ErrNotInitialized = errors.New("solver client not initialized")
	ErrAlreadyClosed  = errors.New("solver client already closed")
)

type Client struct {
	conn         *jsonrpc2.Conn
	config       ClientConfig
	state        atomic.Value
	backendInfo  InitializeResult
	requestCount int64
	errorCount   int64
	lastRequest  time.Time
	mu           sync.RWMutex
	closedCh     chan struct{}
}

type ClientConfig struct {
	Backend        Backend
	InitTimeout    time.Duration
	RequestTimeout time.Duration
}

func DefaultClientConfig(backend Backend) ClientConfig {
	return ClientConfig{
		Backend:        backend,
		InitTimeout:    30 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *stdioReadWriteCloser) Write(p []byte) (int, error) {
	return s.writer.Write(p)
}

func (s *stdioReadWriteCloser) Close() error {
	rerr := s.reader.Close()
	werr := s.writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

func NewClient(ctx context.Context, stdin io.WriteCloser, stdout io.ReadCloser, config ClientConfig) (*Client, error) {
	rwc := &stdioReadWriteCloser{
		reader: stdout,
		writer: stdin,
	}

	c := &Client{
		config:   config,
		closedCh: make(chan struct{}),
	}
	c.state.Store(StateStarting)

	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	c.conn = jsonrpc2.NewConn(ctx, stream, &clientHandler{client: c})

	return c, nil
}

type clientHandler struct {
	client *Client
}

func (h *clientHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
}

func (c *Client) Initialize(ctx context.Context, workDir string) error {
	c.mu.Lock()
	if c.getState() != StateStarting {
		c.mu.Unlock()
		return fmt.Errorf("cannot initialize: client in state %s", c.getState())
	}
	c.state.Store(StateInitializing)
	c.mu.Unlock()

	initCtx, cancel := context.WithTimeout(ctx, c.config.InitTimeout)
	defer cancel()

	params := InitializeParams{
		ProcessID: os.Getpid(),
		WorkDir:   workDir,
	}

	var result InitializeResult
	if err := c.conn.Call(initCtx, "initialize", params, &result); err != nil {
		c.state.Store(StateError)
		return fmt.Errorf("initialize failed: %w", err)
	}

	c.mu.Lock()
	c.backendInfo = result
	c.mu.Unlock()

	if err := c.conn.Notify(initCtx, "initialized", struct{}{}); err != nil {
		c.state.Store(StateError)
		return fmt.Errorf("initialized notification failed: %w", err)
	}

	c.state.Store(StateReady)
	return nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	if !c.IsReady() {
		return ErrNotInitialized
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var result interface{}
	if err := c.conn.Call(timeoutCtx, "shutdown", nil, &result); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	if err := c.conn.Notify(ctx, "exit", nil); err != nil {
		return fmt.Errorf("exit notification failed: %w", err)
	}

	return nil
}

// StartRun submits a run to the backend. The backend acknowledges with
// the initial status; completion is observed through RunStatus.
func (c *Client) StartRun(ctx context.Context, req RunRequest) (*RunStatusInfo, error) {
	if !c.IsReady() {
		return nil, ErrNotInitialized
	}

	c.recordRequest()

	timeoutCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var status RunStatusInfo
	if err := c.conn.Call(timeoutCtx, "run/start", req, &status); err != nil {
		c.recordError()
		return nil, fmt.Errorf("run start failed: %w", err)
	}

	return &status, nil
}

func (c *Client) RunStatus(ctx context.Context, runID string) (*RunStatusInfo, error) {
	if !c.IsReady() {
		return nil, ErrNotInitialized
	}

	c.recordRequest()

	timeoutCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var status RunStatusInfo
	if err := c.conn.Call(timeoutCtx, "run/status", RunStatusParams{RunID: runID}, &status); err != nil {
		c.recordError()
		return nil, fmt.Errorf("run status failed: %w", err)
	}

	return &status, nil
}

func (c *Client) Close() error {
	select {
	case <-c.closedCh:
		return ErrAlreadyClosed
	default:
		close(c.closedCh)
	}

	c.state.Store(StateStopped)
	return c.conn.Close()
}

func (c *Client) IsReady() bool {
	return c.getState() == StateReady
}

func (c *Client) getState() SolverState {
	return c.state.Load().(SolverState)
}

func (c *Client) GetState() SolverState {
	return c.getState()
}

func (c *Client) BackendInfo() InitializeResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backendInfo
}

func (c *Client) Stats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ClientStats{
		Backend:      c.config.Backend,
		State:        c.getState(),
		RequestCount: atomic.LoadInt64(&c.requestCount),
		ErrorCount:   atomic.LoadInt64(&c.errorCount),
		LastRequest:  c.lastRequest,
	}
}

type ClientStats struct {
	Backend      Backend     `json:"backend"`
	State        SolverState `json:"state"`
	RequestCount int64       `json:"request_count"`
	ErrorCount   int64       `json:"error_count"`
	LastRequest  time.Time   `json:"last_request,omitempty"`
}

func (c *Client) recordRequest() {
	atomic.AddInt64(&c.requestCount, 1)
	c.mu.Lock()
	c.lastRequest = time.Now()
	c.mu.Unlock()
}

func (c *Client) recordError() {
	atomic.AddInt64(&c.errorCount, 1)
}
