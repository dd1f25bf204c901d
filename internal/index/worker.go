package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/logger"
	"github.com/dlemos/amekit/internal/matfile"
)

var log = logger.ForComponent("indexer")

type WorkerConfig struct {
	WorkerCount     int
	MaxQueueSize    int
	RateLimit       int
	MaxFileSize     int64
	ExcludePatterns []string
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		WorkerCount:  2,
		MaxQueueSize: 1000,
		RateLimit:    100,
		MaxFileSize:  256 * 1024 * 1024,
		ExcludePatterns: []string{
			"**/.git/**",
			"**/csv/**",
			"**/*.bak",
		},
	}
}

type WorkerStats struct {
	Indexed     int64
	Failed      int64
	Skipped     int64
	InQueue     int64
	IsRunning   bool
	StartedAt   time.Time
	LastIndexed time.Time
}

type IndexWorker struct {
	store  *IndexStore
	config WorkerConfig

	highQueue   chan IndexJob
	normalQueue chan IndexJob
	lowQueue    chan IndexJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rateLimiter *time.Ticker

	stats   WorkerStats
	statsMu sync.RWMutex
}

func NewIndexWorker(store *IndexStore, config WorkerConfig) *IndexWorker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &IndexWorker{
		store:       store,
		config:      config,
		highQueue:   make(chan IndexJob, 100),
		normalQueue: make(chan IndexJob, config.MaxQueueSize),
		lowQueue:    make(chan IndexJob, config.MaxQueueSize*2),
		ctx:         ctx,
		cancel:      cancel,
	}

	if config.RateLimit > 0 {
		interval := time.Second / time.Duration(config.RateLimit)
		w.rateLimiter = time.NewTicker(interval)
	}

	return w
}

func (w *IndexWorker) Start() {
	w.statsMu.Lock()
	w.stats.IsRunning = true
	w.stats.StartedAt = time.Now()
	w.statsMu.Unlock()

	log.Info("index worker started", "workers", w.config.WorkerCount)

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
}

func (w *IndexWorker) Stop() {
	log.Info("index worker stopping")

	w.cancel()
	if w.rateLimiter != nil {
		w.rateLimiter.Stop()
	}
	w.wg.Wait()

	w.statsMu.Lock()
	w.stats.IsRunning = false
	w.statsMu.Unlock()

	log.Info("index worker stopped")
}

func (w *IndexWorker) Enqueue(job IndexJob) bool {
	var queue chan IndexJob
	switch job.Priority {
	case PriorityHigh:
		queue = w.highQueue
	case PriorityNormal:
		queue = w.normalQueue
	default:
		queue = w.lowQueue
	}

	select {
	case queue <- job:
		atomic.AddInt64(&w.stats.InQueue, 1)
		return true
	default:
		log.Warn("job enqueue failed - queue full", "path", job.Path, "priority", job.Priority)
		return false
	}
}

func (w *IndexWorker) EnqueueBatch(paths []string, priority JobPriority) int {
	count := 0
	for _, path := range paths {
		if w.Enqueue(IndexJob{Path: path, Priority: priority}) {
			count++
		}
	}
	return count
}

func (w *IndexWorker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.InQueue = atomic.LoadInt64(&w.stats.InQueue)
	return stats
}

func (w *IndexWorker) worker(id int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		if w.rateLimiter != nil {
			select {
			case <-w.rateLimiter.C:
			case <-w.ctx.Done():
				return
			}
		}

		var job IndexJob
		var ok bool

		select {
		case job, ok = <-w.highQueue:
		default:
			select {
			case job, ok = <-w.normalQueue:
			default:
				select {
				case job, ok = <-w.lowQueue:
				default:
					time.Sleep(10 * time.Millisecond)
					continue
				}
			}
		}

		if !ok {
			continue
		}

		atomic.AddInt64(&w.stats.InQueue, -1)
		log.Debug("worker processing job", "worker_id", id, "path", job.Path)
		w.processJob(job)
	}
}

// IsDataFile reports whether the path is a file the index cares about.
// A .var file is indexed through its .results sibling.
func IsDataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".results", ".mat":
		return true
	default:
		return strings.HasSuffix(path, "_.results")
	}
}

func (w *IndexWorker) processJob(job IndexJob) {
	path := job.Path

	if w.shouldExclude(path) || !IsDataFile(path) {
		w.recordSkipped()
		log.Debug("skipped file", "path", path, "reason", "not a data file")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		w.recordFailed(path, err.Error())
		log.Warn("failed to index", "path", path, "error", err)
		return
	}

	if info.IsDir() {
		return
	}

	if info.Size() > w.config.MaxFileSize {
		w.recordSkipped()
		w.store.UpdateFileStatus(path, StatusSkipped, "file too large")
		log.Debug("skipped file", "path", path, "reason", "file too large")
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		w.recordFailed(path, err.Error())
		log.Warn("failed to index", "path", path, "error", err)
		return
	}

	hash := sha256.Sum256(raw)
	hashStr := hex.EncodeToString(hash[:])

	existing, _ := w.store.GetFile(path)
	if existing != nil && existing.ContentHash == hashStr {
		log.Debug("skipped file", "path", path, "reason", "content unchanged")
		return
	}

	var vars []*IndexedVariable
	var kind, system string

	switch {
	case strings.HasSuffix(path, "_.results"):
		kind = KindResults
		rs, err := ame.LoadResults(path)
		if err != nil {
			w.recordFailed(path, err.Error())
			log.Warn("failed to index", "path", path, "error", err)
			return
		}
		system = rs.System
		for col, name := range rs.Names {
			title, unit := SplitUnit(name)
			vars = append(vars, &IndexedVariable{
				Name:   title,
				Unit:   unit,
				Col:    col,
				Points: rs.Points(),
			})
		}

	case strings.HasSuffix(strings.ToLower(path), ".mat"):
		kind = KindMat
		f, err := matfile.Read(raw)
		if err != nil {
			w.recordFailed(path, err.Error())
			log.Warn("failed to index", "path", path, "error", err)
			return
		}
		for col, v := range f.Vars {
			vars = append(vars, &IndexedVariable{
				Name:   v.Name,
				Col:    col,
				Points: v.Rows,
			})
		}

	default:
		w.recordSkipped()
		return
	}

	file := &IndexedFile{
		Path:        path,
		Kind:        kind,
		System:      system,
		ContentHash: hashStr,
		Status:      StatusIndexed,
		IndexedAt:   time.Now(),
	}

	fileID, err := w.store.UpsertFile(file)
	if err != nil {
		w.recordFailed(path, err.Error())
		log.Warn("failed to index", "path", path, "error", err)
		return
	}

	if err := w.store.InsertVariables(fileID, vars); err != nil {
		w.recordFailed(path, err.Error())
		log.Warn("failed to index", "path", path, "error", err)
		return
	}

	w.recordIndexed()
	log.Info("file indexed", "path", path, "variables", len(vars))

	currentIndexed := atomic.LoadInt64(&w.stats.Indexed)
	if currentIndexed%100 == 0 {
		queueSize := atomic.LoadInt64(&w.stats.InQueue)
		log.Info("indexing progress", "indexed", currentIndexed, "pending", queueSize)
	}
}

func (w *IndexWorker) shouldExclude(path string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range w.config.ExcludePatterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

func (w *IndexWorker) recordIndexed() {
	atomic.AddInt64(&w.stats.Indexed, 1)
	w.statsMu.Lock()
	w.stats.LastIndexed = time.Now()
	w.statsMu.Unlock()
}

func (w *IndexWorker) recordFailed(path, errMsg string) {
	atomic.AddInt64(&w.stats.Failed, 1)
	w.store.UpdateFileStatus(path, StatusFailed, errMsg)
}

func (w *IndexWorker) recordSkipped() {
	atomic.AddInt64(&w.stats.Skipped, 1)
}

// SplitUnit separates a variable title from its trailing bracketed unit,
// e.g. "pump pressure [bar]" -> ("pump pressure", "bar").
func SplitUnit(title string) (name, unit string) {
	title = strings.TrimSpace(title)
	if strings.HasSuffix(title, "]") {
		if open := strings.LastIndex(title, "["); open >= 0 {
			return strings.TrimSpace(title[:open]), title[open+1 : len(title)-1]
		}
	}
	return title, ""
}
