package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pose-browser/internal/logging"
	"pose-browser/internal/posetypes"
)

// WalkerConfig configures the parallel root walker
type WalkerConfig struct {
	// NumWorkers is the number of roots walked at once
	NumWorkers int
	// ChannelBuffer is the size of the result channel buffer
	ChannelBuffer int
}

// DefaultWalkerConfig returns defaults that are safe for network shares.
// INDEX_WORKERS overrides the worker count.
func DefaultWalkerConfig() WalkerConfig {
	numWorkers := 3
	if override := os.Getenv("INDEX_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			numWorkers = count
		}
	}

	return WalkerConfig{
		NumWorkers:    numWorkers,
		ChannelBuffer: 1000,
	}
}

// Walker walks several library roots in parallel and collects the pose
// documents under them.
type Walker struct {
	config WalkerConfig
	roots  []string

	jobs    chan string
	results chan string
	wg      sync.WaitGroup

	filesSeen   atomic.Int64
	foldersSeen atomic.Int64
	errorsCount atomic.Int64
}

// NewWalker creates a walker over roots.
func NewWalker(roots []string, config WalkerConfig) *Walker {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	return &Walker{
		config:  config,
		roots:   roots,
		jobs:    make(chan string, len(roots)),
		results: make(chan string, config.ChannelBuffer),
	}
}

// Walk returns the paths of every non-hidden pose document under the roots,
// in no particular order. Unreadable entries are logged and skipped.
func (w *Walker) Walk() []string {
	startTime := time.Now()

	workers := min(w.config.NumWorkers, max(1, len(w.roots)))
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}

	var paths []string
	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for path := range w.results {
			paths = append(paths, path)
		}
	}()

	for _, root := range w.roots {
		w.jobs <- root
	}
	close(w.jobs)

	w.wg.Wait()
	close(w.results)
	collectorWg.Wait()

	logging.Info("Library walk complete: %d documents in %d files, %d folders in %v (errors: %d)",
		len(paths), w.filesSeen.Load(), w.foldersSeen.Load(), time.Since(startTime), w.errorsCount.Load())
	return paths
}

func (w *Walker) worker(id int) {
	defer w.wg.Done()

	logging.Verbose("Walker %d started", id)
	for root := range w.jobs {
		w.walkRoot(root)
	}
	logging.Verbose("Walker %d finished", id)
}

func (w *Walker) walkRoot(root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.errorsCount.Add(1)
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil // Continue walking
		}

		if d.IsDir() {
			w.foldersSeen.Add(1)
			return nil
		}
		w.filesSeen.Add(1)

		if !posetypes.IsDocument(d.Name()) || posetypes.IsHidden(d.Name()) {
			return nil
		}

		w.results <- path
		return nil
	})
	if err != nil {
		logging.Warn("Walk of %s stopped: %v", root, err)
	}
}

type walkStats struct {
	files, folders, errors int64
}

// Stats returns counts gathered during the last walk
func (w *Walker) Stats() (files, folders, errors int64) {
	return w.filesSeen.Load(), w.foldersSeen.Load(), w.errorsCount.Load()
}
