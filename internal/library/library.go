package library

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"pose-browser/internal/filesystem"
	"pose-browser/internal/logging"
	"pose-browser/internal/metrics"
	"pose-browser/internal/posefile"
	"pose-browser/internal/posetypes"
	"pose-browser/internal/workers"
)

const (
	syncDocuments = "documents"
	syncImages    = "images"
)

// Config is the configuration collaborator holding the library roots.
type Config interface {
	LibraryRoots() []string
	ImagesEnabled() bool
	AddLibraryRoot(path string) error
	ClearLibraryRoots() error
}

// ImageResolver finds the preview image for a document path.
type ImageResolver interface {
	Resolve(docPath string) (imagePath string, ok bool)
}

// MemoryGate holds image work back while memory is critical. WaitIfPaused
// returns false when the work should be skipped.
type MemoryGate interface {
	WaitIfPaused() bool
}

// Library is the in-memory index of pose documents.
type Library struct {
	config   Config
	resolver ImageResolver

	mu        sync.RWMutex
	documents []*Document
	byPath    map[string]*Document
	shortPath *regexp.Regexp
	lastSync  time.Time
	lastWalk  walkStats
	// generation counts index clears.
	generation uint64

	syncMu       sync.Mutex
	isSyncing    bool
	isImageSync  bool
	imageLimiter *RateLimiter
	walkerConfig WalkerConfig
	memoryGate   MemoryGate
	bg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once

	hooksMu sync.Mutex
	onClear []func()
	onSync  []func()
}

// Option configures a Library.
type Option func(*Library)

// WithRefreshInterval sets the minimum interval between unforced image
// refreshes.
func WithRefreshInterval(d time.Duration) Option {
	return func(l *Library) {
		l.imageLimiter = NewRateLimiter(d)
	}
}

// WithWalkerConfig overrides the parallel walker settings.
func WithWalkerConfig(c WalkerConfig) Option {
	return func(l *Library) {
		l.walkerConfig = c
	}
}

// WithMemoryGate makes image sync workers wait on gate before each document.
func WithMemoryGate(gate MemoryGate) Option {
	return func(l *Library) {
		l.memoryGate = gate
	}
}

// New creates an empty library.
func New(config Config, resolver ImageResolver, opts ...Option) *Library {
	l := &Library{
		config:       config,
		resolver:     resolver,
		byPath:       make(map[string]*Document),
		imageLimiter: NewRateLimiter(DefaultRefreshInterval),
		walkerConfig: DefaultWalkerConfig(),
		stopChan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnClear registers fn to run whenever a full sync clears the index, so
// focus, preview and viewer state tied to the old records can be dropped.
func (l *Library) OnClear(fn func()) {
	l.hooksMu.Lock()
	defer l.hooksMu.Unlock()
	l.onClear = append(l.onClear, fn)
}

// OnSyncComplete registers fn to run after each full or image sync.
func (l *Library) OnSyncComplete(fn func()) {
	l.hooksMu.Lock()
	defer l.hooksMu.Unlock()
	l.onSync = append(l.onSync, fn)
}

func (l *Library) runHooks(which *[]func()) {
	l.hooksMu.Lock()
	hooks := slices.Clone(*which)
	l.hooksMu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// tryStart attempts to set a sync guard, returns false if already set.
func (l *Library) tryStart(flag *bool, kind string) bool {
	l.syncMu.Lock()
	defer l.syncMu.Unlock()

	if *flag {
		metrics.SyncDroppedTotal.WithLabelValues(kind).Inc()
		return false
	}
	*flag = true
	metrics.SyncRunning.WithLabelValues(kind).Set(1)
	return true
}

// finish clears a sync guard.
func (l *Library) finish(flag *bool, kind string) {
	l.syncMu.Lock()
	defer l.syncMu.Unlock()

	*flag = false
	metrics.SyncRunning.WithLabelValues(kind).Set(0)
}

// IsSyncing reports whether a full sync is in progress.
func (l *Library) IsSyncing() bool {
	l.syncMu.Lock()
	defer l.syncMu.Unlock()
	return l.isSyncing
}

// IsImageSyncing reports whether an image sync is in progress.
func (l *Library) IsImageSyncing() bool {
	l.syncMu.Lock()
	defer l.syncMu.Unlock()
	return l.isImageSync
}

// FullSync rebuilds the index from the configured roots. It returns false
// when no configured root exists or when another full sync is running.
func (l *Library) FullSync() bool {
	roots := existingRoots(l.config.LibraryRoots())
	if len(roots) == 0 {
		logging.Debug("Full sync skipped, no library root exists")
		return false
	}

	if !l.tryStart(&l.isSyncing, syncDocuments) {
		logging.Info("Full sync already in progress, skipping...")
		return false
	}
	defer l.finish(&l.isSyncing, syncDocuments)

	metrics.SyncRunsTotal.WithLabelValues(syncDocuments).Inc()
	startTime := time.Now()
	logging.Info("Starting full sync of %d library roots...", len(roots))

	l.clear()
	l.runHooks(&l.onClear)

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string][]string{"library": roots}))

	walker := NewWalker(roots, l.walkerConfig)
	paths := walker.Walk()
	var walked walkStats
	walked.files, walked.folders, walked.errors = walker.Stats()
	sort.Strings(paths)
	paths = slices.Compact(paths)

	docs := make([]*Document, 0, len(paths))
	byPath := make(map[string]*Document, len(paths))
	for _, p := range paths {
		doc := NewDocument(p)
		docs = append(docs, doc)
		byPath[p] = doc
	}

	matcher := shortPathMatcher(roots)

	l.mu.Lock()
	l.documents = docs
	l.byPath = byPath
	l.shortPath = matcher
	l.lastSync = time.Now()
	l.lastWalk = walked
	l.mu.Unlock()

	duration := time.Since(startTime)
	metrics.SyncDuration.WithLabelValues(syncDocuments).Observe(duration.Seconds())
	metrics.SyncLastRunTimestamp.WithLabelValues(syncDocuments).Set(float64(time.Now().Unix()))
	metrics.LibraryRoots.Set(float64(len(roots)))
	logging.Info("Full sync complete: %d documents in %v", len(docs), duration)

	if l.config.ImagesEnabled() {
		l.RefreshImages(true)
	}

	l.runHooks(&l.onSync)
	return true
}

// TriggerFullSync starts a full sync in the background.
func (l *Library) TriggerFullSync() {
	l.bg.Add(1)
	go func() {
		defer l.bg.Done()
		l.FullSync()
	}()
}

// RefreshImages schedules an image sync through the rate limiter. It
// reports whether an image sync started. A refresh dropped because another
// image sync is running does not reset the interval.
func (l *Library) RefreshImages(force bool) bool {
	return l.imageLimiter.Run(l.ImageSync, force)
}

// ImageSync resolves preview images for every indexed document in the
// background. It returns false when another image sync is running.
func (l *Library) ImageSync() bool {
	if !l.tryStart(&l.isImageSync, syncImages) {
		logging.Info("Image sync already in progress, skipping...")
		return false
	}

	docs, generation := l.prioritized()

	l.bg.Add(1)
	go func() {
		defer l.bg.Done()
		defer l.finish(&l.isImageSync, syncImages)
		l.resolveAll(docs)
		if l.currentGeneration() != generation {
			logging.Info("Index rebuilt during image sync, next refresh resolves the new index")
			l.imageLimiter.Reset()
		}
		l.runHooks(&l.onSync)
	}()
	return true
}

func (l *Library) currentGeneration() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.generation
}

// prioritized returns the documents with visible ones first, and the index
// generation they belong to.
func (l *Library) prioritized() ([]*Document, uint64) {
	l.mu.RLock()
	docs := slices.Clone(l.documents)
	generation := l.generation
	l.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Visible() && !docs[j].Visible()
	})
	return docs, generation
}

func (l *Library) resolveAll(docs []*Document) {
	metrics.SyncRunsTotal.WithLabelValues(syncImages).Inc()
	startTime := time.Now()

	numWorkers := workers.ForIO(8)
	logging.Info("Starting image sync of %d documents with %d workers", len(docs), numWorkers)

	jobs := make(chan *Document)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				if l.stopped() || (l.memoryGate != nil && !l.memoryGate.WaitIfPaused()) {
					metrics.ImageResolutionsTotal.WithLabelValues("skipped").Inc()
					continue
				}
				l.resolveOne(doc)
			}
		}()
	}
	for _, doc := range docs {
		jobs <- doc
	}
	close(jobs)
	wg.Wait()

	duration := time.Since(startTime)
	metrics.SyncDuration.WithLabelValues(syncImages).Observe(duration.Seconds())
	metrics.SyncLastRunTimestamp.WithLabelValues(syncImages).Set(float64(time.Now().Unix()))
	logging.Info("Image sync complete: %d documents in %v", len(docs), duration)
}

// resolveOne must never let one document stop the batch.
func (l *Library) resolveOne(doc *Document) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ImageResolutionsTotal.WithLabelValues("error").Inc()
			logging.Error("Image resolution panicked for %s: %v", doc.Path, r)
		}
	}()

	if imagePath, ok := l.resolver.Resolve(doc.Path); ok {
		doc.SetImagePath(imagePath)
	} else {
		doc.SetImagePath("")
	}

	parsed, err := posefile.Load(doc.Path)
	if err != nil {
		logging.Debug("Metadata unavailable for %s: %v", doc.Path, err)
		return
	}
	doc.SetTags(posefile.Tags(parsed))
}

// Stop makes running image syncs skip the documents they have not reached.
// Call Wait afterwards to let in-flight resolutions finish.
func (l *Library) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}

func (l *Library) stopped() bool {
	select {
	case <-l.stopChan:
		return true
	default:
		return false
	}
}

// Wait blocks until background syncs started so far have finished.
func (l *Library) Wait() {
	l.bg.Wait()
}

func (l *Library) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.documents = nil
	l.byPath = make(map[string]*Document)
	l.generation++
}

// AddLibraryRoot persists a new root and re-syncs.
func (l *Library) AddLibraryRoot(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("library root must not be empty")
	}
	if err := l.config.AddLibraryRoot(path); err != nil {
		return fmt.Errorf("add library root: %w", err)
	}
	logging.Info("Library root added: %s", path)
	l.FullSync()
	return nil
}

// RemoveAllRoots clears the configured roots and the index.
func (l *Library) RemoveAllRoots() error {
	if err := l.config.ClearLibraryRoots(); err != nil {
		return fmt.Errorf("clear library roots: %w", err)
	}

	l.mu.Lock()
	l.documents = nil
	l.byPath = make(map[string]*Document)
	l.shortPath = nil
	l.mu.Unlock()

	l.runHooks(&l.onClear)
	metrics.LibraryRoots.Set(0)
	logging.Info("All library roots removed")
	return nil
}

// Documents returns a copy of the indexed documents in path order.
func (l *Library) Documents() []*Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.documents)
}

// Document looks up an indexed document by path.
func (l *Library) Document(path string) (*Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc, ok := l.byPath[path]
	return doc, ok
}

// LastSync returns when the index was last rebuilt.
func (l *Library) LastSync() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastSync
}

// SetVisible marks exactly the given paths as on screen.
func (l *Library) SetVisible(paths []string) {
	visible := make(map[string]bool, len(paths))
	for _, p := range paths {
		visible[p] = true
	}
	for _, doc := range l.Documents() {
		doc.SetVisible(visible[doc.Path])
	}
}

// ShortPath returns path with its library root prefix removed, for display.
func (l *Library) ShortPath(path string) string {
	l.mu.RLock()
	matcher := l.shortPath
	l.mu.RUnlock()

	if matcher == nil {
		return path
	}
	return matcher.ReplaceAllLiteralString(path, "")
}

// GetStats implements metrics.StatsProvider.
func (l *Library) GetStats() metrics.Stats {
	l.mu.RLock()
	docs := slices.Clone(l.documents)
	walked := l.lastWalk
	l.mu.RUnlock()

	stats := metrics.Stats{
		Roots:          len(l.config.LibraryRoots()),
		TotalDocuments: len(docs),
		FilesScanned:   walked.files,
		FoldersScanned: walked.folders,
		WalkErrors:     walked.errors,
	}
	for _, doc := range docs {
		switch doc.Format {
		case posetypes.FormatAnamnesis:
			stats.AnamnesisPoses++
		case posetypes.FormatCMTool:
			stats.CMToolPoses++
		}
		if _, ok := doc.ImagePath(); ok {
			stats.DocumentsWithImage++
		}
	}
	return stats
}

// existingRoots returns the configured roots that exist on disk, without
// duplicates, in configuration order.
func existingRoots(roots []string) []string {
	seen := make(map[string]bool, len(roots))
	var out []string
	for _, root := range roots {
		if seen[root] {
			continue
		}
		seen[root] = true
		if filesystem.DirExists(root) {
			out = append(out, root)
		} else {
			logging.Warn("Library root does not exist: %s", root)
		}
	}
	return out
}

// shortPathMatcher matches any root at the start of a path, ignoring case.
// Longer roots come first so nested roots strip the most specific prefix.
func shortPathMatcher(roots []string) *regexp.Regexp {
	if len(roots) == 0 {
		return nil
	}

	sorted := slices.Clone(roots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, root := range sorted {
		quoted[i] = regexp.QuoteMeta(root)
	}
	return regexp.MustCompile(`(?i)^(` + strings.Join(quoted, "|") + `)`)
}
