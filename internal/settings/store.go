package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"pose-browser/internal/geometry"
	"pose-browser/internal/logging"
	"pose-browser/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Setting keys, also used as Change keys.
const (
	KeyLibraryRoots   = "library_roots"
	KeyImagesEnabled  = "images_enabled"
	KeyThumbSize      = "thumb_size"
	KeyApplierEnabled = "applier_enabled"
	KeyHostMode       = "host_mode"
)

// DefaultThumbSize is the thumbnail box used until one is configured.
var DefaultThumbSize = geometry.Vec2{X: 200, Y: 200}

// ErrNotFound is returned when a setting has never been written.
var ErrNotFound = errors.New("setting not found")

// Settings is a snapshot of the persisted configuration.
type Settings struct {
	LibraryRoots   []string      `json:"libraryRoots"`
	ImagesEnabled  bool          `json:"imagesEnabled"`
	ThumbSize      geometry.Vec2 `json:"thumbSize"`
	ApplierEnabled bool          `json:"applierEnabled"`
	HostMode       bool          `json:"hostMode"`
}

// Change describes one mutation.
type Change struct {
	Key string
}

// Store is the SQLite-backed settings store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	hostMode atomic.Bool

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(Change)
}

// Open opens or creates the settings database at dbPath. Use ":memory:"
// for a throwaway store.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Settings database path: %s", dbPath)

	connStr := dbPath
	if dbPath != ":memory:" {
		connStr = fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close settings database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to settings database: %w", err)
	}

	s := &Store{db: db, subs: make(map[int]func(Change))}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close settings database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize settings schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	-- Library roots in the order they were added; duplicates allowed
	CREATE TABLE IF NOT EXISTS library_roots (
		position INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	-- Scalar settings
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Subscribe registers fn for every change. The returned function removes
// the subscription and is safe to call more than once.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
		})
	}
}

func (s *Store) notify(key string) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(Change{Key: key})
	}
}

// recordQuery records settings query metrics
func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	}
	metrics.SettingsQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.SettingsQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (s *Store) get(ctx context.Context, key string) (value string, err error) {
	start := time.Now()
	defer func() { recordQuery("get", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

func (s *Store) set(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { recordQuery("set", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *Store) getBool(key string, fallback bool) bool {
	value, err := s.get(context.Background(), key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Warn("Failed to read setting %s: %v", key, err)
		}
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean for setting %s: %q", key, value)
		return fallback
	}
	return b
}

func (s *Store) setBool(key string, value bool) error {
	if err := s.set(context.Background(), key, strconv.FormatBool(value)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	s.notify(key)
	return nil
}

// LibraryRoots returns the configured roots in insertion order. Read errors
// are logged and yield no roots.
func (s *Store) LibraryRoots() []string {
	roots, err := s.libraryRoots(context.Background())
	if err != nil {
		logging.Error("Failed to read library roots: %v", err)
		return nil
	}
	return roots
}

func (s *Store) libraryRoots(ctx context.Context) (roots []string, err error) {
	start := time.Now()
	defer func() { recordQuery("list_roots", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT path FROM library_roots ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		roots = append(roots, path)
	}
	return roots, rows.Err()
}

// AddLibraryRoot appends a root, even if it is already configured.
func (s *Store) AddLibraryRoot(path string) (err error) {
	start := time.Now()
	defer func() { recordQuery("add_root", start, err) }()

	s.mu.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	_, err = s.db.ExecContext(ctx, "INSERT INTO library_roots (path) VALUES (?)", path)
	cancel()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("insert library root: %w", err)
	}
	s.notify(KeyLibraryRoots)
	return nil
}

// ClearLibraryRoots removes every root.
func (s *Store) ClearLibraryRoots() (err error) {
	start := time.Now()
	defer func() { recordQuery("clear_roots", start, err) }()

	s.mu.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	_, err = s.db.ExecContext(ctx, "DELETE FROM library_roots")
	cancel()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("delete library roots: %w", err)
	}
	s.notify(KeyLibraryRoots)
	return nil
}

// ImagesEnabled reports whether preview images are shown. Defaults to true.
func (s *Store) ImagesEnabled() bool {
	return s.getBool(KeyImagesEnabled, true)
}

// SetImagesEnabled switches preview images on or off.
func (s *Store) SetImagesEnabled(enabled bool) error {
	return s.setBool(KeyImagesEnabled, enabled)
}

// ApplierEnabled reports whether the external applier may be used.
// Defaults to true.
func (s *Store) ApplierEnabled() bool {
	return s.getBool(KeyApplierEnabled, true)
}

// SetApplierEnabled switches the applier integration on or off.
func (s *Store) SetApplierEnabled(enabled bool) error {
	return s.setBool(KeyApplierEnabled, enabled)
}

// ThumbSize returns the thumbnail box, DefaultThumbSize when unset.
func (s *Store) ThumbSize() geometry.Vec2 {
	value, err := s.get(context.Background(), KeyThumbSize)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Warn("Failed to read thumbnail size: %v", err)
		}
		return DefaultThumbSize
	}

	size, ok := parseSize(value)
	if !ok {
		logging.Warn("Invalid thumbnail size %q, using default", value)
		return DefaultThumbSize
	}
	return size
}

// parseSize reads a "WxH" value.
func parseSize(value string) (geometry.Vec2, bool) {
	w, h, found := strings.Cut(value, "x")
	if !found {
		return geometry.Vec2{}, false
	}
	width, errW := strconv.ParseFloat(w, 64)
	height, errH := strconv.ParseFloat(h, 64)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return geometry.Vec2{}, false
	}
	return geometry.Vec2{X: width, Y: height}, true
}

// SetThumbSize stores a new thumbnail box.
func (s *Store) SetThumbSize(size geometry.Vec2) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("invalid thumbnail size %gx%g", size.X, size.Y)
	}
	if err := s.set(context.Background(), KeyThumbSize, formatSize(size)); err != nil {
		return fmt.Errorf("save thumbnail size: %w", err)
	}
	s.notify(KeyThumbSize)
	return nil
}

func formatSize(size geometry.Vec2) string {
	return strconv.FormatFloat(size.X, 'g', -1, 64) + "x" + strconv.FormatFloat(size.Y, 'g', -1, 64)
}

// SetThumbWidth changes the thumbnail width, keeping the box aspect.
func (s *Store) SetThumbWidth(width float64) error {
	return s.SetThumbSize(geometry.ResizeKeepingAspect(s.ThumbSize(), width))
}

// InMode reports whether the host is in its pose editing mode.
func (s *Store) InMode() bool {
	return s.hostMode.Load()
}

// SetHostMode records the host editing mode.
func (s *Store) SetHostMode(inMode bool) {
	if s.hostMode.Swap(inMode) != inMode {
		s.notify(KeyHostMode)
	}
}

// Snapshot returns all settings.
func (s *Store) Snapshot() Settings {
	return Settings{
		LibraryRoots:   s.LibraryRoots(),
		ImagesEnabled:  s.ImagesEnabled(),
		ThumbSize:      s.ThumbSize(),
		ApplierEnabled: s.ApplierEnabled(),
		HostMode:       s.InMode(),
	}
}
