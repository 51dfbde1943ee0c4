package media

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pose-browser/internal/filesystem"
	"pose-browser/internal/logging"
	"pose-browser/internal/metrics"
	"pose-browser/internal/posefile"
	"pose-browser/internal/posetypes"

	"github.com/disintegration/imaging"
)

// Source says where a candidate image was found.
type Source string

const (
	// SourceEmbedded is an image stored inside the pose document.
	SourceEmbedded Source = "embedded"
	// SourceSibling is an image in the document's own directory.
	SourceSibling Source = "sibling"
	// SourceParent is an image in the directory above the document.
	SourceParent Source = "parent"
)

// Candidate is one preview image for a document.
type Candidate struct {
	Path   string `json:"path"`
	Source Source `json:"source"`
}

// Resolver finds preview images for pose documents. It is safe for
// concurrent use.
type Resolver struct {
	embeddedDir string
	retry       filesystem.RetryConfig
	mu          sync.Mutex
}

// NewResolver creates a resolver that materialises embedded images under
// cacheDir/embedded.
func NewResolver(cacheDir string) *Resolver {
	embeddedDir := filepath.Join(cacheDir, "embedded")
	if err := os.MkdirAll(embeddedDir, 0o755); err != nil {
		logging.Warn("Resolver: failed to create embedded image dir: %v", err)
	}
	return &Resolver{
		embeddedDir: embeddedDir,
		retry:       filesystem.DefaultRetryConfig(),
	}
}

// Candidates returns every preview image for the document at docPath in
// priority order. The embedded image, when present, is always first.
// Filesystem errors are logged and yield fewer candidates, never an error.
func (r *Resolver) Candidates(docPath string) []Candidate {
	var candidates []Candidate

	embedded, err := r.embedded(docPath)
	switch {
	case err != nil:
		logging.Debug("Resolver: no embedded image for %s: %v", docPath, err)
	case embedded != "":
		candidates = append(candidates, Candidate{Path: embedded, Source: SourceEmbedded})
	}

	dir := filepath.Dir(docPath)
	siblings := r.imagesIn(dir)
	if len(siblings) > 0 {
		for _, p := range siblings {
			candidates = append(candidates, Candidate{Path: p, Source: SourceSibling})
		}
		return candidates
	}

	if parent := filepath.Dir(dir); parent != dir {
		for _, p := range r.imagesIn(parent) {
			candidates = append(candidates, Candidate{Path: p, Source: SourceParent})
		}
	}
	return candidates
}

// Resolve returns the first candidate for docPath, or ok=false for "no image".
func (r *Resolver) Resolve(docPath string) (imagePath string, ok bool) {
	start := time.Now()
	defer func() {
		metrics.ImageResolveDuration.Observe(time.Since(start).Seconds())
	}()

	candidates := r.Candidates(docPath)
	if len(candidates) == 0 {
		metrics.ImageResolutionsTotal.WithLabelValues("none").Inc()
		return "", false
	}

	first := candidates[0]
	metrics.ImageResolutionsTotal.WithLabelValues(string(first.Source)).Inc()
	return first.Path, true
}

// CandidatePaths returns the paths of Candidates in order.
func (r *Resolver) CandidatePaths(docPath string) []string {
	candidates := r.Candidates(docPath)
	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, c.Path)
	}
	return paths
}

// imagesIn lists the top-level preview images of dir in name order.
func (r *Resolver) imagesIn(dir string) []string {
	entries, err := filesystem.ReadDirWithRetry(dir, r.retry)
	if err != nil {
		logging.Debug("Resolver: cannot list %s: %v", dir, err)
		return nil
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || !posetypes.IsImage(entry.Name()) {
			continue
		}
		images = append(images, filepath.Join(dir, entry.Name()))
	}
	return images
}

// embedded returns the cache path of the document's embedded image, writing
// it on first use. An empty path means the document has none.
func (r *Resolver) embedded(docPath string) (string, error) {
	data, ok, err := posefile.EmbeddedImage(docPath)
	if err != nil || !ok {
		return "", err
	}

	cachePath := filepath.Join(r.embeddedDir, fmt.Sprintf("%x.png", md5.Sum(data)))
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	if err := writeEmbedded(data, cachePath); err != nil {
		metrics.EmbeddedCacheWrites.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.EmbeddedCacheWrites.WithLabelValues("success").Inc()
	logging.Verbose("Resolver: cached embedded image of %s at %s", docPath, cachePath)
	return cachePath, nil
}

// writeEmbedded decodes a raw payload and stores it as PNG at cachePath.
func writeEmbedded(data []byte, cachePath string) error {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode embedded image: %w", err)
	}

	// imaging picks the encoder from the extension, so the temp name keeps it.
	tmp := strings.TrimSuffix(cachePath, ".png") + ".tmp.png"
	if err := imaging.Save(img, tmp); err != nil {
		return fmt.Errorf("save embedded image: %w", err)
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("move embedded image into cache: %w", err)
	}
	return nil
}
