package media

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pose-browser/internal/filesystem"
	"pose-browser/internal/geometry"
	"pose-browser/internal/logging"
	"pose-browser/internal/metrics"

	"github.com/disintegration/imaging"
)

var (
	// ErrThumbnailsDisabled is returned when previews are switched off.
	ErrThumbnailsDisabled = errors.New("thumbnails disabled")
	// ErrImageNotFound is returned when the source image cannot be read.
	ErrImageNotFound = errors.New("image not found")
)

// ThumbnailGenerator renders and caches JPEG thumbnails of preview images.
type ThumbnailGenerator struct {
	cacheDir string
	enabled  bool
	quality  int
	mu       sync.Mutex
}

// NewThumbnailGenerator creates a generator caching under cacheDir/thumbnails.
func NewThumbnailGenerator(cacheDir string, enabled bool) *ThumbnailGenerator {
	dir := filepath.Join(cacheDir, "thumbnails")
	if enabled {
		logging.Debug("ThumbnailGenerator: enabled, cache dir: %s", dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Warn("ThumbnailGenerator: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("ThumbnailGenerator: disabled")
	}
	return &ThumbnailGenerator{
		cacheDir: dir,
		enabled:  enabled,
		quality:  85,
	}
}

// IsEnabled reports whether thumbnails are rendered at all.
func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// GetThumbnail returns a JPEG of imagePath sized for a box of size.
//
// With crop set the image is cut to the box aspect and scaled to exactly fill
// it. Without crop the image keeps its aspect and is scaled to the box height.
func (t *ThumbnailGenerator) GetThumbnail(imagePath string, size geometry.Vec2, crop bool) ([]byte, error) {
	if !t.enabled {
		return nil, ErrThumbnailsDisabled
	}
	if size.X < 1 || size.Y < 1 {
		return nil, fmt.Errorf("invalid thumbnail size %vx%v", size.X, size.Y)
	}

	info, err := filesystem.StatWithRetry(imagePath, filesystem.DefaultRetryConfig())
	if err != nil {
		metrics.ThumbnailRendersTotal.WithLabelValues("error_not_found").Inc()
		return nil, fmt.Errorf("%w: %v", ErrImageNotFound, err)
	}

	cachePath := t.cachePath(imagePath, info.ModTime(), size, crop)
	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}
	metrics.ThumbnailCacheMisses.Inc()

	start := time.Now()
	data, err := t.render(imagePath, size, crop)
	metrics.ThumbnailRenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	metrics.ThumbnailRendersTotal.WithLabelValues("success").Inc()

	if err := os.WriteFile(cachePath, data, 0o644); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
	} else {
		logging.Verbose("Thumbnail cached: %s", cachePath)
	}
	return data, nil
}

func (t *ThumbnailGenerator) render(imagePath string, size geometry.Vec2, crop bool) ([]byte, error) {
	img, err := LoadImageConstrained(imagePath, MaxImageDimension, MaxImagePixels)
	if err != nil {
		metrics.ThumbnailRendersTotal.WithLabelValues("error_decode").Inc()
		return nil, fmt.Errorf("thumbnail decode failed: %w", err)
	}

	thumb := Fit(img, size, crop)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		metrics.ThumbnailRendersTotal.WithLabelValues("error_encode").Inc()
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit crops and scales img into a box of size using the browser's
// thumbnail geometry.
func Fit(img image.Image, size geometry.Vec2, crop bool) image.Image {
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	if crop {
		uv0, uv1 := geometry.CropRatio(w, h, size.X, size.Y)
		x0, y0, x1, y1 := geometry.PixelRect(uv0, uv1, bounds.Dx(), bounds.Dy())
		rect := image.Rect(x0, y0, x1, y1).Add(bounds.Min)
		if rect.Dx() > 0 && rect.Dy() > 0 {
			img = imaging.Crop(img, rect)
		}
		return imaging.Resize(img, pixels(size.X), pixels(size.Y), imaging.Lanczos)
	}

	fitted := geometry.ScaleToFit(w, h, size, false, true)
	return imaging.Resize(img, pixels(fitted.X), pixels(fitted.Y), imaging.Lanczos)
}

func pixels(v float64) int {
	return max(1, int(math.Round(v)))
}

func (t *ThumbnailGenerator) cachePath(imagePath string, modTime time.Time, size geometry.Vec2, crop bool) string {
	key := fmt.Sprintf("%s|%d|%dx%d|%t", imagePath, modTime.UnixNano(), pixels(size.X), pixels(size.Y), crop)
	return filepath.Join(t.cacheDir, fmt.Sprintf("%x.jpg", md5.Sum([]byte(key))))
}

// ClearCache removes every cached thumbnail and returns how many were removed.
func (t *ThumbnailGenerator) ClearCache() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := os.ReadDir(t.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read thumbnail cache: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jpg" {
			continue
		}
		if err := os.Remove(filepath.Join(t.cacheDir, entry.Name())); err != nil {
			logging.Warn("Failed to remove cached thumbnail %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	logging.Info("Thumbnail cache cleared: %d files removed", removed)
	return removed, nil
}
