package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"pose-browser/internal/logging"
)

// VolumeResolver maps file paths to volume labels for metric labeling
// using longest-prefix matching on absolute paths.
type VolumeResolver struct {
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute, with trailing separator
	name string
}

// NewVolumeResolver creates a resolver from pairs of label and root paths.
// A label may own several roots, e.g. every configured library.
func NewVolumeResolver(volumes map[string][]string) *VolumeResolver {
	var mounts []volumeMount
	for name, paths := range volumes {
		for _, path := range paths {
			absPath, err := filepath.Abs(path)
			if err != nil {
				absPath = path
			}
			if !strings.HasSuffix(absPath, string(filepath.Separator)) {
				absPath += string(filepath.Separator)
			}
			mounts = append(mounts, volumeMount{path: absPath, name: name})
		}
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume label for path, or "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	for _, mount := range vr.mounts {
		if strings.HasPrefix(absPath+string(filepath.Separator), mount.path) {
			return mount.name
		}
	}
	return "unknown"
}

var (
	resolverMu      sync.RWMutex
	defaultResolver *VolumeResolver
)

// SetDefaultVolumeResolver replaces the package-level resolver. It is called
// again whenever the library roots change.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	defaultResolver = vr
}

func currentResolver() *VolumeResolver {
	resolverMu.RLock()
	defer resolverMu.RUnlock()
	return defaultResolver
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver when set.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return currentResolver().Resolve(path)
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn, retrying ESTALE failures with capped exponential backoff.
func withRetry[T any](operation, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.resolveVolume(path)
	obs := observe()
	backoff := config.InitialBackoff

	var result T
	var err error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", operation, attempt, path)
				if obs != nil {
					obs.ObserveRetrySuccess(operation, volume)
				}
			}
			break
		}

		if !isNFSStaleError(err) {
			break
		}

		if obs != nil {
			obs.ObserveStaleError(operation, volume)
		}

		if attempt == config.MaxRetries {
			logging.Warn("%s failed after %d retries for %s: %v", operation, config.MaxRetries, path, err)
			if obs != nil {
				obs.ObserveRetryFailure(operation, volume)
			}
			break
		}

		if obs != nil {
			obs.ObserveRetryAttempt(operation, volume)
		}
		logging.Debug("%s stale file handle for %s, retrying in %v (attempt %d/%d)",
			operation, path, backoff, attempt+1, config.MaxRetries)
		time.Sleep(backoff)

		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	if obs != nil {
		obs.ObserveOperation(volume, operation, time.Since(start).Seconds(), err)
	}
	return result, err
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// ReadDirWithRetry performs os.ReadDir with retry logic for NFS stale file handle errors
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}

// ReadFileWithRetry performs os.ReadFile with retry logic for NFS stale file handle errors
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	return withRetry("read", path, config, func() ([]byte, error) {
		return os.ReadFile(path)
	})
}

// DirExists reports whether path is an existing directory.
func DirExists(path string) bool {
	info, err := StatWithRetry(path, DefaultRetryConfig())
	return err == nil && info.IsDir()
}
