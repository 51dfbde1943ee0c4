package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv is the environment variable that pins the worker count.
const OverrideEnv = "IMAGE_SYNC_WORKERS"

// Count returns the number of workers for a task type, based on GOMAXPROCS
// so container CPU limits are respected.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// limit caps the result; 0 means no cap. IMAGE_SYNC_WORKERS overrides the
// computed value but is still capped by limit.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns worker count for CPU-bound tasks such as thumbnail encoding.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks such as image resolution,
// which is dominated by directory listings and small file reads.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
