// Package memory keeps image decoding inside the container's memory budget.
//
// Decoding embedded pose screenshots and rendering thumbnails allocates full
// raster buffers, so a large library resolved with several workers can spike
// well above the steady-state heap. Two pieces cooperate to prevent OOM kills:
//
//   - [ConfigureFromEnv] sets the runtime soft limit (GOMEMLIMIT) from the
//     container limit handed in through the Kubernetes Downward API.
//   - [Monitor] samples the heap against that limit and lets image workers
//     block in [Monitor.WaitIfPaused] while usage is critical.
//
// # Environment Variables
//
//   - GOMEMLIMIT: standard Go variable; when set it wins and nothing is
//     recomputed.
//   - MEMORY_LIMIT: container limit in bytes.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap, between 0 and
//     1 (default 0.85).
//
// Example Downward API wiring:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//
// A Monitor with no limit never pauses.
package memory
