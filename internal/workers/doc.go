/*
Package workers sizes the goroutine pools used for background image
resolution and thumbnail rendering.

Counts are derived from runtime.GOMAXPROCS(0) rather than runtime.NumCPU(),
so a browser running in a CPU-limited container does not oversubscribe:

	numWorkers := workers.ForIO(8)  // image sync: 2 per CPU, at most 8
	numWorkers := workers.ForCPU(4) // thumbnail encoding: 1 per CPU, at most 4

Set IMAGE_SYNC_WORKERS to pin the count, e.g. to 1 on a slow network share.
*/
package workers
