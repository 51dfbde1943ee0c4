package filesystem

// Observer records filesystem operation metrics. The metrics package
// implements it; leaving it unset skips recording.
type Observer interface {
	// ObserveOperation records duration and error status for a filesystem operation.
	// operation is one of "stat", "readdir", "read".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(operation, volume string)
	ObserveRetrySuccess(operation, volume string)
	ObserveRetryFailure(operation, volume string)
	ObserveStaleError(operation, volume string)
}

var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
