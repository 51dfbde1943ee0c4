// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - CACHE_DIR: Path to cache directory for thumbnails and embedded previews (default: /cache)
//   - DATABASE_DIR: Path to the settings database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - IMAGE_REFRESH_INTERVAL: Minimum time between unforced image syncs as Go duration (default: 5m)
//   - APPLIER_URL: Base URL of the pose applier; empty disables preview and apply
//   - SEED_CONFIG: Optional YAML file seeding library roots and toggles on first run
//   - DISPLAY_SIZE: Display size used to scale the image viewer, WIDTHxHEIGHT (default: 1920x1080)
//   - LOG_LEVEL: Logging level - verbose, debug, info, warn, error (default: info)
//   - LOG_REQUESTS: Log API requests (default: true)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//
// GOMEMLIMIT, MEMORY_LIMIT and MEMORY_RATIO are read by the memory package
// before LoadConfig runs.
//
// # Directory Setup
//
// The database directory is required and must be writable. The cache
// directory is optional; when it cannot be written thumbnails are disabled.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogSettingsInit(time.Since(settingsStart))
//	startup.LogLibraryInit(roots, config.ImageRefreshInterval)
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
package startup
