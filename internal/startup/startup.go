package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"pose-browser/internal/geometry"
	"pose-browser/internal/logging"

	"github.com/gorilla/mux"
	"golang.org/x/term"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	CacheDir             string
	DatabaseDir          string
	Port                 string
	MetricsPort          string
	MetricsEnabled       bool
	ImageRefreshInterval time.Duration
	ApplierURL           string
	SeedConfig           string
	DisplaySize          geometry.Vec2
	LogRequests          bool
	LogHealthChecks      bool

	// Derived paths
	DatabasePath string

	// Feature flags based on directory availability
	ThumbnailsEnabled bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cacheDir := getEnv("CACHE_DIR", "/cache")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	refreshInterval := getEnvDuration("IMAGE_REFRESH_INTERVAL", 5*time.Minute)
	applierURL := getEnv("APPLIER_URL", "")
	seedConfig := getEnv("SEED_CONFIG", "")
	displaySize := getEnvSize("DISPLAY_SIZE", geometry.Vec2{X: 1920, Y: 1080})
	logRequests := getEnvBool("LOG_REQUESTS", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)

	logging.Info("  CACHE_DIR:              %s", cacheDir)
	logging.Info("  DATABASE_DIR:           %s", databaseDir)
	logging.Info("  PORT:                   %s", port)
	logging.Info("  METRICS_PORT:           %s", metricsPort)
	logging.Info("  METRICS_ENABLED:        %v", metricsEnabled)
	logging.Info("  IMAGE_REFRESH_INTERVAL: %v", refreshInterval)
	logging.Info("  APPLIER_URL:            %s", valueOrNone(applierURL))
	logging.Info("  SEED_CONFIG:            %s", valueOrNone(seedConfig))
	logging.Info("  DISPLAY_SIZE:           %gx%g", displaySize.X, displaySize.Y)
	logging.Info("  LOG_REQUESTS:           %v", logRequests)
	logging.Info("  LOG_HEALTH_CHECKS:      %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:              %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	cacheDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", cacheDir)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	config := &Config{
		CacheDir:             cacheDir,
		DatabaseDir:          databaseDir,
		Port:                 port,
		MetricsPort:          metricsPort,
		MetricsEnabled:       metricsEnabled,
		ImageRefreshInterval: refreshInterval,
		ApplierURL:           applierURL,
		SeedConfig:           seedConfig,
		DisplaySize:          displaySize,
		LogRequests:          logRequests,
		LogHealthChecks:      logHealthChecks,
		DatabasePath:         filepath.Join(databaseDir, "settings.db"),
	}

	// Ensure base database directory exists (required for settings)
	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for settings): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	// Embedded previews and thumbnails both live in the cache (optional)
	config.ThumbnailsEnabled = setupOptionalDir(cacheDir, "cache")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Settings:    ENABLED (required)")
	logging.Info("    Thumbnails:  %s", enabledString(config.ThumbnailsEnabled))
	logging.Info("    Applier:     %s", enabledString(applierURL != ""))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func valueOrNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}

// LogSettingsInit logs settings store initialization
func LogSettingsInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SETTINGS INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Settings store initialized in %v", duration)
}

// LogApplierInit logs the result of the first applier probe
func LogApplierInit(url string, available bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("APPLIER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	switch {
	case url == "":
		logging.Info("  Applier not configured, preview and apply are disabled")
	case available:
		logging.Info("  [OK] Applier reachable at %s", url)
	default:
		logging.Warn("  Applier at %s is not reachable yet", url)
		logging.Warn("  Preview and apply stay disabled until it responds")
	}
}

// LogMemoryInit logs the memory budget image work is measured against
func LogMemoryInit(source string, limitBytes int64) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if limitBytes == 0 {
		logging.Info("  No memory limit, image work is never paused")
		return
	}
	logging.Info("  Limit source:     %s", source)
	logging.Info("  Soft limit:       %.1f MiB", float64(limitBytes)/(1024*1024))
}

// LogLibraryInit logs library initialization
func LogLibraryInit(roots []string, refreshInterval time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LIBRARY INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if len(roots) == 0 {
		logging.Info("  No library roots configured yet")
	}
	for i, root := range roots {
		logging.Info("  Root %d: %s", i+1, root)
	}
	logging.Info("  Image refresh interval: %v", refreshInterval)
	logging.Info("  Starting initial sync...")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logRequests, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		// Sort group keys
		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		// Print routes by group
		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	if logRequests {
		logging.Info("  Request logging: ON")
	} else {
		logging.Info("  Request logging: OFF (set LOG_REQUESTS=true to enable)")
	}
	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	// Remove leading slash
	path = strings.TrimPrefix(path, "/")

	// Get first segment
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	// Special handling for API routes
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____                    ____
   / __ \____  ________    / __ )_________ _      __________  _____
  / /_/ / __ \/ ___/ _ \  / __  / ___/ __ \ | /| / / ___/ _ \/ ___/
 / ____/ /_/ (__  )  __/ / /_/ / /  / /_/ / |/ |/ (__  )  __/ /
/_/    \____/____/\___/ /_____/_/   \____/|__/|__/____/\___/_/

------------------------------------------------------------`
	// Keep piped and container logs free of ASCII art.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(banner)
	}
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvSize reads a "WIDTHxHEIGHT" value.
func getEnvSize(key string, defaultValue geometry.Vec2) geometry.Vec2 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	w, h, found := strings.Cut(strings.ToLower(value), "x")
	width, errW := strconv.ParseFloat(w, 64)
	height, errH := strconv.ParseFloat(h, 64)
	if !found || errW != nil || errH != nil || width <= 0 || height <= 0 {
		logging.Warn("Invalid size for %s: %q, using default: %gx%g", key, value, defaultValue.X, defaultValue.Y)
		return defaultValue
	}
	return geometry.Vec2{X: width, Y: height}
}
