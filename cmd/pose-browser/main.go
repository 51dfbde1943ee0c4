package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pose-browser/internal/applier"
	"pose-browser/internal/filesystem"
	"pose-browser/internal/handlers"
	"pose-browser/internal/library"
	"pose-browser/internal/logging"
	"pose-browser/internal/media"
	"pose-browser/internal/memory"
	"pose-browser/internal/metrics"
	"pose-browser/internal/middleware"
	"pose-browser/internal/preview"
	"pose-browser/internal/settings"
	"pose-browser/internal/startup"
	"pose-browser/internal/viewer"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	applierProbeTimeout  = 5 * time.Second
	metricsInterval      = 1 * time.Minute
	shutdownTimeout      = 30 * time.Second
	serverReadTimeout    = 15 * time.Second
	serverWriteTimeout   = 60 * time.Second
	serverIdleTimeout    = 60 * time.Second
	metricsServerTimeout = 10 * time.Second
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	memoryLimit := memory.ConfigureFromEnv()

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	// Settings
	settingsStart := time.Now()
	store, err := settings.Open(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to open settings: %v", err)
	}
	defer store.Close()

	if config.SeedConfig != "" {
		if err := applySeed(store, config.SeedConfig); err != nil {
			logging.Warn("Seed config not applied: %v", err)
		}
	}
	startup.LogSettingsInit(time.Since(settingsStart))

	// Applier
	client := applier.New(config.ApplierURL, store.ApplierEnabled)
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), applierProbeTimeout)
	available := client.Refresh(probeCtx)
	cancelProbe()
	startup.LogApplierInit(config.ApplierURL, available)

	monitor := memory.NewMonitor(memory.DefaultMonitorConfig())
	monitor.Start()
	startup.LogMemoryInit(memoryLimit.Source, monitor.Limit())

	// Library and the components it resets on every full sync
	resolver := media.NewResolver(config.CacheDir)
	thumbGen := media.NewThumbnailGenerator(config.CacheDir, config.ThumbnailsEnabled)
	lib := library.New(store, resolver,
		library.WithRefreshInterval(config.ImageRefreshInterval),
		library.WithMemoryGate(monitor),
	)
	ctrl := preview.NewController(client, store)
	imageViewer := viewer.New(config.DisplaySize, media.TextureSize)

	lib.OnClear(ctrl.Abandon)
	lib.OnClear(imageViewer.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	unsubscribe := store.Subscribe(settingsObserver(ctx, store, lib, client, ctrl))
	defer unsubscribe()

	startup.LogLibraryInit(store.LibraryRoots(), config.ImageRefreshInterval)
	lib.TriggerFullSync()
	go refreshImagesPeriodically(ctx, store, lib, config.ImageRefreshInterval)

	collector := metrics.NewCollector(lib, metricsInterval)
	collector.Start()

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(config.MetricsPort)
	}

	h := handlers.New(handlers.Components{
		Settings:   store,
		Library:    lib,
		Resolver:   resolver,
		Thumbnails: thumbGen,
		Preview:    ctrl,
		Viewer:     imageViewer,
		Applier:    client,
	})

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogRequests, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.Enabled = config.LogRequests
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      middleware.Logger(loggingConfig)(router),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		handleShutdown(srv, metricsSrv, background{
			collector: collector,
			monitor:   monitor,
			lib:       lib,
			ctrl:      ctrl,
			cancel:    cancel,
		})
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func applySeed(store *settings.Store, path string) error {
	seed, err := settings.LoadSeed(path)
	if err != nil {
		return err
	}
	return store.ApplySeed(seed)
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	h.Register(r)
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	return r
}

// settingsObserver keeps the running components in step with settings
// changes made through the API.
func settingsObserver(ctx context.Context, store *settings.Store, lib *library.Library, client *applier.Client, ctrl *preview.Controller) func(settings.Change) {
	return func(change settings.Change) {
		logging.Debug("Settings changed: %s", change.Key)

		switch change.Key {
		case settings.KeyImagesEnabled:
			if store.ImagesEnabled() {
				lib.RefreshImages(false)
			}
		case settings.KeyApplierEnabled, settings.KeyHostMode:
			go func() {
				probeCtx, cancel := context.WithTimeout(ctx, applierProbeTimeout)
				defer cancel()
				if !client.Refresh(probeCtx) || !store.InMode() {
					ctrl.Abandon()
				}
			}()
		case settings.KeyLibraryRoots:
			metrics.LibraryRoots.Set(float64(len(store.LibraryRoots())))
		}
	}
}

// refreshImagesPeriodically offers an unforced image refresh every interval.
// The library's rate limiter decides whether it actually runs.
func refreshImagesPeriodically(ctx context.Context, store *settings.Store, lib *library.Library, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if store.ImagesEnabled() {
				lib.RefreshImages(false)
			}
		}
	}
}

func startMetricsServer(port string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  metricsServerTimeout,
		WriteTimeout: metricsServerTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

// background is everything handleShutdown stops after the HTTP server.
type background struct {
	collector *metrics.Collector
	monitor   *memory.Monitor
	lib       *library.Library
	ctrl      *preview.Controller
	cancel    context.CancelFunc
}

func handleShutdown(srv, metricsSrv *http.Server, bg background) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Reverting active preview")
	bg.ctrl.Abandon()
	startup.LogShutdownStepComplete("Preview reverted")

	// Stopping the monitor releases image workers held for memory.
	startup.LogShutdownStep("Stopping background work")
	bg.cancel()
	bg.lib.Stop()
	bg.monitor.Stop()
	bg.collector.Stop()
	bg.lib.Wait()
	startup.LogShutdownStepComplete("Background work stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
