package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"pose-browser/internal/applier"
	"pose-browser/internal/geometry"
	"pose-browser/internal/handlers"
	"pose-browser/internal/library"
	"pose-browser/internal/media"
	"pose-browser/internal/preview"
	"pose-browser/internal/settings"
	"pose-browser/internal/viewer"
)

func openStore(t *testing.T) *settings.Store {
	t.Helper()
	store, err := settings.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// applierServer answers the version probe and counts undo calls.
func applierServer(t *testing.T, undos *atomic.Int32) *httptest.Server {
	t.Helper()
	m := http.NewServeMux()
	m.HandleFunc("GET /api/version", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"version": "1.0"})
	})
	m.HandleFunc("POST /api/pose/import", func(http.ResponseWriter, *http.Request) {})
	m.HandleFunc("POST /api/pose/undo", func(http.ResponseWriter, *http.Request) {
		undos.Add(1)
	})
	srv := httptest.NewServer(m)
	t.Cleanup(srv.Close)
	return srv
}

func TestApplySeed(t *testing.T) {
	store := openStore(t)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := "libraries:\n  - /poses/a\n  - /poses/b\nimages_enabled: false\n"
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := applySeed(store, path); err != nil {
		t.Fatalf("applySeed() error = %v", err)
	}
	if roots := store.LibraryRoots(); len(roots) != 2 {
		t.Errorf("Expected 2 seeded roots, got %v", roots)
	}
	if store.ImagesEnabled() {
		t.Error("Expected images to be disabled by the seed")
	}

	if err := applySeed(store, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing seed file")
	}
}

func TestSettingsObserverAbandonsPreviewWhenHostLeavesMode(t *testing.T) {
	store := openStore(t)
	store.SetHostMode(true)

	var undos atomic.Int32
	srv := applierServer(t, &undos)
	client := applier.New(srv.URL, store.ApplierEnabled)
	if !client.Refresh(context.Background()) {
		t.Fatal("Expected applier to be available")
	}

	lib := library.New(store, media.NewResolver(t.TempDir()))
	ctrl := preview.NewController(client, store)

	ctrl.SetFocus("/poses/a.pose")
	ctrl.Press(false, false)
	if ctrl.Status().InPreview == "" {
		t.Fatal("Expected an active preview")
	}

	unsubscribe := store.Subscribe(settingsObserver(context.Background(), store, lib, client, ctrl))
	defer unsubscribe()

	store.SetHostMode(false)

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Status().InPreview != "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ctrl.Status().InPreview != "" {
		t.Error("Expected the preview to be abandoned when the host leaves its mode")
	}
}

func TestSettingsObserverRefreshesApplierAvailability(t *testing.T) {
	store := openStore(t)

	var undos atomic.Int32
	srv := applierServer(t, &undos)
	client := applier.New(srv.URL, store.ApplierEnabled)
	client.Refresh(context.Background())

	lib := library.New(store, media.NewResolver(t.TempDir()))
	ctrl := preview.NewController(client, store)
	unsubscribe := store.Subscribe(settingsObserver(context.Background(), store, lib, client, ctrl))
	defer unsubscribe()

	if err := store.SetApplierEnabled(false); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for client.Available() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if client.Available() {
		t.Error("Expected applier to become unavailable after disabling the integration")
	}
}

func TestSetupRouter(t *testing.T) {
	store := openStore(t)
	resolver := media.NewResolver(t.TempDir())
	client := applier.New("", store.ApplierEnabled)

	h := handlers.New(handlers.Components{
		Settings:   store,
		Library:    library.New(store, resolver),
		Resolver:   resolver,
		Thumbnails: media.NewThumbnailGenerator(t.TempDir(), false),
		Preview:    preview.NewController(client, store),
		Viewer:     viewer.New(geometry.Vec2{X: 800, Y: 600}, media.TextureSize),
		Applier:    client,
	})
	router := setupRouter(h)

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/api/documents", http.StatusOK},
		{http.MethodGet, "/api/libraries", http.StatusOK},
		{http.MethodGet, "/api/settings", http.StatusOK},
		{http.MethodGet, "/api/viewer", http.StatusOK},
		{http.MethodPost, "/api/documents", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/nothing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestRefreshImagesPeriodicallyStops(t *testing.T) {
	store := openStore(t)
	lib := library.New(store, media.NewResolver(t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		refreshImagesPeriodically(ctx, store, lib, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected refresh loop to stop on cancel")
	}
	lib.Wait()
}
