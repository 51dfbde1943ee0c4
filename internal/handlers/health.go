package handlers

import (
	"net/http"
	"runtime"
	"time"

	"pose-browser/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	Syncing      bool   `json:"syncing"`
	ImageSyncing bool   `json:"imageSyncing"`
	LastSync     string `json:"lastSync,omitempty"`

	Roots              int  `json:"roots"`
	Documents          int  `json:"documents"`
	DocumentsWithImage int  `json:"documentsWithImage"`
	ApplierAvailable   bool `json:"applierAvailable"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. The service reports
// "starting" until the first full sync finishes, but always answers 200:
// an empty library is a valid steady state.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.library.GetStats()

	response := HealthResponse{
		Status:             statusHealthy,
		Version:            startup.Version,
		Uptime:             time.Since(h.startTime).Round(time.Second).String(),
		Syncing:            h.library.IsSyncing(),
		ImageSyncing:       h.library.IsImageSyncing(),
		Roots:              stats.Roots,
		Documents:          stats.TotalDocuments,
		DocumentsWithImage: stats.DocumentsWithImage,
		ApplierAvailable:   h.applier.Available(),
		GoVersion:          runtime.Version(),
		NumCPU:             runtime.NumCPU(),
		NumGoroutine:       runtime.NumGoroutine(),
	}

	if last := h.library.LastSync(); !last.IsZero() {
		response.LastSync = last.Format("2006-01-02T15:04:05Z07:00")
	} else if response.Syncing {
		response.Status = statusStarting
	}

	writeJSON(w, response)
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
