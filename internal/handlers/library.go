package handlers

import (
	"net/http"
)

// LibrariesResponse lists configured roots and the index size.
type LibrariesResponse struct {
	Roots     []string `json:"roots"`
	Documents int      `json:"documents"`
}

type libraryRequest struct {
	Path string `json:"path"`
}

func (h *Handlers) librariesResponse() LibrariesResponse {
	roots := h.store.LibraryRoots()
	if roots == nil {
		roots = []string{}
	}
	return LibrariesResponse{Roots: roots, Documents: len(h.library.Documents())}
}

// ListLibraries returns the configured library roots in insertion order.
func (h *Handlers) ListLibraries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.librariesResponse())
}

// AddLibrary persists a new root and re-syncs before responding.
func (h *Handlers) AddLibrary(w http.ResponseWriter, r *http.Request) {
	var req libraryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	if err := h.library.AddLibraryRoot(req.Path); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.librariesResponse())
}

// ClearLibraries removes every root and empties the index.
func (h *Handlers) ClearLibraries(w http.ResponseWriter, _ *http.Request) {
	if err := h.library.RemoveAllRoots(); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.librariesResponse())
}

// TriggerSync starts a background full sync.
func (h *Handlers) TriggerSync(w http.ResponseWriter, _ *http.Request) {
	if h.library.IsSyncing() {
		writeJSON(w, map[string]string{
			"status":  "already_running",
			"message": "Sync is already in progress",
		})
		return
	}

	h.library.TriggerFullSync()

	writeJSONCode(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Full sync started",
	})
}

// TriggerImageSync forces an image sync, bypassing the refresh interval.
func (h *Handlers) TriggerImageSync(w http.ResponseWriter, _ *http.Request) {
	if !h.store.ImagesEnabled() {
		writeJSONError(w, "images are disabled", http.StatusConflict)
		return
	}
	if h.library.IsImageSyncing() {
		writeJSON(w, map[string]string{
			"status":  "already_running",
			"message": "Image sync is already in progress",
		})
		return
	}

	h.library.RefreshImages(true)

	writeJSONCode(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Image sync started",
	})
}
