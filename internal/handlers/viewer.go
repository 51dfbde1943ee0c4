package handlers

import (
	"errors"
	"net/http"

	"pose-browser/internal/logging"
	"pose-browser/internal/viewer"
)

type viewerOpenRequest struct {
	Path string `json:"path"`
}

// GetViewer returns the image viewer state.
func (h *Handlers) GetViewer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.viewer.State())
}

// OpenViewer shows every candidate image of a document, embedded first.
func (h *Handlers) OpenViewer(w http.ResponseWriter, r *http.Request) {
	var req viewerOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, ok := h.library.Document(req.Path); !ok {
		writeJSONError(w, "document not indexed", http.StatusNotFound)
		return
	}

	state, err := h.viewer.Open(req.Path, h.resolver.CandidatePaths(req.Path))
	if errors.Is(err, viewer.ErrNoImages) {
		writeJSONError(w, "document has no images", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, state)
}

// ViewerNext moves to the following image.
func (h *Handlers) ViewerNext(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.viewer.Next())
}

// ViewerPrev moves to the previous image.
func (h *Handlers) ViewerPrev(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.viewer.Prev())
}

// ViewerZoomIn enlarges the modal one step.
func (h *Handlers) ViewerZoomIn(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.viewer.ZoomIn())
}

// ViewerZoomOut shrinks the modal one step.
func (h *Handlers) ViewerZoomOut(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.viewer.ZoomOut())
}

// CloseViewer hides the viewer.
func (h *Handlers) CloseViewer(w http.ResponseWriter, _ *http.Request) {
	h.viewer.Close()
	writeJSON(w, h.viewer.State())
}

// GetViewerImage serves the image currently shown by the viewer. Only that
// file is reachable, never an arbitrary path.
func (h *Handlers) GetViewerImage(w http.ResponseWriter, r *http.Request) {
	state := h.viewer.State()
	if !state.Open {
		http.Error(w, "Viewer is closed", http.StatusNotFound)
		return
	}
	logging.Verbose("Serving viewer image %s", state.Image)
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, state.Image)
}
