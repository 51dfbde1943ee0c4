package handlers

import (
	"net/http"

	"pose-browser/internal/preview"
)

type focusRequest struct {
	Path string `json:"path"`
}

type pressRequest struct {
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
}

type applyRequest struct {
	Path string       `json:"path"`
	Mode preview.Mode `json:"mode"`
}

// ApplyResponse reports whether the applier accepted an explicit apply.
type ApplyResponse struct {
	Applied bool           `json:"applied"`
	Preview preview.Status `json:"preview"`
}

// GetPreview returns the preview controller state.
func (h *Handlers) GetPreview(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.preview.Status())
}

// SetFocus moves focus to a document. An empty path clears it.
func (h *Handlers) SetFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path != "" {
		if _, ok := h.library.Document(req.Path); !ok {
			writeJSONError(w, "document not indexed", http.StatusNotFound)
			return
		}
	}

	h.preview.SetFocus(req.Path)
	writeJSON(w, h.preview.Status())
}

// PressPreview starts holding the preview input.
func (h *Handlers) PressPreview(w http.ResponseWriter, r *http.Request) {
	var req pressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.preview.Press(req.Shift, req.Ctrl)
	writeJSON(w, h.preview.Status())
}

// ReleasePreview stops holding and reverts any temporary preview.
func (h *Handlers) ReleasePreview(w http.ResponseWriter, _ *http.Request) {
	h.preview.Release()
	writeJSON(w, h.preview.Status())
}

// Apply performs an explicit one-shot apply of a document.
func (h *Handlers) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Mode == "" {
		req.Mode = preview.ModeAll
	}
	if _, ok := req.Mode.Flags(); !ok {
		writeJSONError(w, "mode must be one of all, body, face", http.StatusBadRequest)
		return
	}
	if _, ok := h.library.Document(req.Path); !ok {
		writeJSONError(w, "document not indexed", http.StatusNotFound)
		return
	}

	applied := h.preview.Apply(req.Path, req.Mode)
	writeJSON(w, ApplyResponse{Applied: applied, Preview: h.preview.Status()})
}
