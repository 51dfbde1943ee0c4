package handlers

import (
	"fmt"
	"net/http"

	"pose-browser/internal/geometry"
	"pose-browser/internal/settings"
)

// settingsUpdate carries optional changes. Absent fields are left alone.
type settingsUpdate struct {
	ImagesEnabled  *bool          `json:"imagesEnabled"`
	ApplierEnabled *bool          `json:"applierEnabled"`
	ThumbSize      *geometry.Vec2 `json:"thumbSize"`
	// ThumbWidth resizes the thumbnail box keeping its aspect.
	ThumbWidth *float64 `json:"thumbWidth"`
	// DisplaySize bounds the image viewer. It is not persisted.
	DisplaySize *geometry.Vec2 `json:"displaySize"`
}

type hostModeRequest struct {
	InMode bool `json:"inMode"`
}

// SettingsResponse is the persisted settings plus live applier state.
type SettingsResponse struct {
	settings.Settings
	ApplierAvailable bool          `json:"applierAvailable"`
	ApplierVersion   string        `json:"applierVersion,omitempty"`
	DisplaySize      geometry.Vec2 `json:"displaySize"`
}

func (h *Handlers) settingsResponse() SettingsResponse {
	return SettingsResponse{
		Settings:         h.store.Snapshot(),
		ApplierAvailable: h.applier.Available(),
		ApplierVersion:   h.applier.Version(),
		DisplaySize:      h.viewer.Display(),
	}
}

// GetSettings returns the current settings.
func (h *Handlers) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.settingsResponse())
}

// UpdateSettings applies a partial settings update.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ThumbSize != nil && req.ThumbWidth != nil {
		writeJSONError(w, "set either thumbSize or thumbWidth, not both", http.StatusBadRequest)
		return
	}
	if req.DisplaySize != nil && (req.DisplaySize.X < 1 || req.DisplaySize.Y < 1) {
		writeJSONError(w, "display size must be at least 1x1", http.StatusBadRequest)
		return
	}

	if err := h.applySettings(req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, h.settingsResponse())
}

func (h *Handlers) applySettings(req settingsUpdate) error {
	if req.ImagesEnabled != nil {
		if err := h.store.SetImagesEnabled(*req.ImagesEnabled); err != nil {
			return fmt.Errorf("images enabled: %w", err)
		}
	}
	if req.ApplierEnabled != nil {
		if err := h.store.SetApplierEnabled(*req.ApplierEnabled); err != nil {
			return fmt.Errorf("applier enabled: %w", err)
		}
	}
	if req.ThumbSize != nil {
		if err := h.store.SetThumbSize(*req.ThumbSize); err != nil {
			return fmt.Errorf("thumbnail size: %w", err)
		}
	}
	if req.ThumbWidth != nil {
		if err := h.store.SetThumbWidth(*req.ThumbWidth); err != nil {
			return fmt.Errorf("thumbnail width: %w", err)
		}
	}
	if req.DisplaySize != nil {
		h.viewer.SetDisplay(*req.DisplaySize)
	}
	return nil
}

// SetHostMode records whether the host is in the mode that accepts poses.
func (h *Handlers) SetHostMode(w http.ResponseWriter, r *http.Request) {
	var req hostModeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.store.SetHostMode(req.InMode)
	writeJSON(w, h.settingsResponse())
}
