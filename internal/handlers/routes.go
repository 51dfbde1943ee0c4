package handlers

import (
	"github.com/gorilla/mux"
)

// Register mounts every endpoint on r.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/documents", h.ListDocuments).Methods("GET")
	api.HandleFunc("/visible", h.SetVisible).Methods("POST")
	api.HandleFunc("/thumbnail/{path:.*}", h.GetThumbnail).Methods("GET")

	api.HandleFunc("/sync", h.TriggerSync).Methods("POST")
	api.HandleFunc("/sync/images", h.TriggerImageSync).Methods("POST")

	api.HandleFunc("/libraries", h.ListLibraries).Methods("GET")
	api.HandleFunc("/libraries", h.AddLibrary).Methods("POST")
	api.HandleFunc("/libraries", h.ClearLibraries).Methods("DELETE")

	api.HandleFunc("/preview", h.GetPreview).Methods("GET")
	api.HandleFunc("/focus", h.SetFocus).Methods("POST")
	api.HandleFunc("/preview/press", h.PressPreview).Methods("POST")
	api.HandleFunc("/preview/release", h.ReleasePreview).Methods("POST")
	api.HandleFunc("/apply", h.Apply).Methods("POST")

	api.HandleFunc("/viewer", h.GetViewer).Methods("GET")
	api.HandleFunc("/viewer/image", h.GetViewerImage).Methods("GET")
	api.HandleFunc("/viewer/open", h.OpenViewer).Methods("POST")
	api.HandleFunc("/viewer/next", h.ViewerNext).Methods("POST")
	api.HandleFunc("/viewer/prev", h.ViewerPrev).Methods("POST")
	api.HandleFunc("/viewer/zoomin", h.ViewerZoomIn).Methods("POST")
	api.HandleFunc("/viewer/zoomout", h.ViewerZoomOut).Methods("POST")
	api.HandleFunc("/viewer/close", h.CloseViewer).Methods("POST")

	api.HandleFunc("/settings", h.GetSettings).Methods("GET")
	api.HandleFunc("/settings", h.UpdateSettings).Methods("PUT")
	api.HandleFunc("/host-mode", h.SetHostMode).Methods("PUT")
}
