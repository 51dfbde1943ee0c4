package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pose-browser/internal/library"
	"pose-browser/internal/logging"
	"pose-browser/internal/media"

	"github.com/gorilla/mux"
)

// DocumentResponse is one row of the document list.
type DocumentResponse struct {
	Path      string   `json:"path"`
	Name      string   `json:"name"`
	ShortPath string   `json:"shortPath"`
	Format    string   `json:"format"`
	Label     string   `json:"label"`
	ImagePath string   `json:"imagePath,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// DocumentListResponse wraps the filtered documents.
type DocumentListResponse struct {
	Items        []DocumentResponse `json:"items"`
	TotalItems   int                `json:"totalItems"`
	Syncing      bool               `json:"syncing"`
	ImageSyncing bool               `json:"imageSyncing"`
	LastSync     string             `json:"lastSync,omitempty"`
}

func (h *Handlers) documentResponse(doc *library.Document) DocumentResponse {
	resp := DocumentResponse{
		Path:      doc.Path,
		Name:      doc.Name,
		ShortPath: h.library.ShortPath(doc.Path),
		Format:    string(doc.Format),
		Label:     doc.Format.Label(),
		Tags:      doc.Tags(),
	}
	if imagePath, ok := doc.ImagePath(); ok {
		resp.ImagePath = imagePath
	}
	return resp
}

// ListDocuments returns the indexed documents matching ?search= and ?imagesOnly=.
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	query := library.Query{
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("imagesOnly"); v != "" {
		imagesOnly, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, "imagesOnly must be a boolean", http.StatusBadRequest)
			return
		}
		query.ImagesOnly = imagesOnly
	}

	docs := h.library.Filter(query)
	items := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, h.documentResponse(doc))
	}

	resp := DocumentListResponse{
		Items:        items,
		TotalItems:   len(items),
		Syncing:      h.library.IsSyncing(),
		ImageSyncing: h.library.IsImageSyncing(),
	}
	if last := h.library.LastSync(); !last.IsZero() {
		resp.LastSync = last.Format("2006-01-02T15:04:05Z07:00")
	}

	logging.Debug("ListDocuments: %d of %d documents match %+v", len(items), len(h.library.Documents()), query)
	writeJSON(w, resp)
}

type visibleRequest struct {
	Paths []string `json:"paths"`
}

// SetVisible records which documents are on screen so the next image sync
// resolves them first.
func (h *Handlers) SetVisible(w http.ResponseWriter, r *http.Request) {
	var req visibleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.library.SetVisible(req.Paths)
	writeJSONStatus(w, "ok")
}

// documentFromVars finds the indexed document named by the {path} route
// variable. Absolute paths lose their leading slash in the URL.
func (h *Handlers) documentFromVars(r *http.Request) (*library.Document, bool) {
	path := mux.Vars(r)["path"]
	if path == "" {
		return nil, false
	}
	if doc, ok := h.library.Document(path); ok {
		return doc, true
	}
	if !strings.HasPrefix(path, "/") {
		return h.library.Document("/" + path)
	}
	return nil, false
}

// GetThumbnail renders the preview image of an indexed document at the
// configured thumbnail size. ?crop=true fills the box instead of fitting.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.documentFromVars(r)
	if !ok {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}

	if !h.thumbGen.IsEnabled() {
		logging.Warn("Thumbnail: thumbnails disabled, returning 503")
		http.Error(w, "Thumbnails disabled", http.StatusServiceUnavailable)
		return
	}

	imagePath, ok := doc.ImagePath()
	if !ok {
		http.Error(w, "No image for document", http.StatusNotFound)
		return
	}

	crop, _ := strconv.ParseBool(r.URL.Query().Get("crop"))
	size := h.store.ThumbSize()

	thumb, err := h.thumbGen.GetThumbnail(imagePath, size, crop)
	if err != nil {
		if errors.Is(err, media.ErrImageNotFound) {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}
		logging.Error("Thumbnail: generation failed for %s: %v", imagePath, err)
		http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(thumb); err != nil {
		logging.Debug("Thumbnail: write failed for %s: %v", doc.Path, err)
	}
}
