package library

import (
	"sync/atomic"

	"pose-browser/internal/posetypes"
)

// Document is one indexed pose file. Path, Name and Format never change
// after a sync creates the record; the image path, tags and visibility are
// updated concurrently by image syncs and the view layer.
type Document struct {
	Path   string
	Name   string
	Format posetypes.Format

	imagePath atomic.Pointer[string]
	tags      atomic.Pointer[[]string]
	visible   atomic.Bool
}

// NewDocument creates a record for the pose file at path.
func NewDocument(path string) *Document {
	return &Document{
		Path:   path,
		Name:   posetypes.DisplayName(path),
		Format: posetypes.FormatOf(path),
	}
}

// ImagePath returns the resolved preview image, if any.
func (d *Document) ImagePath() (string, bool) {
	p := d.imagePath.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetImagePath records a resolved preview image. An empty path clears it.
func (d *Document) SetImagePath(path string) {
	if path == "" {
		d.imagePath.Store(nil)
		return
	}
	d.imagePath.Store(&path)
}

// Tags returns the document's search tags once metadata has been loaded.
func (d *Document) Tags() []string {
	t := d.tags.Load()
	if t == nil {
		return nil
	}
	return *t
}

// SetTags replaces the document's search tags.
func (d *Document) SetTags(tags []string) {
	d.tags.Store(&tags)
}

// Visible reports whether the view layer currently shows the document.
func (d *Document) Visible() bool {
	return d.visible.Load()
}

// SetVisible is called by the view layer.
func (d *Document) SetVisible(v bool) {
	d.visible.Store(v)
}
