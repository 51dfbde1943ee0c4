// Package viewer holds the enlarged image viewer state: the candidate images
// of one document, the current slot and the zoomed modal size.
package viewer

import (
	"errors"
	"sync"

	"pose-browser/internal/geometry"
	"pose-browser/internal/logging"
)

const (
	// DisplayFraction is the share of the display the modal may cover.
	DisplayFraction = 0.75
	// ZoomInStep and ZoomOutStep multiply the zoom factor.
	ZoomInStep  = 1.1
	ZoomOutStep = 0.9
)

// ErrNoImages is returned when a document has no candidate images.
var ErrNoImages = errors.New("document has no images")

// Pair maps zero-based slots to image paths.
type Pair map[int]string

// NewPair numbers paths from slot 0 in order.
func NewPair(paths []string) Pair {
	p := make(Pair, len(paths))
	for i, path := range paths {
		p[i] = path
	}
	return p
}

// Next returns the slot after i, wrapping to 0 past the last.
func (p Pair) Next(i int) int {
	if len(p) == 0 {
		return 0
	}
	return (i + 1) % len(p)
}

// Prev returns the slot before i, wrapping to the last before 0.
func (p Pair) Prev(i int) int {
	if len(p) == 0 {
		return 0
	}
	return (i - 1 + len(p)) % len(p)
}

// SizeFunc returns the pixel size of an image file.
type SizeFunc func(path string) (geometry.Vec2, error)

// State is a snapshot of the viewer.
type State struct {
	Open     bool          `json:"open"`
	Document string        `json:"document,omitempty"`
	Slot     int           `json:"slot"`
	Count    int           `json:"count"`
	Image    string        `json:"image,omitempty"`
	Zoom     float64       `json:"zoom"`
	Size     geometry.Vec2 `json:"size"`
}

// Viewer is safe for concurrent use.
type Viewer struct {
	sizeOf SizeFunc

	mu       sync.Mutex
	display  geometry.Vec2
	document string
	images   Pair
	slot     int
	zoom     float64
}

// New creates a closed viewer for a display of the given size.
func New(display geometry.Vec2, sizeOf SizeFunc) *Viewer {
	return &Viewer{display: display, sizeOf: sizeOf, zoom: 1}
}

// SetDisplay updates the display size used to bound the modal. An open
// viewer is resized on its next state.
func (v *Viewer) SetDisplay(display geometry.Vec2) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.display = display
}

// Display returns the display size used to bound the modal.
func (v *Viewer) Display() geometry.Vec2 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.display
}

// Open shows the images of document starting at slot 0.
func (v *Viewer) Open(document string, images []string) (State, error) {
	if len(images) == 0 {
		return State{}, ErrNoImages
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.document = document
	v.images = NewPair(images)
	v.slot = 0
	v.zoom = 1
	logging.Debug("Viewer opened for %s with %d images", document, len(images))
	return v.stateLocked(), nil
}

// Next moves to the following image, wrapping around.
func (v *Viewer) Next() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.images != nil {
		v.slot = v.images.Next(v.slot)
	}
	return v.stateLocked()
}

// Prev moves to the previous image, wrapping around.
func (v *Viewer) Prev() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.images != nil {
		v.slot = v.images.Prev(v.slot)
	}
	return v.stateLocked()
}

// ZoomIn enlarges the modal one step.
func (v *Viewer) ZoomIn() State {
	return v.zoomBy(ZoomInStep)
}

// ZoomOut shrinks the modal one step.
func (v *Viewer) ZoomOut() State {
	return v.zoomBy(ZoomOutStep)
}

func (v *Viewer) zoomBy(step float64) State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.images != nil {
		v.zoom *= step
	}
	return v.stateLocked()
}

// Close hides the viewer and forgets its images.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.document = ""
	v.images = nil
	v.slot = 0
	v.zoom = 1
}

// State returns a snapshot of the viewer.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

func (v *Viewer) stateLocked() State {
	if v.images == nil {
		return State{Zoom: 1}
	}

	image := v.images[v.slot]
	return State{
		Open:     true,
		Document: v.document,
		Slot:     v.slot,
		Count:    len(v.images),
		Image:    image,
		Zoom:     v.zoom,
		Size:     v.modalSize(image),
	}
}

// modalSize fits the image into the allowed share of the display and applies
// the zoom factor. Unreadable images report a zero size.
func (v *Viewer) modalSize(image string) geometry.Vec2 {
	if v.sizeOf == nil {
		return geometry.Vec2{}
	}
	src, err := v.sizeOf(image)
	if err != nil {
		logging.Debug("Viewer cannot size %s: %v", image, err)
		return geometry.Vec2{}
	}
	bound := v.display.Scale(DisplayFraction)
	return geometry.ScaleDownIfLarger(src.X, src.Y, bound).Scale(v.zoom)
}
