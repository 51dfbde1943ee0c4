// Package preview drives the hold-to-preview workflow against an external
// pose applier.
//
// Holding the preview input over a focused document applies its pose
// temporarily; releasing it, or moving focus to another document, undoes
// the temporary pose. Explicit apply actions bypass the hold workflow. All
// calls into the applier are serialized by the Controller.
package preview

import (
	"sync"

	"pose-browser/internal/logging"
	"pose-browser/internal/metrics"
)

// Flags select what an apply call changes on the target.
type Flags uint8

const (
	// Face applies the facial expression part of the pose.
	Face Flags = 1 << iota
	// Body applies the body part of the pose.
	Body
	// SaveTempBefore snapshots the target before applying so Undo can restore it.
	SaveTempBefore
	// SaveTempAfter snapshots the target after applying.
	SaveTempAfter
	// ResetPreview discards any temporary preview state on the target.
	ResetPreview
)

// Has reports whether all bits of other are set.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// Applier is the external service that poses the target.
type Applier interface {
	Available() bool
	ApplyPose(path string, flags Flags) bool
	Undo() bool
}

// HostMode reports whether the host is in a mode where poses may be applied.
type HostMode interface {
	InMode() bool
}

// State is the controller's workflow state.
type State string

const (
	// Idle means no input is held and nothing is previewed.
	Idle State = "idle"
	// Previewing means a temporary pose is applied.
	Previewing State = "previewing"
	// Holding means the preview input is held.
	Holding State = "holding"
)

// Mode selects the parts of an explicit apply.
type Mode string

const (
	ModeAll  Mode = "all"
	ModeBody Mode = "body"
	ModeFace Mode = "face"
)

// Flags returns the apply flags for an explicit apply in mode m.
func (m Mode) Flags() (Flags, bool) {
	base := SaveTempAfter | ResetPreview
	switch m {
	case ModeAll:
		return base | Body | Face, true
	case ModeBody:
		return base | Body, true
	case ModeFace:
		return base | Face, true
	}
	return 0, false
}

// Status is a snapshot of the controller.
type Status struct {
	State     State  `json:"state"`
	Focused   string `json:"focused,omitempty"`
	InPreview string `json:"inPreview,omitempty"`
	Holding   bool   `json:"holding"`
}

// Controller tracks focus and the temporary preview. It is safe for
// concurrent use; every applier call happens under its lock.
type Controller struct {
	applier Applier
	host    HostMode

	mu        sync.Mutex
	focused   string
	inPreview string
	holding   bool
	heldFlags Flags
}

// NewController creates an idle controller.
func NewController(applier Applier, host HostMode) *Controller {
	return &Controller{applier: applier, host: host}
}

// ready is checked before every applier call.
func (c *Controller) ready() bool {
	return c.applier != nil && c.applier.Available() && c.host != nil && c.host.InMode()
}

// SetFocus moves focus to path; an empty path clears focus. Leaving the
// previewed document undoes its preview. While the input is held, focusing
// another document previews it.
func (c *Controller) SetFocus(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.focused = path

	if c.inPreview != "" && c.inPreview != path {
		c.undoLocked()
	}
	if c.holding && c.inPreview == "" && path != "" {
		c.previewLocked(path, c.heldFlags)
	}
}

// Press starts holding the preview input. shift keeps the body out of the
// preview and ctrl keeps the face out.
func (c *Controller) Press(shift, ctrl bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.holding {
		return
	}

	flags := SaveTempBefore | Body | Face
	if shift {
		flags &^= Body
	}
	if ctrl {
		flags &^= Face
	}
	c.holding = true
	c.heldFlags = flags

	if c.focused != "" && c.inPreview == "" {
		c.previewLocked(c.focused, flags)
	}
}

// Release stops holding the preview input and undoes any active preview.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.holding = false
	c.heldFlags = 0
	if c.inPreview != "" {
		c.undoLocked()
	}
}

// Apply permanently applies the document at path. It is a no-op returning
// false when the applier is unavailable, the host is not in mode or mode is
// unknown.
func (c *Controller) Apply(path string, mode Mode) bool {
	flags, ok := mode.Flags()
	if !ok || path == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready() {
		metrics.ApplierCallsTotal.WithLabelValues("apply", "skipped").Inc()
		logging.Debug("Apply of %s ignored, applier not ready", path)
		return false
	}

	accepted := c.applier.ApplyPose(path, flags)
	if accepted {
		logging.Info("Applied %s (%s)", path, mode)
	}
	return accepted
}

// Abandon drops focus, hold and preview state, undoing an active preview
// first. It runs when the document index is rebuilt.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inPreview != "" {
		logging.Info("Index rebuilt while previewing %s, undoing", c.inPreview)
		c.undoLocked()
	}
	c.focused = ""
	c.holding = false
	c.heldFlags = 0
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := Idle
	switch {
	case c.holding:
		state = Holding
	case c.inPreview != "":
		state = Previewing
	}
	return Status{
		State:     state,
		Focused:   c.focused,
		InPreview: c.inPreview,
		Holding:   c.holding,
	}
}

func (c *Controller) previewLocked(path string, flags Flags) {
	if !c.ready() {
		metrics.ApplierCallsTotal.WithLabelValues("apply", "skipped").Inc()
		return
	}

	accepted := c.applier.ApplyPose(path, flags)
	if !accepted {
		logging.Debug("Preview of %s rejected by applier", path)
		return
	}
	c.inPreview = path
	metrics.PreviewActive.Set(1)
	logging.Verbose("Previewing %s", path)
}

// undoLocked clears the preview whether or not the undo call succeeds.
func (c *Controller) undoLocked() {
	previewed := c.inPreview
	c.inPreview = ""
	metrics.PreviewActive.Set(0)

	if !c.ready() {
		metrics.ApplierCallsTotal.WithLabelValues("undo", "skipped").Inc()
		return
	}

	ok := c.applier.Undo()
	if !ok {
		logging.Warn("Undo of preview %s was not accepted", previewed)
	}
}
