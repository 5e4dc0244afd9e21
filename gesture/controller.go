// Package gesture implements drag, resize and rotate on board objects.
package gesture

import (
	"errors"
	"fmt"

	"marker-mind/core"
	"marker-mind/pointer"

	"github.com/sirupsen/logrus"
)

// ErrUnsupported is returned when the object kind does not offer the
// requested handle.
var ErrUnsupported = errors.New("gesture not supported for this object")

// Mode is the controller state.
type Mode int

const (
	Idle Mode = iota
	Dragging
	Resizing
	Rotating
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case Rotating:
		return "rotating"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Handle is the part of an object the pointer went down on.
type Handle int

const (
	HandleBody Handle = iota
	HandleResize
	HandleRotate
)

// CancelPolicy decides what a pointer cancel or a teardown does with the
// gesture in progress. It applies to all gesture kinds alike.
type CancelPolicy int

const (
	// CommitOnCancel commits the last previewed value.
	CommitOnCancel CancelPolicy = iota
	// AbortOnCancel drops the gesture and leaves the object untouched.
	AbortOnCancel
)

type (
	// Viewport is the part of the view transform gestures need.
	Viewport interface {
		ScreenToCanvas(p core.Point) core.Point
		ScreenDeltaToCanvas(d core.Point) core.Point
	}

	// Committer receives the single update a finished gesture produces.
	Committer interface {
		Update(obj core.Object) error
	}

	Option func(*Controller)
)

// WithCancelPolicy overrides the default CommitOnCancel policy.
func WithCancelPolicy(p CancelPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithPreview registers a callback invoked with the live object after every
// applied pointer move.
func WithPreview(fn func(core.Object)) Option {
	return func(c *Controller) { c.onPreview = fn }
}

// RotationSnap is the increment rotation snaps to while Shift is held.
const RotationSnap = 15.0

// Controller runs at most one gesture at a time. Its listeners come from the
// shared pointer bus, so it also refuses to start while the line tool is
// drawing.
type Controller struct {
	bus       *pointer.Bus
	view      Viewport
	committer Committer
	policy    CancelPolicy
	onPreview func(core.Object)

	mode    Mode
	sub     *pointer.Subscription
	start   core.Object
	live    core.Object
	origin  core.Point // screen position of the pointer-down
	lastErr error

	// rotation state
	center      core.Point
	lastAngle   float64
	accumulated float64
}

// New returns an idle controller.
func New(bus *pointer.Bus, view Viewport, committer Committer, opts ...Option) *Controller {
	c := &Controller{bus: bus, view: view, committer: committer}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the current state.
func (c *Controller) Mode() Mode { return c.mode }

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool { return c.mode != Idle }

// Preview returns the live object of the running gesture.
func (c *Controller) Preview() (core.Object, bool) {
	if c.mode == Idle {
		return nil, false
	}
	return c.live.Clone(), true
}

// Err returns the error of the last commit, if any.
func (c *Controller) Err() error { return c.lastErr }

// Supports reports whether obj offers the given handle.
func Supports(obj core.Object, h Handle) bool {
	var caps capabilities
	obj.Accept(&caps)
	switch h {
	case HandleBody:
		return caps.drag
	case HandleResize:
		return caps.resize
	case HandleRotate:
		return caps.rotate
	}
	return false
}

// Begin starts a gesture on obj from a pointer-down on handle h.
func (c *Controller) Begin(obj core.Object, h Handle, ev pointer.Event) error {
	if obj == nil {
		return fmt.Errorf("begin gesture: nil object")
	}
	if !Supports(obj, h) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupported, handleName(h), obj.Kind())
	}

	sub, err := c.bus.Capture(pointer.Handlers{
		Move:   c.handleMove,
		Up:     c.handleUp,
		Cancel: c.handleCancel,
	})
	if err != nil {
		return err
	}

	c.sub = sub
	c.start = obj.Clone()
	c.live = obj.Clone()
	c.origin = ev.Screen
	c.lastErr = nil

	switch h {
	case HandleBody:
		c.mode = Dragging
	case HandleResize:
		c.mode = Resizing
	case HandleRotate:
		c.mode = Rotating
		c.center = core.FrameOf(obj).Box.Center()
		c.lastAngle = c.center.AngleDeg(c.view.ScreenToCanvas(ev.Screen))
		c.accumulated = 0
	}

	logrus.WithFields(logrus.Fields{
		"object_id": obj.Identity(),
		"kind":      obj.Kind(),
		"mode":      c.mode.String(),
	}).Debug("Gesture started")
	return nil
}

// Teardown ends a running gesture because its host is going away. The
// cancel policy decides whether the last value is committed.
func (c *Controller) Teardown() {
	if c.mode == Idle {
		return
	}
	c.finish(c.policy == CommitOnCancel, "teardown")
}

func (c *Controller) handleMove(ev pointer.Event) {
	if c.mode == Idle {
		return
	}
	c.apply(ev)
	if c.onPreview != nil {
		c.onPreview(c.live.Clone())
	}
}

func (c *Controller) handleUp(ev pointer.Event) {
	if c.mode == Idle {
		return
	}
	c.apply(ev)
	c.finish(true, "release")
}

func (c *Controller) handleCancel(pointer.Event) {
	if c.mode == Idle {
		return
	}
	c.finish(c.policy == CommitOnCancel, "cancel")
}

func (c *Controller) apply(ev pointer.Event) {
	delta := c.view.ScreenDeltaToCanvas(ev.Screen.Sub(c.origin))

	switch c.mode {
	case Dragging:
		c.live = core.Translate(c.start, delta)
	case Resizing:
		c.live = resize(c.start, delta, ev.Modifiers.Shift)
	case Rotating:
		angle := c.center.AngleDeg(c.view.ScreenToCanvas(ev.Screen))
		c.accumulated += core.WrapDegrees(angle - c.lastAngle)
		c.lastAngle = angle
		rotation := rotationOf(c.start) + c.accumulated
		if ev.Modifiers.Shift {
			rotation = snapRotation(rotation)
		}
		c.live = rotate(c.start, rotation)
	}
}

// finish releases the listeners first so no exit path can leave them behind,
// then commits if asked to.
func (c *Controller) finish(commit bool, reason string) {
	c.sub.Release()
	c.sub = nil

	live := c.live
	mode := c.mode
	c.mode = Idle
	c.start, c.live = nil, nil

	log := logrus.WithFields(logrus.Fields{
		"object_id": live.Identity(),
		"mode":      mode.String(),
		"reason":    reason,
	})
	if !commit || c.committer == nil {
		log.Debug("Gesture ended without commit")
		return
	}
	if err := c.committer.Update(live); err != nil {
		c.lastErr = err
		log.WithError(err).Error("Failed to commit gesture")
		return
	}
	log.Debug("Gesture committed")
}

func handleName(h Handle) string {
	switch h {
	case HandleBody:
		return "drag"
	case HandleResize:
		return "resize"
	case HandleRotate:
		return "rotate"
	}
	return "unknown"
}
