// Package linetool draws straight lines with angle snapping and manipulates
// existing lines through their move and endpoint handles.
package linetool

import (
	"errors"
	"fmt"

	"marker-mind/core"
	"marker-mind/gesture"
	"marker-mind/pointer"

	"github.com/sirupsen/logrus"
)

const (
	// MinLength is the shortest line that is kept; shorter drags are clicks.
	MinLength = 10.0

	// HitTolerance is the half-width in screen pixels of the region that
	// selects a line. It does not depend on the stroke width.
	HitTolerance = 8.0

	// HandleRadius is the grab radius of the move and endpoint handles in
	// screen pixels.
	HandleRadius = 8.0

	DefaultStrokeWidth = 2.0
)

// ErrInactive is returned when drawing starts while the tool is not selected.
var ErrInactive = errors.New("line tool is not active")

// State is the tool state.
type State int

const (
	Idle State = iota
	Drawing
	Manipulating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Manipulating:
		return "manipulating"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Handle identifies a grab point on a selected line.
type Handle int

const (
	HandleNone Handle = iota
	HandleMove        // midpoint, translates the whole line
	HandleStart
	HandleEnd
)

type (
	// Viewport is the part of the view transform the tool needs.
	Viewport interface {
		ScreenToCanvas(p core.Point) core.Point
		ScreenDeltaToCanvas(d core.Point) core.Point
		ScreenLengthToCanvas(l float64) float64
	}

	// Sink receives created and updated lines.
	Sink interface {
		Create(obj core.Object) (string, error)
		Update(obj core.Object) error
	}

	Option func(*Tool)
)

// WithStyle sets the color and stroke width of new lines.
func WithStyle(color string, width float64) Option {
	return func(t *Tool) {
		t.color = color
		t.width = width
	}
}

// WithCancelPolicy decides whether a cancelled or torn down manipulation of
// an existing line commits its last value. Drawing is not affected: a new
// line is kept on cancel when it is longer than MinLength.
func WithCancelPolicy(p gesture.CancelPolicy) Option {
	return func(t *Tool) { t.policy = p }
}

// Tool is the line drawing state machine. It shares the pointer bus with
// the gesture controller, so at most one of them runs at a time.
type Tool struct {
	bus    *pointer.Bus
	view   Viewport
	sink   Sink
	color  string
	width  float64
	policy gesture.CancelPolicy

	active  bool
	state   State
	sub     *pointer.Subscription
	lastErr error

	// drawing
	start, end core.Point

	// manipulation
	handle Handle
	origin core.Point
	base   *core.Line
	live   *core.Line
}

// New returns an inactive tool.
func New(bus *pointer.Bus, view Viewport, sink Sink, opts ...Option) *Tool {
	t := &Tool{bus: bus, view: view, sink: sink, width: DefaultStrokeWidth}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Activate selects the tool.
func (t *Tool) Activate() { t.active = true }

// Deactivate deselects the tool, ending a drawing in progress as a release
// would.
func (t *Tool) Deactivate() {
	if t.state == Drawing {
		t.finishDrawing("deactivate")
	}
	t.active = false
}

// Active reports whether the tool is selected.
func (t *Tool) Active() bool { return t.active }

// State returns the current state.
func (t *Tool) State() State { return t.state }

// Err returns the error of the last commit, if any.
func (t *Tool) Err() error { return t.lastErr }

// Preview returns the line being drawn or manipulated.
func (t *Tool) Preview() (core.Line, bool) {
	switch t.state {
	case Drawing:
		return core.Line{Start: t.start, End: t.end, Color: t.color, StrokeWidth: t.width}, true
	case Manipulating:
		return *t.live, true
	}
	return core.Line{}, false
}

// PointerDown starts drawing a new line at the pointer position.
func (t *Tool) PointerDown(ev pointer.Event) error {
	if !t.active {
		return ErrInactive
	}
	sub, err := t.bus.Capture(pointer.Handlers{
		Move:   t.drawMove,
		Up:     t.drawUp,
		Cancel: t.drawCancel,
	})
	if err != nil {
		return err
	}
	t.sub = sub
	t.state = Drawing
	t.start = t.view.ScreenToCanvas(ev.Screen)
	t.end = t.start
	t.lastErr = nil
	return nil
}

func (t *Tool) drawMove(ev pointer.Event) {
	if t.state != Drawing {
		return
	}
	t.end = Snap(t.start, t.view.ScreenToCanvas(ev.Screen))
}

func (t *Tool) drawUp(ev pointer.Event) {
	t.drawMove(ev)
	t.finishDrawing("release")
}

// A cancelled drawing is treated like a release: long enough lines are kept.
func (t *Tool) drawCancel(pointer.Event) {
	t.finishDrawing("cancel")
}

func (t *Tool) finishDrawing(reason string) {
	t.sub.Release()
	t.sub = nil
	t.state = Idle

	length := t.start.Distance(t.end)
	log := logrus.WithFields(logrus.Fields{"length": length, "reason": reason})
	if length <= MinLength {
		log.Debug("Line discarded below minimum length")
		return
	}

	line := &core.Line{Start: t.start, End: t.end, Color: t.color, StrokeWidth: t.width}
	id, err := t.sink.Create(line)
	if err != nil {
		t.lastErr = err
		log.WithError(err).Error("Failed to create line")
		return
	}
	log.WithField("object_id", id).Debug("Line created")
}

// HitTest reports whether the canvas point p selects line.
func (t *Tool) HitTest(line *core.Line, p core.Point) bool {
	return DistanceToSegment(p, line.Start, line.End) <= t.view.ScreenLengthToCanvas(HitTolerance)
}

// HandleAt returns the handle of a selected line under canvas point p.
// Endpoints win over the midpoint when they overlap on short lines.
func (t *Tool) HandleAt(line *core.Line, p core.Point) Handle {
	r := t.view.ScreenLengthToCanvas(HandleRadius)
	switch {
	case p.Distance(line.Start) <= r:
		return HandleStart
	case p.Distance(line.End) <= r:
		return HandleEnd
	case p.Distance(line.Midpoint()) <= r:
		return HandleMove
	}
	return HandleNone
}

// BeginManipulation starts dragging handle h of an existing line.
func (t *Tool) BeginManipulation(line *core.Line, h Handle, ev pointer.Event) error {
	if h == HandleNone {
		return fmt.Errorf("begin line manipulation: no handle")
	}
	sub, err := t.bus.Capture(pointer.Handlers{
		Move:   t.manipulateMove,
		Up:     t.manipulateUp,
		Cancel: t.manipulateCancel,
	})
	if err != nil {
		return err
	}
	t.sub = sub
	t.state = Manipulating
	t.handle = h
	t.origin = ev.Screen
	t.base = line.Clone().(*core.Line)
	t.live = line.Clone().(*core.Line)
	t.lastErr = nil
	return nil
}

// Endpoints follow the pointer exactly; they are not re-snapped.
func (t *Tool) manipulateMove(ev pointer.Event) {
	if t.state != Manipulating {
		return
	}
	delta := t.view.ScreenDeltaToCanvas(ev.Screen.Sub(t.origin))
	live := *t.base
	switch t.handle {
	case HandleMove:
		live.Start = live.Start.Add(delta)
		live.End = live.End.Add(delta)
	case HandleStart:
		live.Start = live.Start.Add(delta)
	case HandleEnd:
		live.End = live.End.Add(delta)
	}
	t.live = &live
}

func (t *Tool) manipulateUp(ev pointer.Event) {
	t.manipulateMove(ev)
	t.finishManipulation(true, "release")
}

func (t *Tool) manipulateCancel(pointer.Event) {
	t.finishManipulation(t.policy == gesture.CommitOnCancel, "cancel")
}

func (t *Tool) finishManipulation(commit bool, reason string) {
	t.sub.Release()
	t.sub = nil
	t.state = Idle
	live := t.live
	t.base, t.live = nil, nil

	log := logrus.WithFields(logrus.Fields{"object_id": live.ID, "reason": reason})
	if !commit {
		log.Debug("Line manipulation ended without commit")
		return
	}
	if err := t.sink.Update(live); err != nil {
		t.lastErr = err
		log.WithError(err).Error("Failed to update line")
		return
	}
	log.Debug("Line updated")
}

// Teardown ends whatever the tool is doing because its host is going away.
// The outcome matches a pointer cancel.
func (t *Tool) Teardown() {
	switch t.state {
	case Drawing:
		t.finishDrawing("teardown")
	case Manipulating:
		t.finishManipulation(t.policy == gesture.CommitOnCancel, "teardown")
	}
}
