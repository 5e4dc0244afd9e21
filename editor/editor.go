// Package editor hosts the interactive pieces of a board: it routes pointer
// input to the gesture controller, the line tool or viewport panning, and
// owns the hit testing that decides which of them gets a press.
//
// An Editor is driven from a single goroutine. The board store it wraps is
// safe for concurrent use, so saves may complete in the background.
package editor

import (
	"context"
	"fmt"
	"math"
	"time"

	"marker-mind/board"
	"marker-mind/core"
	"marker-mind/gesture"
	"marker-mind/linetool"
	"marker-mind/pointer"
	"marker-mind/viewport"

	"github.com/sirupsen/logrus"
)

// Tool is the active tool mode.
type Tool int

const (
	ToolSelect Tool = iota
	ToolLine
	ToolPan
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolLine:
		return "line"
	case ToolPan:
		return "pan"
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool maps a tool name back to its Tool.
func ParseTool(name string) (Tool, error) {
	for _, t := range []Tool{ToolSelect, ToolLine, ToolPan} {
		if t.String() == name {
			return t, nil
		}
	}
	return ToolSelect, fmt.Errorf("unknown tool %q", name)
}

// wheelSensitivity converts wheel delta units into a zoom exponent.
const wheelSensitivity = 0.001

type Editor struct {
	opts     Options
	view     *viewport.Transform
	bus      *pointer.Bus
	board    *board.Store
	gestures *gesture.Controller
	lines    *linetool.Tool
	tool     Tool

	pan     *pointer.Subscription
	panLast core.Point

	stopAutoSave context.CancelFunc
	closed       bool
}

// New builds an editor around store with a fresh viewport and pointer bus.
func New(store *board.Store, opts Options) *Editor {
	e := &Editor{
		opts:  opts,
		view:  viewport.New(),
		bus:   pointer.NewBus(),
		board: store,
	}
	e.gestures = gesture.New(e.bus, e.view, store, gesture.WithCancelPolicy(opts.CancelPolicy))
	e.lines = linetool.New(e.bus, e.view, store, linetool.WithCancelPolicy(opts.CancelPolicy))
	return e
}

func (e *Editor) View() *viewport.Transform { return e.view }
func (e *Editor) Bus() *pointer.Bus { return e.bus }
func (e *Editor) Board() *board.Store { return e.board }
func (e *Editor) Gestures() *gesture.Controller { return e.gestures }
func (e *Editor) Lines() *linetool.Tool { return e.lines }
func (e *Editor) Tool() Tool { return e.tool }

// SetTool switches the tool mode. Any interaction in progress is finished
// first, as if its pointer had been cancelled.
func (e *Editor) SetTool(t Tool) {
	if t == e.tool {
		return
	}
	e.endInteractions()

	if e.tool == ToolLine {
		e.lines.Deactivate()
	}
	if t == ToolLine {
		e.lines.Activate()
		e.board.ClearSelection()
	}

	logrus.WithFields(logrus.Fields{
		"board_id": e.board.ID(),
		"from":     e.tool.String(),
		"to":       t.String(),
	}).Debug("Tool changed")
	e.tool = t
}

// PointerDown routes a press to the active tool.
func (e *Editor) PointerDown(ev pointer.Event) error {
	if e.closed {
		return fmt.Errorf("pointer down: editor closed")
	}
	if e.bus.Captured() {
		return pointer.ErrCaptured
	}

	switch {
	case e.tool == ToolLine:
		return e.lines.PointerDown(ev)
	case e.tool == ToolPan, ev.Button == pointer.ButtonMiddle:
		return e.beginPan(ev)
	}

	p := e.view.ScreenToCanvas(ev.Screen)

	if sel := e.board.Selection(); !sel.IsZero() {
		if obj, ok := e.board.Object(sel.ID); ok {
			started, err := e.beginOnHandle(obj, p, ev)
			if started || err != nil {
				return err
			}
		}
	}

	obj, ok := e.HitTest(p)
	if !ok {
		e.board.ClearSelection()
		return e.beginPan(ev)
	}
	if err := e.board.Select(obj.Identity()); err != nil {
		return err
	}
	// Lines are moved through their handles once selected.
	if !gesture.Supports(obj, gesture.HandleBody) {
		return nil
	}
	return e.gestures.Begin(obj, gesture.HandleBody, ev)
}

func (e *Editor) PointerMove(ev pointer.Event) bool { return e.bus.Move(ev) }
func (e *Editor) PointerUp(ev pointer.Event) bool { return e.bus.Up(ev) }
func (e *Editor) PointerCancel(ev pointer.Event) bool { return e.bus.Cancel(ev) }

// Wheel zooms around the screen point at. Positive deltaY zooms out.
func (e *Editor) Wheel(deltaY float64, at core.Point) {
	e.view.ZoomBy(math.Exp(-deltaY*wheelSensitivity), at)
}

// StepZoom moves one zoom increment in direction.
func (e *Editor) StepZoom(direction int) {
	e.view.StepZoom(direction)
}

// ResetView returns to 100% zoom with no pan.
func (e *Editor) ResetView() {
	e.view.Reset()
}

// HitTest returns the topmost object under canvas point p.
func (e *Editor) HitTest(p core.Point) (core.Object, bool) {
	objs := e.board.Snapshot().Objects()
	for i := len(objs) - 1; i >= 0; i-- {
		if e.hits(objs[i], p) {
			return objs[i], true
		}
	}
	return nil, false
}

func (e *Editor) hits(obj core.Object, p core.Point) bool {
	if line, ok := obj.(*core.Line); ok {
		return e.lines.HitTest(line, p)
	}
	return core.FrameOf(obj).Contains(p)
}

// HandlePosition returns the canvas position of handle h on obj, or false
// when obj has no such handle.
func (e *Editor) HandlePosition(obj core.Object, h gesture.Handle) (core.Point, bool) {
	if h == gesture.HandleBody || !gesture.Supports(obj, h) {
		return core.Point{}, false
	}
	frame := core.FrameOf(obj)
	switch h {
	case gesture.HandleResize:
		return frame.ToWorld(frame.Box.BottomRight()), true
	case gesture.HandleRotate:
		offset := e.view.ScreenLengthToCanvas(e.opts.RotateHandleOffset)
		top := core.Pt(frame.Box.Center().X, frame.Box.Y-offset)
		return frame.ToWorld(top), true
	}
	return core.Point{}, false
}

// beginOnHandle starts a handle gesture when p is on one of the handles of
// the selected object.
func (e *Editor) beginOnHandle(obj core.Object, p core.Point, ev pointer.Event) (bool, error) {
	if line, ok := obj.(*core.Line); ok {
		h := e.lines.HandleAt(line, p)
		if h == linetool.HandleNone {
			return false, nil
		}
		return true, e.lines.BeginManipulation(line, h, ev)
	}

	r := e.view.ScreenLengthToCanvas(e.opts.HandleRadius)
	for _, h := range []gesture.Handle{gesture.HandleResize, gesture.HandleRotate} {
		pos, ok := e.HandlePosition(obj, h)
		if ok && p.Distance(pos) <= r {
			return true, e.gestures.Begin(obj, h, ev)
		}
	}
	return false, nil
}

func (e *Editor) beginPan(ev pointer.Event) error {
	sub, err := e.bus.Capture(pointer.Handlers{
		Move:   e.panMove,
		Up:     e.panUp,
		Cancel: e.panCancel,
	})
	if err != nil {
		return err
	}
	e.pan = sub
	e.panLast = ev.Screen
	return nil
}

func (e *Editor) panMove(ev pointer.Event) {
	e.view.PanBy(ev.Screen.Sub(e.panLast))
	e.panLast = ev.Screen
}

func (e *Editor) panUp(ev pointer.Event) {
	e.panMove(ev)
	e.endPan()
}

func (e *Editor) panCancel(pointer.Event) {
	e.endPan()
}

func (e *Editor) endPan() {
	if e.pan == nil {
		return
	}
	e.pan.Release()
	e.pan = nil
}

// Panning reports whether a pan drag is in progress.
func (e *Editor) Panning() bool { return e.pan != nil }

// Scene returns the board snapshot with the live previews of the running
// gesture or line tool laid over it.
func (e *Editor) Scene() core.Snapshot {
	scene := e.board.Snapshot()
	if obj, ok := e.gestures.Preview(); ok {
		scene = scene.With(obj)
	}
	if line, ok := e.lines.Preview(); ok {
		scene = scene.With(&line)
	}
	return scene
}

// StartAutoSave saves the board in the background every AutoSaveInterval
// while it is dirty. It is a no-op when the interval is zero or auto-save
// is already running.
func (e *Editor) StartAutoSave(ctx context.Context) {
	if e.opts.AutoSaveInterval <= 0 || e.stopAutoSave != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.stopAutoSave = cancel
	go e.board.AutoSave(ctx, e.opts.AutoSaveInterval)
}

// Close ends every interaction and stops auto-save. A final save, if
// wanted, is up to the caller.
func (e *Editor) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.endInteractions()
	e.lines.Deactivate()
	if e.stopAutoSave != nil {
		e.stopAutoSave()
		e.stopAutoSave = nil
	}
	logrus.WithField("board_id", e.board.ID()).Debug("Editor closed")
}

// SaveOnClose closes the editor and saves the board, bounded by timeout.
func (e *Editor) SaveOnClose(timeout time.Duration) error {
	e.Close()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.board.Save(ctx)
}

func (e *Editor) endInteractions() {
	e.gestures.Teardown()
	e.lines.Teardown()
	e.endPan()
}
