// Package viewport maps between screen and canvas coordinates under pan and
// zoom.
package viewport

import (
	"math"

	"marker-mind/core"
)

const (
	MinZoom = 0.25
	MaxZoom = 3.0

	// ZoomStep is the increment used by the discrete zoom controls.
	ZoomStep = 0.25

	// stepEpsilon absorbs float noise when deciding whether the current zoom
	// already sits on a step boundary.
	stepEpsilon = 1e-9
)

// Viewport is the read-only view state handed to renderers.
type Viewport struct {
	Pan  core.Point `json:"pan"`
	Zoom float64    `json:"zoom"`
}

// Transform holds the mutable pan/zoom state. The zero value is not usable;
// create one with New.
type Transform struct {
	pan    core.Point
	zoom   float64
	screen core.Point // viewport size in screen pixels, zero when unknown
}

// New returns a transform at 100% zoom with no pan.
func New() *Transform {
	return &Transform{zoom: 1}
}

// State returns the current viewport.
func (t *Transform) State() Viewport {
	return Viewport{Pan: t.pan, Zoom: t.zoom}
}

// Zoom returns the current zoom factor.
func (t *Transform) Zoom() float64 { return t.zoom }

// Pan returns the current pan offset in screen pixels.
func (t *Transform) Pan() core.Point { return t.pan }

// SetScreenSize records the size of the visible area. StepZoom anchors at its
// center once it is known.
func (t *Transform) SetScreenSize(size core.Point) {
	t.screen = size
}

// ScreenToCanvas maps a screen point to canvas coordinates.
func (t *Transform) ScreenToCanvas(p core.Point) core.Point {
	return p.Sub(t.pan).Scale(1 / t.zoom)
}

// CanvasToScreen maps a canvas point to screen coordinates.
func (t *Transform) CanvasToScreen(p core.Point) core.Point {
	return p.Scale(t.zoom).Add(t.pan)
}

// ScreenDeltaToCanvas converts a pointer movement into canvas units.
func (t *Transform) ScreenDeltaToCanvas(d core.Point) core.Point {
	return d.Scale(1 / t.zoom)
}

// ScreenLengthToCanvas converts a length in pixels into canvas units.
func (t *Transform) ScreenLengthToCanvas(l float64) float64 {
	return l / t.zoom
}

// SetZoom clamps target into range and adjusts the pan so that the canvas
// point under anchor stays under it.
func (t *Transform) SetZoom(target float64, anchor core.Point) {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return
	}
	next := Clamp(target)
	if next == t.zoom {
		return
	}
	ratio := next / t.zoom
	t.pan = anchor.Sub(anchor.Sub(t.pan).Scale(ratio))
	t.zoom = next
}

// ZoomBy multiplies the zoom by factor around anchor, as a wheel does.
func (t *Transform) ZoomBy(factor float64, anchor core.Point) {
	if factor <= 0 {
		return
	}
	t.SetZoom(t.zoom*factor, anchor)
}

// StepZoom moves to the next (direction > 0) or previous (direction < 0)
// 25% increment. It anchors at the screen center when the screen size is
// known and leaves the pan alone otherwise.
func (t *Transform) StepZoom(direction int) {
	if direction == 0 {
		return
	}
	target := NextStep(t.zoom, direction)
	if t.screen == (core.Point{}) {
		t.zoom = target
		return
	}
	t.SetZoom(target, t.screen.Scale(0.5))
}

// PanBy shifts the view by a screen-space delta. The canvas is unbounded.
func (t *Transform) PanBy(delta core.Point) {
	t.pan = t.pan.Add(delta)
}

// Reset returns to 100% zoom with no pan.
func (t *Transform) Reset() {
	t.pan = core.Point{}
	t.zoom = 1
}

// Clamp limits z to [MinZoom, MaxZoom].
func Clamp(z float64) float64 {
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// NextStep returns the zoom one discrete step away from z in the given
// direction, clamped into range.
func NextStep(z float64, direction int) float64 {
	steps := z / ZoomStep
	var next float64
	if direction > 0 {
		next = (math.Floor(steps+stepEpsilon) + 1) * ZoomStep
	} else {
		next = (math.Ceil(steps-stepEpsilon) - 1) * ZoomStep
	}
	return Clamp(next)
}
