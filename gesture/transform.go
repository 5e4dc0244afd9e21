package gesture

import (
	"math"

	"marker-mind/core"
)

// capabilities lists which handles each kind offers. Lines are handled by
// the line tool, strokes can only be moved.
type capabilities struct {
	drag, resize, rotate bool
}

func (c *capabilities) VisitNote(*core.Note)     { *c = capabilities{drag: true, resize: true, rotate: true} }
func (c *capabilities) VisitImage(*core.Image)   { *c = capabilities{drag: true, resize: true, rotate: true} }
func (c *capabilities) VisitLabel(*core.Label)   { *c = capabilities{drag: true, rotate: true} }
func (c *capabilities) VisitStroke(*core.Stroke) { *c = capabilities{drag: true} }
func (c *capabilities) VisitLine(*core.Line)     { *c = capabilities{} }

// ResizedSize returns the size produced by dragging the bottom-right corner
// by delta canvas units. Both axes stay at or above core.MinObjectSize. With
// lockAspect the ratio of start is kept, following the dominant axis.
func ResizedSize(start, delta core.Point, lockAspect bool) core.Point {
	w, h := start.X+delta.X, start.Y+delta.Y

	if lockAspect && start.X > 0 && start.Y > 0 {
		scale := math.Max(w/start.X, h/start.Y)
		floor := math.Max(core.MinObjectSize/start.X, core.MinObjectSize/start.Y)
		if scale < floor || math.IsNaN(scale) {
			scale = floor
		}
		return core.Point{X: start.X * scale, Y: start.Y * scale}
	}

	return core.Point{X: math.Max(w, core.MinObjectSize), Y: math.Max(h, core.MinObjectSize)}
}

// resize applies a corner drag. The delta is measured along the object's own
// axes and the top-left corner stays where it is on screen.
func resize(start core.Object, delta core.Point, lockAspect bool) core.Object {
	out := start.Clone()
	out.Accept(&resizer{delta: delta, lockAspect: lockAspect})
	return out
}

type resizer struct {
	delta      core.Point
	lockAspect bool
}

func (r *resizer) VisitNote(n *core.Note) {
	size := ResizedSize(n.Size(), r.local(n.Rotation), r.lockAspect)
	n.Position = anchoredPosition(n.Position, n.Size(), size, n.Rotation)
	n.Width, n.Height = size.X, size.Y
}

func (r *resizer) VisitImage(i *core.Image) {
	size := ResizedSize(i.Size(), r.local(i.Rotation), r.lockAspect)
	i.Position = anchoredPosition(i.Position, i.Size(), size, i.Rotation)
	i.Width, i.Height = size.X, size.Y
}

func (*resizer) VisitLabel(*core.Label)   {}
func (*resizer) VisitLine(*core.Line)     {}
func (*resizer) VisitStroke(*core.Stroke) {}

func (r *resizer) local(rotation float64) core.Point {
	return r.delta.Rotate(core.Point{}, -rotation)
}

// anchoredPosition returns the new top-left (in unrotated terms) that keeps
// the rotated top-left corner fixed when the size changes from old to next.
func anchoredPosition(pos, old, next core.Point, rotation float64) core.Point {
	if rotation == 0 {
		return pos
	}
	corner := pos.Rotate(pos.Add(old.Scale(0.5)), rotation)
	half := next.Scale(0.5)
	return corner.Sub(half).Add(half.Rotate(core.Point{}, rotation))
}

func rotate(start core.Object, deg float64) core.Object {
	out := start.Clone()
	out.Accept(rotator{deg: deg})
	return out
}

type rotator struct{ deg float64 }

func (r rotator) VisitNote(n *core.Note)     { n.Rotation = r.deg }
func (r rotator) VisitLabel(l *core.Label)   { l.Rotation = r.deg }
func (r rotator) VisitImage(i *core.Image)   { i.Rotation = r.deg }
func (r rotator) VisitStroke(s *core.Stroke) { s.Rotation = r.deg }
func (r rotator) VisitLine(*core.Line)       {}

func rotationOf(o core.Object) float64 {
	return core.FrameOf(o).Rotation
}

func snapRotation(deg float64) float64 {
	return math.Round(deg/RotationSnap) * RotationSnap
}
