package core

import (
	"math"
	"unicode/utf8"
)

// Rect is an axis-aligned rectangle in canvas units.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// BottomRight returns the corner opposite the origin.
func (r Rect) BottomRight() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Frame describes where an object sits: its unrotated box and the rotation
// applied around the box center.
type Frame struct {
	Box      Rect
	Rotation float64
}

// Contains tests p against the rotated box by mapping p into the box's
// local frame.
func (f Frame) Contains(p Point) bool {
	return f.Box.Contains(f.ToLocal(p))
}

// ToLocal undoes the frame rotation for p.
func (f Frame) ToLocal(p Point) Point {
	return p.Rotate(f.Box.Center(), -f.Rotation)
}

// ToWorld applies the frame rotation to a point given in the unrotated box.
func (f Frame) ToWorld(p Point) Point {
	return p.Rotate(f.Box.Center(), f.Rotation)
}

// label boxes are estimated from the text; rendering is not part of the core.
const (
	labelCharWidth  = 0.6
	labelLineHeight = 1.4
)

// FrameOf returns the frame of any object.
func FrameOf(o Object) Frame {
	var v framer
	o.Accept(&v)
	return v.frame
}

type framer struct{ frame Frame }

func (f *framer) VisitNote(n *Note) {
	f.frame = Frame{Box: Rect{X: n.Position.X, Y: n.Position.Y, Width: n.Width, Height: n.Height}, Rotation: n.Rotation}
}

func (f *framer) VisitImage(i *Image) {
	f.frame = Frame{Box: Rect{X: i.Position.X, Y: i.Position.Y, Width: i.Width, Height: i.Height}, Rotation: i.Rotation}
}

func (f *framer) VisitLabel(l *Label) {
	size := l.FontSize
	if size <= 0 {
		size = 16
	}
	width := math.Max(float64(utf8.RuneCountInString(l.Text))*size*labelCharWidth, size)
	f.frame = Frame{Box: Rect{X: l.Position.X, Y: l.Position.Y, Width: width, Height: size * labelLineHeight}, Rotation: l.Rotation}
}

func (f *framer) VisitLine(l *Line) {
	minX, maxX := math.Min(l.Start.X, l.End.X), math.Max(l.Start.X, l.End.X)
	minY, maxY := math.Min(l.Start.Y, l.End.Y), math.Max(l.Start.Y, l.End.Y)
	f.frame = Frame{Box: Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}}
}

func (f *framer) VisitStroke(s *Stroke) {
	if len(s.Points) == 0 {
		f.frame = Frame{Box: Rect{X: s.Position.X, Y: s.Position.Y}, Rotation: s.Rotation}
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range s.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	pad := s.Width / 2
	f.frame = Frame{
		Box: Rect{
			X:      s.Position.X + minX - pad,
			Y:      s.Position.Y + minY - pad,
			Width:  maxX - minX + 2*pad,
			Height: maxY - minY + 2*pad,
		},
		Rotation: s.Rotation,
	}
}
