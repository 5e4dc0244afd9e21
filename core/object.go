package core

import "reflect"

// Kind tags the variant of a canvas object. It is the persisted discriminator.
type Kind string

const (
	KindNote   Kind = "note"
	KindLabel  Kind = "label"
	KindLine   Kind = "line"
	KindImage  Kind = "image"
	KindStroke Kind = "stroke"
)

// Kinds lists every object kind in a stable order.
var Kinds = []Kind{KindNote, KindLabel, KindLine, KindImage, KindStroke}

// MinObjectSize is the smallest width or height a size-bearing object may have.
const MinObjectSize = 60.0

type (
	// Object is one element on the board. The set of implementations is closed;
	// consumers dispatch on it with a Visitor so a new kind fails to compile
	// until every consumer handles it.
	Object interface {
		Identity() string
		Kind() Kind
		Accept(v Visitor)
		Clone() Object
		sealed()
	}

	// Visitor has one method per object kind.
	Visitor interface {
		VisitNote(n *Note)
		VisitLabel(l *Label)
		VisitLine(l *Line)
		VisitImage(i *Image)
		VisitStroke(s *Stroke)
	}

	// Placement holds the fields shared by every positioned object.
	Placement struct {
		ID       string  `json:"id"`
		Position Point   `json:"position"`
		Rotation float64 `json:"rotation"` // degrees, not normalized
	}

	Note struct {
		Placement
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Text   string  `json:"text"`
		Color  string  `json:"color,omitempty"`
	}

	Label struct {
		Placement
		Text     string  `json:"text"`
		FontSize float64 `json:"fontSize"`
	}

	// Line is defined by its endpoints and has no position or size of its own.
	Line struct {
		ID          string  `json:"id"`
		Start       Point   `json:"start"`
		End         Point   `json:"end"`
		Color       string  `json:"color,omitempty"`
		StrokeWidth float64 `json:"strokeWidth"`
	}

	Image struct {
		Placement
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Source string  `json:"source"`
	}

	// Stroke is a freehand path. Points are relative to Position.
	Stroke struct {
		Placement
		Points []Point `json:"points"`
		Color  string  `json:"color,omitempty"`
		Width  float64 `json:"width"`
	}
)

func (p Placement) Identity() string { return p.ID }

func (*Note) Kind() Kind   { return KindNote }
func (*Label) Kind() Kind  { return KindLabel }
func (*Line) Kind() Kind   { return KindLine }
func (*Image) Kind() Kind  { return KindImage }
func (*Stroke) Kind() Kind { return KindStroke }

func (l *Line) Identity() string { return l.ID }

func (n *Note) Accept(v Visitor)   { v.VisitNote(n) }
func (l *Label) Accept(v Visitor)  { v.VisitLabel(l) }
func (l *Line) Accept(v Visitor)   { v.VisitLine(l) }
func (i *Image) Accept(v Visitor)  { v.VisitImage(i) }
func (s *Stroke) Accept(v Visitor) { v.VisitStroke(s) }

func (n *Note) Clone() Object  { c := *n; return &c }
func (l *Label) Clone() Object { c := *l; return &c }
func (l *Line) Clone() Object  { c := *l; return &c }
func (i *Image) Clone() Object { c := *i; return &c }

func (s *Stroke) Clone() Object {
	c := *s
	c.Points = append([]Point(nil), s.Points...)
	return &c
}

func (*Note) sealed()   {}
func (*Label) sealed()  {}
func (*Line) sealed()   {}
func (*Image) sealed()  {}
func (*Stroke) sealed() {}

// Size returns the note's dimensions as a point.
func (n *Note) Size() Point { return Point{X: n.Width, Y: n.Height} }

// Size returns the image's dimensions as a point.
func (i *Image) Size() Point { return Point{X: i.Width, Y: i.Height} }

// Midpoint returns the point halfway between the endpoints.
func (l *Line) Midpoint() Point { return l.Start.Lerp(l.End, 0.5) }

// Length returns the Euclidean length of the segment.
func (l *Line) Length() float64 { return l.Start.Distance(l.End) }

// Equal reports whether two objects are deeply equal.
func Equal(a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}

// ClampSize returns a copy of o whose width and height respect MinObjectSize.
// Objects without a size are returned as a plain copy.
func ClampSize(o Object) Object {
	c := o.Clone()
	c.Accept(sizeClamper{})
	return c
}

type sizeClamper struct{}

func (sizeClamper) VisitNote(n *Note) {
	n.Width, n.Height = clampMin(n.Width), clampMin(n.Height)
}
func (sizeClamper) VisitImage(i *Image) {
	i.Width, i.Height = clampMin(i.Width), clampMin(i.Height)
}
func (sizeClamper) VisitLabel(*Label)   {}
func (sizeClamper) VisitLine(*Line)     {}
func (sizeClamper) VisitStroke(*Stroke) {}

func clampMin(v float64) float64 {
	if v < MinObjectSize || v != v {
		return MinObjectSize
	}
	return v
}

// Translate returns a copy of o moved by delta in canvas units.
func Translate(o Object, delta Point) Object {
	c := o.Clone()
	c.Accept(translator{delta: delta})
	return c
}

type translator struct{ delta Point }

func (t translator) VisitNote(n *Note)     { n.Position = n.Position.Add(t.delta) }
func (t translator) VisitLabel(l *Label)   { l.Position = l.Position.Add(t.delta) }
func (t translator) VisitImage(i *Image)   { i.Position = i.Position.Add(t.delta) }
func (t translator) VisitStroke(s *Stroke) { s.Position = s.Position.Add(t.delta) }
func (t translator) VisitLine(l *Line) {
	l.Start = l.Start.Add(t.delta)
	l.End = l.End.Add(t.delta)
}
