package core

import "math"

// Point is a 2D coordinate or delta. Screen and canvas space share the type;
// the viewport package converts between them.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point) Scale(factor float64) Point {
	return Point{X: p.X * factor, Y: p.Y * factor}
}

// Len returns the length of the point treated as a vector.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	return other.Sub(p).Len()
}

// Lerp returns the point a fraction t of the way from p to other.
func (p Point) Lerp(other Point, t float64) Point {
	return p.Add(other.Sub(p).Scale(t))
}

// Rotate rotates p around center by deg degrees.
func (p Point) Rotate(center Point, deg float64) Point {
	if deg == 0 {
		return p
	}
	sin, cos := math.Sincos(deg * math.Pi / 180)
	d := p.Sub(center)
	return Point{
		X: center.X + d.X*cos - d.Y*sin,
		Y: center.Y + d.X*sin + d.Y*cos,
	}
}

// ApproxEqual reports whether two points are within eps on both axes.
func (p Point) ApproxEqual(other Point, eps float64) bool {
	return math.Abs(p.X-other.X) <= eps && math.Abs(p.Y-other.Y) <= eps
}

// AngleDeg returns the angle of the vector from p to other in degrees,
// in the range (-180, 180].
func (p Point) AngleDeg(other Point) float64 {
	d := other.Sub(p)
	return math.Atan2(d.Y, d.X) * 180 / math.Pi
}

// NormalizeDegrees maps an accumulated rotation into [0, 360) for display.
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// WrapDegrees maps an angle difference into (-180, 180].
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
