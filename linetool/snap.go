package linetool

import (
	"math"

	"marker-mind/core"
)

// SnapThreshold is the largest angular distance, in degrees, that still snaps.
const SnapThreshold = 15.0

// angleEpsilon absorbs atan2 noise so an angle exactly SnapThreshold away
// from a snap angle stays raw.
const angleEpsilon = 1e-9

// SnapAngles are the canonical directions a drawn line snaps to.
var SnapAngles = []float64{0, 45, 90, 135, 180, -45, -90, -135}

// Snap returns the end point of a line drawn from start towards end. When
// the raw angle lies within SnapThreshold of a snap angle, the end point is
// moved onto that angle at the same distance from start; otherwise end is
// returned as is.
func Snap(start, end core.Point) core.Point {
	dist := start.Distance(end)
	if dist == 0 {
		return end
	}

	raw := start.AngleDeg(end)
	best, bestDiff := 0.0, math.Inf(1)
	for _, a := range SnapAngles {
		if diff := math.Abs(core.WrapDegrees(raw - a)); diff < bestDiff {
			best, bestDiff = a, diff
		}
	}
	if bestDiff >= SnapThreshold-angleEpsilon {
		return end
	}

	sin, cos := math.Sincos(best * math.Pi / 180)
	return core.Point{X: start.X + cos*dist, Y: start.Y + sin*dist}
}

// DistanceToSegment returns the distance from p to the segment a-b.
func DistanceToSegment(p, a, b core.Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.X*ab.X + ab.Y*ab.Y
	if lenSq == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(ab.Scale(t)))
}
