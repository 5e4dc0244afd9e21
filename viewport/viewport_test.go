package viewport

import (
	"math"
	"testing"

	"marker-mind/core"
)

const eps = 1e-9

func TestSetZoom_Clamps(t *testing.T) {
	cases := []struct {
		target, want float64
	}{
		{0.1, MinZoom},
		{0.25, 0.25},
		{1.7, 1.7},
		{3.0, 3.0},
		{12, MaxZoom},
		{-3, MinZoom},
	}
	for _, tc := range cases {
		tr := New()
		tr.SetZoom(tc.target, core.Pt(10, 10))
		if tr.Zoom() != tc.want {
			t.Errorf("SetZoom(%v) zoom = %v, want %v", tc.target, tr.Zoom(), tc.want)
		}
	}
}

func TestSetZoom_IgnoresNaN(t *testing.T) {
	tr := New()
	tr.SetZoom(math.NaN(), core.Pt(0, 0))
	tr.SetZoom(math.Inf(1), core.Pt(0, 0))
	if tr.Zoom() != 1 {
		t.Errorf("zoom = %v after NaN/Inf, want 1", tr.Zoom())
	}
}

func TestSetZoom_KeepsAnchorFixed(t *testing.T) {
	pans := []core.Point{{X: 0, Y: 0}, {X: 120, Y: -40}, {X: -333.5, Y: 17.25}}
	zooms := []float64{0.25, 0.8, 1, 2.2, 3}
	targets := []float64{0.3, 1, 1.9, 2.75, 5}
	anchors := []core.Point{{X: 0, Y: 0}, {X: 400, Y: 300}, {X: -20, Y: 999}, {X: 13.7, Y: 42.1}}

	for _, pan := range pans {
		for _, z := range zooms {
			for _, target := range targets {
				for _, anchor := range anchors {
					tr := New()
					tr.SetZoom(z, core.Point{})
					tr.PanBy(pan.Sub(tr.Pan()))

					before := tr.ScreenToCanvas(anchor)
					tr.SetZoom(target, anchor)
					after := tr.ScreenToCanvas(anchor)

					if !before.ApproxEqual(after, 1e-6) {
						t.Fatalf("pan=%v zoom=%v target=%v anchor=%v: canvas point moved %v -> %v",
							pan, z, target, anchor, before, after)
					}
				}
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	tr := New()
	tr.SetZoom(1.75, core.Pt(200, 100))
	tr.PanBy(core.Pt(-35.5, 12))

	points := []core.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: -1000.25, Y: 523.5}, {X: 1e6, Y: -1e6}}
	for _, p := range points {
		got := tr.ScreenToCanvas(tr.CanvasToScreen(p))
		if !got.ApproxEqual(p, 1e-6) {
			t.Errorf("round trip of %v = %v", p, got)
		}
		back := tr.CanvasToScreen(tr.ScreenToCanvas(p))
		if !back.ApproxEqual(p, 1e-6) {
			t.Errorf("inverse round trip of %v = %v", p, back)
		}
	}
}

func TestStepZoom_Scenario(t *testing.T) {
	tr := New()
	want := []float64{1.25, 1.5, 1.75}
	for i, w := range want {
		tr.StepZoom(1)
		if math.Abs(tr.Zoom()-w) > eps {
			t.Fatalf("step %d: zoom = %v, want %v", i+1, tr.Zoom(), w)
		}
	}
	tr.StepZoom(-1)
	if math.Abs(tr.Zoom()-1.5) > eps {
		t.Errorf("step out: zoom = %v, want 1.5", tr.Zoom())
	}
}

func TestStepZoom_OffGridAndBounds(t *testing.T) {
	if got := NextStep(1.1, 1); math.Abs(got-1.25) > eps {
		t.Errorf("NextStep(1.1, +1) = %v, want 1.25", got)
	}
	if got := NextStep(1.1, -1); math.Abs(got-1.0) > eps {
		t.Errorf("NextStep(1.1, -1) = %v, want 1.0", got)
	}
	if got := NextStep(MaxZoom, 1); got != MaxZoom {
		t.Errorf("NextStep(max, +1) = %v", got)
	}
	if got := NextStep(MinZoom, -1); got != MinZoom {
		t.Errorf("NextStep(min, -1) = %v", got)
	}
}

func TestStepZoom_AnchorsAtCenterWhenSized(t *testing.T) {
	tr := New()
	tr.SetScreenSize(core.Pt(800, 600))
	center := core.Pt(400, 300)
	before := tr.ScreenToCanvas(center)
	tr.StepZoom(1)
	if after := tr.ScreenToCanvas(center); !before.ApproxEqual(after, 1e-9) {
		t.Errorf("center moved from %v to %v", before, after)
	}

	unsized := New()
	unsized.StepZoom(1)
	if unsized.Pan() != (core.Point{}) {
		t.Errorf("unsized step should not pan, got %v", unsized.Pan())
	}
}

func TestPanBy_Unclamped(t *testing.T) {
	tr := New()
	tr.PanBy(core.Pt(-1e9, 1e9))
	if tr.Pan() != core.Pt(-1e9, 1e9) {
		t.Errorf("Pan() = %v", tr.Pan())
	}
	tr.Reset()
	if tr.State() != (Viewport{Zoom: 1}) {
		t.Errorf("Reset() state = %+v", tr.State())
	}
}

func TestScreenDeltaToCanvas(t *testing.T) {
	tr := New()
	tr.SetZoom(2, core.Point{})
	if got := tr.ScreenDeltaToCanvas(core.Pt(10, -4)); got != core.Pt(5, -2) {
		t.Errorf("ScreenDeltaToCanvas = %v", got)
	}
}
