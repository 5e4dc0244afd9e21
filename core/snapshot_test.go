package core

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func sampleObjects() []Object {
	return []Object{
		&Note{Placement: Placement{ID: "n1", Position: Pt(10, 20), Rotation: 15}, Width: 120, Height: 80, Text: "hello", Color: "#ffd"},
		&Label{Placement: Placement{ID: "l1", Position: Pt(-5, 4)}, Text: "title", FontSize: 24},
		&Line{ID: "ln1", Start: Pt(0, 0), End: Pt(100, 50), StrokeWidth: 2},
		&Image{Placement: Placement{ID: "i1", Position: Pt(300, 300), Rotation: -90}, Width: 200, Height: 150, Source: "https://example.com/a.png"},
		&Stroke{Placement: Placement{ID: "s1", Position: Pt(1, 1)}, Points: []Point{{0, 0}, {5, 5}, {10, 0}}, Width: 3},
	}
}

func TestSnapshot_JSONRoundTripEveryKind(t *testing.T) {
	snap := NewSnapshot(sampleObjects()...)

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	for _, kind := range Kinds {
		if !strings.Contains(string(data), `"kind":"`+string(kind)+`"`) {
			t.Errorf("encoded snapshot is missing kind %q: %s", kind, data)
		}
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if !decoded.Equal(snap) {
		t.Errorf("decoded snapshot differs:\n got %v\nwant %v", decoded.IDs(), snap.IDs())
	}
}

func TestSnapshot_UnknownKind(t *testing.T) {
	var s Snapshot
	err := json.Unmarshal([]byte(`[{"kind":"sticker","id":"x"}]`), &s)
	if err == nil {
		t.Fatal("Unmarshal() should fail for an unknown kind")
	}
}

func TestSnapshot_EmptyEncodesAsArray(t *testing.T) {
	data, err := json.Marshal(Snapshot{})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty snapshot encoded as %s, want []", data)
	}
}

func TestSnapshot_IsImmutable(t *testing.T) {
	note := &Note{Placement: Placement{ID: "n1"}, Width: 100, Height: 100}
	snap := NewSnapshot(note)

	note.Width = 999
	got, _ := snap.Find("n1")
	if got.(*Note).Width != 100 {
		t.Errorf("snapshot changed through the input object: width %v", got.(*Note).Width)
	}

	got.(*Note).Width = 555
	again, _ := snap.Find("n1")
	if again.(*Note).Width != 100 {
		t.Errorf("snapshot changed through a returned object: width %v", again.(*Note).Width)
	}

	stroke := &Stroke{Placement: Placement{ID: "s"}, Points: []Point{{1, 1}}}
	snap = NewSnapshot(stroke)
	stroke.Points[0] = Pt(9, 9)
	got, _ = snap.Find("s")
	if got.(*Stroke).Points[0] != Pt(1, 1) {
		t.Errorf("stroke points shared with the input slice")
	}
}

func TestSnapshot_WithAndWithout(t *testing.T) {
	base := NewSnapshot(sampleObjects()...)

	moved := &Note{Placement: Placement{ID: "n1", Position: Pt(50, 50)}, Width: 60, Height: 60}
	next := base.With(moved)
	if next.Len() != base.Len() {
		t.Fatalf("With() of an existing id changed length: %d -> %d", base.Len(), next.Len())
	}
	if next.IndexOf("n1") != 0 {
		t.Errorf("With() moved the object in the order: index %d", next.IndexOf("n1"))
	}
	if orig, _ := base.Find("n1"); orig.(*Note).Position != Pt(10, 20) {
		t.Errorf("With() modified the receiver")
	}

	added := next.With(&Label{Placement: Placement{ID: "new"}})
	if added.IndexOf("new") != added.Len()-1 {
		t.Errorf("With() of a new id should append on top")
	}

	removed := added.Without("ln1")
	if _, ok := removed.Find("ln1"); ok {
		t.Error("Without() kept the object")
	}
	if removed.Len() != added.Len()-1 {
		t.Errorf("Without() length: got %d, want %d", removed.Len(), added.Len()-1)
	}
}

func TestClampSize(t *testing.T) {
	n := ClampSize(&Note{Width: 10, Height: 200}).(*Note)
	if n.Width != MinObjectSize || n.Height != 200 {
		t.Errorf("ClampSize(note) = %vx%v", n.Width, n.Height)
	}
	i := ClampSize(&Image{Width: math.NaN(), Height: -4}).(*Image)
	if i.Width != MinObjectSize || i.Height != MinObjectSize {
		t.Errorf("ClampSize(image) = %vx%v", i.Width, i.Height)
	}
}

func TestTranslate(t *testing.T) {
	l := Translate(&Line{ID: "l", Start: Pt(0, 0), End: Pt(10, 0)}, Pt(5, -5)).(*Line)
	if l.Start != Pt(5, -5) || l.End != Pt(15, -5) {
		t.Errorf("Translate(line) = %v %v", l.Start, l.End)
	}
	n := Translate(&Note{Placement: Placement{Position: Pt(1, 2)}}, Pt(1, 1)).(*Note)
	if n.Position != Pt(2, 3) {
		t.Errorf("Translate(note) = %v", n.Position)
	}
}

func TestFrameContainsRotated(t *testing.T) {
	// A 100x20 bar rotated 90 degrees around its center (50,10) stands upright.
	f := FrameOf(&Note{Placement: Placement{Rotation: 90}, Width: 100, Height: 20})
	if !f.Contains(Pt(50, 50)) {
		t.Error("point on the rotated bar should be inside")
	}
	if f.Contains(Pt(95, 10)) {
		t.Error("point on the unrotated bar end should be outside after rotation")
	}
}

func TestNormalizeAndWrapDegrees(t *testing.T) {
	cases := map[float64]float64{-90: 270, 720: 0, 361: 1, 45: 45}
	for in, want := range cases {
		if got := NormalizeDegrees(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", in, got, want)
		}
	}
	if got := WrapDegrees(350); math.Abs(got+10) > 1e-9 {
		t.Errorf("WrapDegrees(350) = %v, want -10", got)
	}
	if got := WrapDegrees(-180); got != 180 {
		t.Errorf("WrapDegrees(-180) = %v, want 180", got)
	}
}

func TestErrors(t *testing.T) {
	err := error(&PersistenceError{BoardID: "b", Err: &NotFoundError{ID: "b"}})
	if !errors.Is(err, ErrNotFound) {
		t.Error("PersistenceError should unwrap to ErrNotFound")
	}
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.BoardID != "b" {
		t.Error("errors.As(PersistenceError) failed")
	}
	if len(NewID()) != 26 {
		t.Error("NewID() should return a 26 character ULID")
	}
}
