package core

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the ordered collection of board objects at one instant.
// It is a value: objects are cloned on the way in and on the way out, so a
// snapshot captured into history can never change afterwards. Snapshots
// derived with With/Without share the untouched objects.
type Snapshot struct {
	objects []Object
}

// NewSnapshot copies objects into a new snapshot. Nil entries are dropped.
func NewSnapshot(objects ...Object) Snapshot {
	s := Snapshot{objects: make([]Object, 0, len(objects))}
	for _, o := range objects {
		if o != nil {
			s.objects = append(s.objects, o.Clone())
		}
	}
	return s
}

// Len returns the number of objects.
func (s Snapshot) Len() int {
	return len(s.objects)
}

// Objects returns copies of all objects in board order.
func (s Snapshot) Objects() []Object {
	out := make([]Object, len(s.objects))
	for i, o := range s.objects {
		out[i] = o.Clone()
	}
	return out
}

// At returns a copy of the object at index i.
func (s Snapshot) At(i int) Object {
	return s.objects[i].Clone()
}

// IndexOf returns the position of the object with the given id, or -1.
func (s Snapshot) IndexOf(id string) int {
	for i, o := range s.objects {
		if o.Identity() == id {
			return i
		}
	}
	return -1
}

// Find returns a copy of the object with the given id.
func (s Snapshot) Find(id string) (Object, bool) {
	i := s.IndexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.objects[i].Clone(), true
}

// With returns a snapshot where o replaces the object with the same id,
// keeping its position in the order, or is appended on top.
func (s Snapshot) With(o Object) Snapshot {
	next := make([]Object, len(s.objects), len(s.objects)+1)
	copy(next, s.objects)
	if i := s.IndexOf(o.Identity()); i >= 0 {
		next[i] = o.Clone()
	} else {
		next = append(next, o.Clone())
	}
	return Snapshot{objects: next}
}

// Without returns a snapshot with the object of the given id removed.
func (s Snapshot) Without(id string) Snapshot {
	next := make([]Object, 0, len(s.objects))
	for _, o := range s.objects {
		if o.Identity() != id {
			next = append(next, o)
		}
	}
	return Snapshot{objects: next}
}

// Equal reports whether both snapshots hold equal objects in the same order.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.objects) != len(other.objects) {
		return false
	}
	for i := range s.objects {
		if !Equal(s.objects[i], other.objects[i]) {
			return false
		}
	}
	return true
}

// IDs returns the object ids in board order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.objects))
	for i, o := range s.objects {
		ids[i] = o.Identity()
	}
	return ids
}

// MarshalJSON encodes the snapshot as an array of objects, each carrying a
// "kind" discriminator.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	items := make([]any, len(s.objects))
	for i, o := range s.objects {
		var enc encoder
		o.Accept(&enc)
		items[i] = enc.out
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes the array written by MarshalJSON.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	objects := make([]Object, 0, len(raw))
	for i, item := range raw {
		o, err := DecodeObject(item)
		if err != nil {
			return fmt.Errorf("decode snapshot object %d: %w", i, err)
		}
		objects = append(objects, o)
	}
	s.objects = objects
	return nil
}

// DecodeObject decodes a single tagged object.
func DecodeObject(data []byte) (Object, error) {
	var head struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	var o Object
	switch head.Kind {
	case KindNote:
		o = new(Note)
	case KindLabel:
		o = new(Label)
	case KindLine:
		o = new(Line)
	case KindImage:
		o = new(Image)
	case KindStroke:
		o = new(Stroke)
	default:
		return nil, fmt.Errorf("unknown object kind %q", head.Kind)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, err
	}
	return o, nil
}

// EncodeObject encodes a single object with its kind discriminator.
func EncodeObject(o Object) ([]byte, error) {
	var enc encoder
	o.Accept(&enc)
	return json.Marshal(enc.out)
}

type encoder struct{ out any }

func (e *encoder) VisitNote(n *Note) {
	e.out = struct {
		Kind Kind `json:"kind"`
		*Note
	}{KindNote, n}
}

func (e *encoder) VisitLabel(l *Label) {
	e.out = struct {
		Kind Kind `json:"kind"`
		*Label
	}{KindLabel, l}
}

func (e *encoder) VisitLine(l *Line) {
	e.out = struct {
		Kind Kind `json:"kind"`
		*Line
	}{KindLine, l}
}

func (e *encoder) VisitImage(i *Image) {
	e.out = struct {
		Kind Kind `json:"kind"`
		*Image
	}{KindImage, i}
}

func (e *encoder) VisitStroke(s *Stroke) {
	e.out = struct {
		Kind Kind `json:"kind"`
		*Stroke
	}{KindStroke, s}
}
