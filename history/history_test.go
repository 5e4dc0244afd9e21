package history

import (
	"fmt"
	"testing"

	"marker-mind/core"
)

// snap builds a one-note snapshot whose id encodes n, so snapshots are easy
// to tell apart.
func snap(n int) core.Snapshot {
	return core.NewSnapshot(&core.Note{
		Placement: core.Placement{ID: fmt.Sprintf("n%d", n)},
		Width:     60,
		Height:    60,
	})
}

func entry(n int) Entry {
	return Entry{Action: ActionUpdate, ObjectKind: core.KindNote, Before: snap(n), After: snap(n + 1)}
}

func TestNew_DefaultCapacity(t *testing.T) {
	if got := New(0).Capacity(); got != DefaultCapacity {
		t.Errorf("New(0).Capacity() = %d, want %d", got, DefaultCapacity)
	}
	if got := New(5).Capacity(); got != 5 {
		t.Errorf("New(5).Capacity() = %d", got)
	}
}

func TestUndoRedo_EmptyIsNoop(t *testing.T) {
	m := New(DefaultCapacity)
	if _, ok := m.Undo(); ok {
		t.Error("Undo() on empty history reported ok")
	}
	if _, ok := m.Redo(); ok {
		t.Error("Redo() on empty history reported ok")
	}
	if m.CanUndo() || m.CanRedo() {
		t.Error("empty history should report CanUndo/CanRedo false")
	}
}

func TestPush_EvictsOldest(t *testing.T) {
	m := New(20)
	for i := 0; i < 25; i++ {
		m.Push(entry(i))
	}

	past, future := m.Len()
	if past != 20 || future != 0 {
		t.Fatalf("Len() = %d, %d; want 20, 0", past, future)
	}

	var last core.Snapshot
	undone := 0
	for {
		s, ok := m.Undo()
		if !ok {
			break
		}
		last = s
		undone++
	}
	if undone != 20 {
		t.Fatalf("undid %d entries, want 20", undone)
	}
	// Entries 0..4 were evicted, so the oldest retained before-snapshot is 5.
	if !last.Equal(snap(5)) {
		t.Errorf("full undo restored %v, want %v", last.IDs(), snap(5).IDs())
	}

	s, ok := m.Redo()
	if !ok {
		t.Fatal("Redo() after full undo reported no entry")
	}
	// Redo replays the oldest retained entry first; its after snapshot is 6.
	if !s.Equal(snap(6)) {
		t.Errorf("Redo() = %v, want %v", s.IDs(), snap(6).IDs())
	}
}

func TestRedo_RestoresMostRecentAfterSingleUndo(t *testing.T) {
	m := New(20)
	for i := 0; i < 25; i++ {
		m.Push(entry(i))
	}
	if _, ok := m.Undo(); !ok {
		t.Fatal("Undo() failed")
	}
	s, ok := m.Redo()
	if !ok || !s.Equal(snap(25)) {
		t.Errorf("Redo() = %v, %v; want the most recent after snapshot", s.IDs(), ok)
	}
}

func TestPush_ClearsFuture(t *testing.T) {
	m := New(20)
	m.Push(entry(1))
	m.Push(entry(2))
	m.Undo()
	if !m.CanRedo() {
		t.Fatal("CanRedo() should be true after undo")
	}

	m.Push(entry(3))
	if m.CanRedo() {
		t.Error("CanRedo() should be false after a new push")
	}
	if _, ok := m.Redo(); ok {
		t.Error("Redo() after a new push should be a no-op")
	}
}

func TestUndoRedo_Order(t *testing.T) {
	m := New(20)
	m.Push(Entry{Action: ActionCreate, Before: snap(0), After: snap(1)})
	m.Push(Entry{Action: ActionUpdate, Before: snap(1), After: snap(2)})

	if e, _ := m.Peek(); e.Action != ActionUpdate {
		t.Errorf("Peek() = %v, want update", e.Action)
	}

	s, _ := m.Undo()
	if !s.Equal(snap(1)) {
		t.Errorf("first Undo() = %v", s.IDs())
	}
	s, _ = m.Undo()
	if !s.Equal(snap(0)) {
		t.Errorf("second Undo() = %v", s.IDs())
	}
	s, _ = m.Redo()
	if !s.Equal(snap(1)) {
		t.Errorf("first Redo() = %v", s.IDs())
	}
	s, _ = m.Redo()
	if !s.Equal(snap(2)) {
		t.Errorf("second Redo() = %v", s.IDs())
	}
}

func TestClear(t *testing.T) {
	m := New(3)
	m.Push(entry(1))
	m.Push(entry(2))
	m.Undo()
	m.Clear()
	if m.CanUndo() || m.CanRedo() {
		t.Error("Clear() left entries behind")
	}
}
