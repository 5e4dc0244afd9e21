// Package history keeps bounded undo/redo stacks of whole-board snapshots.
package history

import "marker-mind/core"

// DefaultCapacity is the number of undoable entries kept.
const DefaultCapacity = 20

// Action is the kind of mutation an entry records.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionClear  Action = "clear"
)

// Entry records one mutation as the board before and after it.
type Entry struct {
	Action     Action
	ObjectKind core.Kind // empty for board-wide actions
	Before     core.Snapshot
	After      core.Snapshot
}

// Manager holds the past and future stacks. It is not safe for concurrent
// use; the board store serializes access.
type Manager struct {
	capacity int
	past     []Entry
	future   []Entry
}

// New returns a manager keeping at most capacity entries. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{capacity: capacity}
}

// Capacity returns the fixed stack capacity.
func (m *Manager) Capacity() int { return m.capacity }

// Push records an entry. The oldest entry is evicted once the past stack
// exceeds capacity, and the future stack is always emptied.
func (m *Manager) Push(e Entry) {
	m.past = append(m.past, e)
	if over := len(m.past) - m.capacity; over > 0 {
		clear(m.past[:over])
		m.past = append(m.past[:0], m.past[over:]...)
	}
	clear(m.future)
	m.future = m.future[:0]
}

// Undo moves the latest entry to the future stack and returns the snapshot
// from before it. It reports false when there is nothing to undo.
func (m *Manager) Undo() (core.Snapshot, bool) {
	if len(m.past) == 0 {
		return core.Snapshot{}, false
	}
	last := len(m.past) - 1
	e := m.past[last]
	m.past[last] = Entry{}
	m.past = m.past[:last]
	m.future = append(m.future, e)
	return e.Before, true
}

// Redo moves the latest undone entry back to the past stack and returns the
// snapshot from after it. It reports false when there is nothing to redo.
func (m *Manager) Redo() (core.Snapshot, bool) {
	if len(m.future) == 0 {
		return core.Snapshot{}, false
	}
	last := len(m.future) - 1
	e := m.future[last]
	m.future[last] = Entry{}
	m.future = m.future[:last]
	m.past = append(m.past, e)
	return e.After, true
}

// Clear empties both stacks.
func (m *Manager) Clear() {
	m.past = nil
	m.future = nil
}

func (m *Manager) CanUndo() bool { return len(m.past) > 0 }
func (m *Manager) CanRedo() bool { return len(m.future) > 0 }

// Len returns the sizes of the past and future stacks.
func (m *Manager) Len() (past, future int) {
	return len(m.past), len(m.future)
}

// Peek returns the entry Undo would revert.
func (m *Manager) Peek() (Entry, bool) {
	if len(m.past) == 0 {
		return Entry{}, false
	}
	return m.past[len(m.past)-1], true
}
