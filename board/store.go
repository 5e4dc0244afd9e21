// Package board holds the canonical state of one open board: its objects,
// the selection, the dirty flag and the undo history, and it synchronizes
// that state with the persistence side.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marker-mind/core"
	"marker-mind/history"

	"github.com/sirupsen/logrus"
)

// ErrObjectNotFound is returned when an operation names an object that is not
// on the board.
var ErrObjectNotFound = errors.New("object not found")

// DefaultSaveTimeout bounds one save round trip.
const DefaultSaveTimeout = 10 * time.Second

// Options configures a Store.
type Options struct {
	HistoryCapacity int
	SaveTimeout     time.Duration
}

// Selection is the selected object. The zero value selects nothing.
type Selection struct {
	Kind core.Kind
	ID   string
}

// IsZero reports whether nothing is selected.
func (s Selection) IsZero() bool { return s.ID == "" }

// State is what subscribers receive after every change.
type State struct {
	Snapshot  core.Snapshot
	Selection Selection
	Dirty     bool
	CanUndo   bool
	CanRedo   bool
	Revision  int64

	// UndoAction and UndoKind describe what Undo would revert, for labelling
	// the undo control. Both are empty when there is nothing to undo.
	UndoAction history.Action
	UndoKind   core.Kind
}

// Store owns the canonical snapshot of a board. Mutations are recorded in
// the history and mark the store dirty; Save pushes the snapshot to the
// persistence side.
type Store struct {
	id          string
	persistence core.Persistence
	saveTimeout time.Duration

	mu         sync.Mutex
	history    *history.Manager
	snapshot   core.Snapshot
	meta       core.Board
	selection  Selection
	dirty      bool
	generation uint64

	subscribers map[int]func(State)
	nextSub     int

	// A round is in flight while inflight is set. Saves requested meanwhile
	// all join the single queued round.
	inflight *saveRound
	queued   *saveRound
}

type saveRound struct {
	done    chan struct{}
	err     error
	waiters int
}

func newSaveRound() *saveRound {
	return &saveRound{done: make(chan struct{})}
}

// New returns an empty, clean store for board id.
func New(id string, persistence core.Persistence, opts Options) *Store {
	timeout := opts.SaveTimeout
	if timeout <= 0 {
		timeout = DefaultSaveTimeout
	}
	return &Store{
		id:          id,
		persistence: persistence,
		saveTimeout: timeout,
		history:     history.New(opts.HistoryCapacity),
		meta:        core.Board{ID: id},
		subscribers: make(map[int]func(State)),
	}
}

// ID returns the board id.
func (s *Store) ID() string { return s.id }

// Load replaces the local state with the remote board and clears history.
func (s *Store) Load(ctx context.Context) error {
	b, err := s.persistence.FetchBoard(ctx, s.id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			logrus.WithField("board_id", s.id).Warn("Board not found")
		} else {
			logrus.WithField("board_id", s.id).WithError(err).Error("Failed to load board")
		}
		return fmt.Errorf("load board %s: %w", s.id, err)
	}

	s.mu.Lock()
	s.install(b)
	s.history.Clear()
	s.dirty = false
	s.generation++
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)

	logrus.WithFields(logrus.Fields{
		"board_id": s.id,
		"objects":  b.Objects.Len(),
		"revision": b.Revision,
	}).Info("Board loaded")
	return nil
}

// Create adds obj to the board and returns its id. A missing id is
// generated; sizes below the minimum are clamped.
func (s *Store) Create(obj core.Object) (string, error) {
	if obj == nil {
		return "", fmt.Errorf("create object: nil object")
	}
	obj = core.ClampSize(obj)
	if obj.Identity() == "" {
		obj = withID(obj, core.NewID())
	}

	s.mu.Lock()
	if _, exists := s.snapshot.Find(obj.Identity()); exists {
		s.mu.Unlock()
		return "", fmt.Errorf("create object: object with id %s already exists", obj.Identity())
	}
	s.mutateLocked(history.ActionCreate, obj.Kind(), s.snapshot.With(obj))
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)

	logrus.WithFields(logrus.Fields{"object_id": obj.Identity(), "kind": obj.Kind()}).Debug("Object created")
	return obj.Identity(), nil
}

// Update replaces the object with the same id. An update equal to the
// current object changes nothing and records no history.
func (s *Store) Update(obj core.Object) error {
	if obj == nil {
		return fmt.Errorf("update object: nil object")
	}
	obj = core.ClampSize(obj)

	s.mu.Lock()
	current, ok := s.snapshot.Find(obj.Identity())
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update object %s: %w", obj.Identity(), ErrObjectNotFound)
	}
	if current.Kind() != obj.Kind() {
		s.mu.Unlock()
		return fmt.Errorf("update object %s: kind %s cannot become %s", obj.Identity(), current.Kind(), obj.Kind())
	}
	if core.Equal(current, obj) {
		s.mu.Unlock()
		return nil
	}
	s.mutateLocked(history.ActionUpdate, obj.Kind(), s.snapshot.With(obj))
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)

	logrus.WithFields(logrus.Fields{"object_id": obj.Identity(), "kind": obj.Kind()}).Debug("Object updated")
	return nil
}

// Delete removes the object with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	current, ok := s.snapshot.Find(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("delete object %s: %w", id, ErrObjectNotFound)
	}
	s.mutateLocked(history.ActionDelete, current.Kind(), s.snapshot.Without(id))
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)

	logrus.WithFields(logrus.Fields{"object_id": id, "kind": current.Kind()}).Debug("Object deleted")
	return nil
}

// Clear removes every object. It is recorded like any other mutation, so it
// can be undone. Clearing an empty board does nothing.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.snapshot.Len() == 0 {
		s.mu.Unlock()
		return
	}
	s.mutateLocked(history.ActionClear, "", core.NewSnapshot())
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)

	logrus.WithField("board_id", s.id).Debug("Board cleared")
}

// Undo installs the snapshot from before the latest mutation. It reports
// false when there is nothing to undo.
func (s *Store) Undo() bool {
	return s.travel(s.history.Undo, "undo")
}

// Redo reinstalls the snapshot from after the latest undone mutation. It
// reports false when there is nothing to redo.
func (s *Store) Redo() bool {
	return s.travel(s.history.Redo, "redo")
}

func (s *Store) travel(step func() (core.Snapshot, bool), op string) bool {
	s.mu.Lock()
	snap, ok := step()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.snapshot = snap
	s.dirty = true
	s.generation++
	s.pruneSelectionLocked()
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)

	logrus.WithFields(logrus.Fields{"board_id": s.id, "op": op}).Debug("History applied")
	return true
}

// Select makes id the only selected object.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	obj, ok := s.snapshot.Find(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("select object %s: %w", id, ErrObjectNotFound)
	}
	next := Selection{Kind: obj.Kind(), ID: id}
	if next == s.selection {
		s.mu.Unlock()
		return nil
	}
	s.selection = next
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)
	return nil
}

// ClearSelection deselects everything.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	if s.selection.IsZero() {
		s.mu.Unlock()
		return
	}
	s.selection = Selection{}
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)
}

// Selection returns the current selection.
func (s *Store) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SelectedID returns the selected id for kind, or "" when the selection is
// of another kind or empty.
func (s *Store) SelectedID(kind core.Kind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Kind != kind {
		return ""
	}
	return s.selection.ID
}

// Snapshot returns the canonical snapshot.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Object returns a copy of the object with the given id.
func (s *Store) Object(id string) (core.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Find(id)
}

// Board returns the board metadata together with the current objects.
func (s *Store) Board() *core.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.meta
	b.Objects = s.snapshot
	return &b
}

// Dirty reports whether local changes have not been saved yet.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Subscribe registers fn to be called with the new state after every
// change. The returned function unregisters it.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.nextSub
	s.nextSub++
	s.subscribers[key] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, key)
			s.mu.Unlock()
		})
	}
}

func (s *Store) mutateLocked(action history.Action, kind core.Kind, next core.Snapshot) {
	s.history.Push(history.Entry{
		Action:     action,
		ObjectKind: kind,
		Before:     s.snapshot,
		After:      next,
	})
	s.snapshot = next
	s.dirty = true
	s.generation++
	s.pruneSelectionLocked()
}

func (s *Store) pruneSelectionLocked() {
	if s.selection.IsZero() {
		return
	}
	if _, ok := s.snapshot.Find(s.selection.ID); !ok {
		s.selection = Selection{}
	}
}

func (s *Store) install(b *core.Board) {
	s.snapshot = b.Objects
	s.meta = *b.ListView()
	s.meta.ID = s.id
	s.pruneSelectionLocked()
}

func (s *Store) stateLocked() State {
	st := State{
		Snapshot:  s.snapshot,
		Selection: s.selection,
		Dirty:     s.dirty,
		CanUndo:   s.history.CanUndo(),
		CanRedo:   s.history.CanRedo(),
		Revision:  s.meta.Revision,
	}
	if e, ok := s.history.Peek(); ok {
		st.UndoAction, st.UndoKind = e.Action, e.ObjectKind
	}
	return st
}

// State returns the current observable state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// notifyLocked captures what the subscribers need so they can be called
// after the lock is released.
func (s *Store) notifyLocked() (State, []func(State)) {
	if len(s.subscribers) == 0 {
		return State{}, nil
	}
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return s.stateLocked(), subs
}

func notify(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}

// withID returns a copy of o carrying id.
func withID(o core.Object, id string) core.Object {
	out := o.Clone()
	out.Accept(idSetter(id))
	return out
}

type idSetter string

func (id idSetter) VisitNote(n *core.Note)     { n.ID = string(id) }
func (id idSetter) VisitLabel(l *core.Label)   { l.ID = string(id) }
func (id idSetter) VisitLine(l *core.Line)     { l.ID = string(id) }
func (id idSetter) VisitImage(i *core.Image)   { i.ID = string(id) }
func (id idSetter) VisitStroke(s *core.Stroke) { s.ID = string(id) }
