package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marker-mind/core"
	"marker-mind/history"
)

// Mock persistence keeping one board in memory
type mockPersistence struct {
	mu       sync.Mutex
	board    *core.Board
	saves    []core.Snapshot
	saveErr  error
	fetchErr error

	// When gate is set, SaveBoard signals started and blocks until gate is
	// closed or the context expires.
	gate    chan struct{}
	started chan struct{}
	active  int
	maxSeen int
}

func newMockPersistence() *mockPersistence {
	return &mockPersistence{board: &core.Board{ID: "b1", Name: "Board"}}
}

func (m *mockPersistence) FetchBoard(ctx context.Context, id string) (*core.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if m.board == nil || m.board.ID != id {
		return nil, &core.NotFoundError{ID: id}
	}
	b := *m.board
	return &b, nil
}

func (m *mockPersistence) SaveBoard(ctx context.Context, id string, objects core.Snapshot) error {
	m.mu.Lock()
	m.active++
	if m.active > m.maxSeen {
		m.maxSeen = m.active
	}
	gate, started := m.gate, m.started
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, objects)
	if m.saveErr != nil {
		return m.saveErr
	}
	m.board.Objects = objects
	m.board.Revision++
	m.board.UpdatedAt = time.Now()
	return nil
}

func (m *mockPersistence) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func newNote(id string, x float64) *core.Note {
	return &core.Note{
		Placement: core.Placement{ID: id, Position: core.Pt(x, 0)},
		Width:     100,
		Height:    100,
		Text:      id,
	}
}

func newStore(t *testing.T, p *mockPersistence) *Store {
	t.Helper()
	return New("b1", p, Options{SaveTimeout: time.Second})
}

func TestCreateUpdateUndoRedo(t *testing.T) {
	s := newStore(t, newMockPersistence())

	if _, err := s.Create(newNote("a", 0)); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	moved := newNote("a", 50)
	if err := s.Update(moved); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	afterUpdate := s.Snapshot()

	if !s.Undo() {
		t.Fatal("Undo() reported nothing to undo")
	}
	if got, _ := s.Object("a"); got.(*core.Note).Position.X != 0 {
		t.Errorf("after undo position = %v, want 0", got.(*core.Note).Position.X)
	}
	if !s.Redo() {
		t.Fatal("Redo() reported nothing to redo")
	}
	if !s.Snapshot().Equal(afterUpdate) {
		t.Error("redo did not restore the state after the update")
	}
	if !s.Dirty() {
		t.Error("redo should leave the store dirty")
	}
}

func TestCreate_ClampsAndAssignsID(t *testing.T) {
	s := newStore(t, newMockPersistence())

	id, err := s.Create(&core.Image{Width: 10, Height: 500, Source: "x.png"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("generated id %q is not a ULID", id)
	}
	obj, ok := s.Object(id)
	if !ok {
		t.Fatal("created object not found")
	}
	img := obj.(*core.Image)
	if img.Width != core.MinObjectSize || img.Height != 500 {
		t.Errorf("size = %vx%v, want %vx500", img.Width, img.Height, core.MinObjectSize)
	}
	if !s.Dirty() || !s.CanUndo() {
		t.Error("Create() should mark the store dirty and undoable")
	}

	if _, err := s.Create(&core.Image{Placement: core.Placement{ID: id}}); err == nil {
		t.Error("Create() with a duplicate id should fail")
	}
}

func TestUpdate_Errors(t *testing.T) {
	s := newStore(t, newMockPersistence())
	s.Create(newNote("a", 0))

	if err := s.Update(newNote("missing", 0)); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrObjectNotFound", err)
	}
	label := &core.Label{Placement: core.Placement{ID: "a"}, Text: "x"}
	if err := s.Update(label); err == nil {
		t.Error("Update() changing the kind should fail")
	}
	if err := s.Delete("missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrObjectNotFound", err)
	}
}

func TestUpdate_EqualIsNoOp(t *testing.T) {
	s := newStore(t, newMockPersistence())
	s.Create(newNote("a", 0))
	s.Undo()
	s.Redo()

	if err := s.Update(newNote("a", 0)); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	past, _ := s.history.Len()
	if past != 1 {
		t.Errorf("history has %d entries, want 1", past)
	}
}

func TestDelete_DropsSelection(t *testing.T) {
	s := newStore(t, newMockPersistence())
	s.Create(newNote("a", 0))
	s.Select("a")

	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !s.Selection().IsZero() {
		t.Error("selection of a deleted object survived")
	}
	s.Undo()
	if _, ok := s.Object("a"); !ok {
		t.Error("undo did not restore the deleted object")
	}
}

func TestClear_IsUndoable(t *testing.T) {
	s := newStore(t, newMockPersistence())
	s.Create(newNote("a", 0))
	s.Create(&core.Line{ID: "l", End: core.Pt(100, 0)})
	before := s.Snapshot()

	s.Clear()
	if s.Snapshot().Len() != 0 {
		t.Fatalf("Clear() left %d objects", s.Snapshot().Len())
	}
	entry, _ := s.history.Peek()
	if entry.Action != "clear" {
		t.Errorf("history action = %q, want clear", entry.Action)
	}
	s.Undo()
	if !s.Snapshot().Equal(before) {
		t.Error("undo of clear did not restore the board")
	}

	s.Clear()
	past, _ := s.history.Len()
	s.Clear()
	if p, _ := s.history.Len(); p != past {
		t.Error("clearing an empty board recorded history")
	}
}

func TestUndoRedo_EmptyIsNoOp(t *testing.T) {
	s := newStore(t, newMockPersistence())
	if s.Undo() || s.Redo() {
		t.Error("undo/redo on empty history should report false")
	}
	if s.Dirty() {
		t.Error("empty undo marked the store dirty")
	}
}

func TestSelection_SingleAcrossKinds(t *testing.T) {
	s := newStore(t, newMockPersistence())
	s.Create(newNote("n", 0))
	s.Create(&core.Line{ID: "l", End: core.Pt(100, 0)})

	s.Select("n")
	s.Select("l")
	if got := s.SelectedID(core.KindNote); got != "" {
		t.Errorf("note still selected as %q", got)
	}
	if got := s.SelectedID(core.KindLine); got != "l" {
		t.Errorf("SelectedID(line) = %q, want l", got)
	}
	if err := s.Select("missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Select(missing) error = %v", err)
	}
	s.ClearSelection()
	if !s.Selection().IsZero() {
		t.Error("ClearSelection() kept a selection")
	}
}

func TestLoad(t *testing.T) {
	p := newMockPersistence()
	p.board.Objects = core.NewSnapshot(newNote("remote", 0))
	p.board.Revision = 7
	s := newStore(t, p)
	s.Create(newNote("local", 0))

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if _, ok := s.Object("remote"); !ok || s.Snapshot().Len() != 1 {
		t.Error("Load() did not install the remote objects")
	}
	if s.Dirty() || s.CanUndo() {
		t.Error("Load() should leave a clean store without history")
	}
	if b := s.Board(); b.Revision != 7 || b.Name != "Board" {
		t.Errorf("metadata = %+v", b)
	}

	missing := New("other", p, Options{})
	if err := missing.Load(context.Background()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSave_SuccessReconciles(t *testing.T) {
	p := newMockPersistence()
	s := newStore(t, p)
	s.Create(newNote("a", 0))

	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if s.Dirty() {
		t.Error("Save() left the store dirty")
	}
	if got := s.Board().Revision; got != 1 {
		t.Errorf("revision after save = %d, want 1", got)
	}
	if !s.CanUndo() {
		t.Error("Save() should not clear history")
	}
}

func TestSave_FailurePreservesState(t *testing.T) {
	p := newMockPersistence()
	p.saveErr = errors.New("connection refused")
	s := newStore(t, p)
	s.Create(newNote("a", 0))
	before := s.Snapshot()

	err := s.Save(context.Background())
	var perr *core.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Save() error = %v, want *core.PersistenceError", err)
	}
	if perr.BoardID != "b1" || !errors.Is(err, p.saveErr) {
		t.Errorf("PersistenceError = %+v", perr)
	}
	if !s.Dirty() {
		t.Error("failed save cleared the dirty flag")
	}
	if !s.Snapshot().Equal(before) {
		t.Error("failed save changed the snapshot")
	}

	p.mu.Lock()
	p.saveErr = nil
	p.mu.Unlock()
	if err := s.Save(context.Background()); err != nil {
		t.Errorf("retry failed: %v", err)
	}
}

func TestSave_Timeout(t *testing.T) {
	p := newMockPersistence()
	p.gate = make(chan struct{})
	s := New("b1", p, Options{SaveTimeout: 20 * time.Millisecond})
	s.Create(newNote("a", 0))

	err := s.Save(context.Background())
	var perr *core.PersistenceError
	if !errors.As(err, &perr) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Save() error = %v, want a PersistenceError wrapping DeadlineExceeded", err)
	}
	if !s.Dirty() {
		t.Error("timed out save cleared the dirty flag")
	}
}

func TestSave_Coalesces(t *testing.T) {
	p := newMockPersistence()
	p.gate = make(chan struct{})
	p.started = make(chan struct{}, 2)
	s := newStore(t, p)
	s.Create(newNote("a", 0))

	errs := make(chan error, 4)
	go func() { errs <- s.Save(context.Background()) }()
	<-p.started

	for i := 0; i < 3; i++ {
		go func() { errs <- s.Save(context.Background()) }()
	}
	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.queued != nil && s.queued.waiters == 3
	})
	s.Create(newNote("b", 10))

	close(p.gate)
	for i := 0; i < 4; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Save() failed: %v", err)
		}
	}

	if got := p.saveCount(); got != 2 {
		t.Errorf("SaveBoard called %d times, want 2", got)
	}
	if p.maxSeen != 1 {
		t.Errorf("%d saves ran in parallel", p.maxSeen)
	}
	if got := p.saves[1].Len(); got != 2 {
		t.Errorf("queued round saved %d objects, want the latest 2", got)
	}
	if s.Dirty() {
		t.Error("store dirty after the queued round saved the latest snapshot")
	}
}

func TestSave_MutationDuringSaveStaysDirty(t *testing.T) {
	p := newMockPersistence()
	p.gate = make(chan struct{})
	p.started = make(chan struct{}, 1)
	s := newStore(t, p)
	s.Create(newNote("a", 0))

	errs := make(chan error, 1)
	go func() { errs <- s.Save(context.Background()) }()
	<-p.started
	s.Create(newNote("b", 10))
	close(p.gate)

	if err := <-errs; err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !s.Dirty() {
		t.Error("edit made during the save was marked clean")
	}
	if s.Snapshot().Len() != 2 {
		t.Error("refresh overwrote the newer local edit")
	}
}

func TestSave_CallerContext(t *testing.T) {
	p := newMockPersistence()
	p.gate = make(chan struct{})
	s := newStore(t, p)
	defer close(p.gate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Save(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, want context.Canceled", err)
	}
	var pe *core.PersistenceError
	if !errors.As(err, &pe) || pe.BoardID != s.ID() {
		t.Errorf("Save() error = %#v, want *core.PersistenceError for the board", err)
	}
}

func TestSubscribe(t *testing.T) {
	s := newStore(t, newMockPersistence())

	var got []State
	cancel := s.Subscribe(func(st State) { got = append(got, st) })
	s.Create(newNote("a", 0))
	s.Select("a")
	cancel()
	cancel()
	s.Delete("a")

	if len(got) != 2 {
		t.Fatalf("received %d notifications, want 2", len(got))
	}
	if !got[0].Dirty || !got[0].CanUndo || got[0].Snapshot.Len() != 1 {
		t.Errorf("first state = %+v", got[0])
	}
	if got[1].Selection.ID != "a" {
		t.Errorf("second state selection = %+v", got[1].Selection)
	}
	if got[0].UndoAction != history.ActionCreate || got[0].UndoKind != core.KindNote {
		t.Errorf("undo label = %q %q, want create note", got[0].UndoAction, got[0].UndoKind)
	}

	st := s.State()
	if st.UndoAction != history.ActionDelete || st.Snapshot.Len() != 0 {
		t.Errorf("State() = %+v, want delete on top of the history", st)
	}
	s.Undo()
	s.Undo()
	if st := s.State(); st.UndoAction != "" || st.UndoKind != "" {
		t.Errorf("empty history still labelled %q %q", st.UndoAction, st.UndoKind)
	}
}

func TestAutoSave(t *testing.T) {
	p := newMockPersistence()
	s := newStore(t, p)
	s.Create(newNote("a", 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.AutoSave(ctx, 5*time.Millisecond)
		close(done)
	}()

	waitFor(t, func() bool { return !s.Dirty() })
	saved := p.saveCount()
	time.Sleep(30 * time.Millisecond)
	if got := p.saveCount(); got != saved {
		t.Errorf("auto-save ran %d more times on a clean board", got-saved)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AutoSave() did not stop after cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
