// Package storetest checks that a core.BoardStore behaves like the others.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"marker-mind/core"
)

// Run exercises store through the full board lifecycle. The store must be
// empty when Run starts.
func Run(t *testing.T, store core.BoardStore) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, store) })
	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, store) })
	t.Run("SaveBumpsRevision", func(t *testing.T) { testSaveBumpsRevision(t, store) })
	t.Run("ListIsScopedAndLight", func(t *testing.T) { testList(t, store) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, store) })
}

func sample(owner, id string) *core.Board {
	return &core.Board{
		ID:      id,
		OwnerID: owner,
		Name:    "Board " + id,
		Objects: core.NewSnapshot(
			&core.Note{Placement: core.Placement{ID: "n1", Position: core.Pt(10, 20), Rotation: 15}, Width: 120, Height: 80, Text: "hello", Color: "#ffeb3b"},
			&core.Line{ID: "l1", Start: core.Pt(0, 0), End: core.Pt(100, 50), Color: "#000", StrokeWidth: 2},
			&core.Stroke{Placement: core.Placement{ID: "s1"}, Points: []core.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}, Width: 3},
		),
	}
}

func testGetMissing(t *testing.T, store core.BoardStore) {
	_, err := store.Get(context.Background(), "alice", "missing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func testSaveAndGet(t *testing.T, store core.BoardStore) {
	ctx := context.Background()
	b := sample("alice", "save-and-get")

	before := time.Now().Add(-time.Second)
	if err := store.Save(ctx, b); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if b.Revision != 1 {
		t.Errorf("Revision = %d, want 1", b.Revision)
	}
	if b.CreatedAt.Before(before) || b.UpdatedAt.Before(before) {
		t.Errorf("timestamps not set: created %v updated %v", b.CreatedAt, b.UpdatedAt)
	}

	got, err := store.Get(ctx, "alice", "save-and-get")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != b.Name || got.Revision != 1 || got.OwnerID != "alice" {
		t.Errorf("Get() = %+v", got)
	}
	if !got.Objects.Equal(b.Objects) {
		t.Error("Get() objects differ from saved objects")
	}
	if !got.CreatedAt.Equal(b.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, b.CreatedAt)
	}

	if _, err := store.Get(ctx, "bob", "save-and-get"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() by another owner error = %v, want ErrNotFound", err)
	}
}

func testSaveBumpsRevision(t *testing.T, store core.BoardStore) {
	ctx := context.Background()
	b := sample("alice", "revisions")
	if err := store.Save(ctx, b); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	created := b.CreatedAt

	next := &core.Board{ID: "revisions", OwnerID: "alice", Name: "Renamed", Objects: core.NewSnapshot()}
	if err := store.Save(ctx, next); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}
	if next.Revision != 2 {
		t.Errorf("Revision = %d, want 2", next.Revision)
	}
	if !next.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed from %v to %v", created, next.CreatedAt)
	}

	got, err := store.Get(ctx, "alice", "revisions")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Objects.Len() != 0 || got.Name != "Renamed" {
		t.Errorf("save did not replace the board: %+v", got)
	}
}

func testList(t *testing.T, store core.BoardStore) {
	ctx := context.Background()
	for _, b := range []*core.Board{sample("carol", "b"), sample("carol", "a"), sample("dave", "c")} {
		if err := store.Save(ctx, b); err != nil {
			t.Fatalf("Save(%s) failed: %v", b.ID, err)
		}
	}

	boards, err := store.List(ctx, "carol")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("List() returned %d boards, want 2", len(boards))
	}
	if boards[0].ID != "a" || boards[1].ID != "b" {
		t.Errorf("List() order = %s,%s, want a,b", boards[0].ID, boards[1].ID)
	}
	for _, b := range boards {
		if b.Objects.Len() != 0 {
			t.Errorf("List() board %s carries %d objects", b.ID, b.Objects.Len())
		}
		if b.Revision != 1 {
			t.Errorf("List() board %s revision = %d", b.ID, b.Revision)
		}
	}

	empty, err := store.List(ctx, "nobody")
	if err != nil {
		t.Fatalf("List(nobody) failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List(nobody) = %v, want empty non-nil slice", empty)
	}
}

func testDelete(t *testing.T, store core.BoardStore) {
	ctx := context.Background()
	if err := store.Save(ctx, sample("erin", "doomed")); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Delete(ctx, "frank", "doomed"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() by another owner error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "erin", "doomed"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "erin", "doomed"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "erin", "doomed"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
