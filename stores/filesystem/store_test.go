package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"marker-mind/core"
	"marker-mind/stores/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, NewStore(t.TempDir()))
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	NewStore(dir)
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("NewStore() did not create %s: %v", dir, err)
	}
}

func TestGet_RejectsPathTraversal(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"../other", "..", "a/b", ""} {
		if _, err := store.Get(ctx, "alice", id); err == nil {
			t.Errorf("Get(%q) should fail", id)
		}
	}
}

func TestSave_WritesOwnerDirectory(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base)

	if err := store.Save(context.Background(), &core.Board{ID: "b1", OwnerID: "alice"}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "alice", "b1.json")); err != nil {
		t.Errorf("board file not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "alice", "b1.json.tmp")); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestList_SkipsCorruptFiles(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base)
	ctx := context.Background()
	store.Save(ctx, &core.Board{ID: "good", OwnerID: "alice"})
	os.WriteFile(filepath.Join(base, "alice", "bad.json"), []byte("{not json"), 0644)
	os.WriteFile(filepath.Join(base, "alice", "notes.txt"), []byte("ignored"), 0644)

	boards, err := store.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(boards) != 1 || boards[0].ID != "good" {
		t.Errorf("List() = %v, want only the readable board", boards)
	}
}
