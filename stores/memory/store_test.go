package memory

import (
	"context"
	"testing"

	"marker-mind/core"
	"marker-mind/stores/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, NewStore())
}

func TestSave_RequiresOwner(t *testing.T) {
	store := NewStore()
	err := store.Save(context.Background(), &core.Board{ID: "b"})
	if err == nil {
		t.Error("Save() without owner should fail")
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	store.Save(ctx, &core.Board{ID: "b", OwnerID: "o", Name: "original"})

	got, _ := store.Get(ctx, "o", "b")
	got.Name = "changed"

	again, _ := store.Get(ctx, "o", "b")
	if again.Name != "original" {
		t.Errorf("stored board was mutated through Get(): %q", again.Name)
	}
}
