package stores

import (
	"context"
	"errors"

	"marker-mind/core"
)

// Scope exposes the boards of one owner as the persistence side of an
// editor running in the same process.
func Scope(store core.BoardStore, ownerID string) core.Persistence {
	return &scoped{store: store, ownerID: ownerID}
}

type scoped struct {
	store   core.BoardStore
	ownerID string
}

func (s *scoped) FetchBoard(ctx context.Context, id string) (*core.Board, error) {
	return s.store.Get(ctx, s.ownerID, id)
}

// SaveBoard replaces the objects of board id, creating the board when it
// does not exist yet. The name is kept across saves.
func (s *scoped) SaveBoard(ctx context.Context, id string, objects core.Snapshot) error {
	name := id
	existing, err := s.store.Get(ctx, s.ownerID, id)
	switch {
	case err == nil:
		name = existing.Name
	case !errors.Is(err, core.ErrNotFound):
		return err
	}

	return s.store.Save(ctx, &core.Board{
		ID:      id,
		OwnerID: s.ownerID,
		Name:    name,
		Objects: objects,
	})
}
