package core

import (
	"context"
	"fmt"
	"path"
	"time"
)

type (
	// Board is the persisted form of a canvas: its objects plus the
	// metadata owned by the persistence side.
	Board struct {
		ID        string    `json:"id"`
		OwnerID   string    `json:"-"` // Not exposed in JSON responses, used internally.
		Name      string    `json:"name"`
		Objects   Snapshot  `json:"objects"`
		Revision  int64     `json:"revision"` // Incremented by the store on every save.
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// BoardStore is the server-side repository of boards.
	// All operations are scoped to a specific owner.
	BoardStore interface {
		// List returns metadata for all boards owned by a user.
		// The returned boards carry no objects to keep the response light.
		List(ctx context.Context, ownerID string) ([]*Board, error)

		// Get returns a single board, ensuring it belongs to the owner.
		// A missing board yields an error matching ErrNotFound.
		Get(ctx context.Context, ownerID, id string) (*Board, error)

		// Save creates or fully replaces a board. It sets the server
		// generated fields (Revision, CreatedAt, UpdatedAt) on the argument.
		Save(ctx context.Context, board *Board) error

		// Delete removes a board, ensuring it belongs to the owner.
		Delete(ctx context.Context, ownerID, id string) error
	}

	// SaveRequest is the body of a board PUT. A nil Name keeps the stored
	// name.
	SaveRequest struct {
		Name    *string  `json:"name,omitempty"`
		Objects Snapshot `json:"objects"`
	}

	// Persistence is what the editor needs from the remote side: fetch a
	// board and replace its contents wholesale.
	Persistence interface {
		FetchBoard(ctx context.Context, id string) (*Board, error)
		SaveBoard(ctx context.Context, id string, objects Snapshot) error
	}
)

// ListView returns a copy of b without its objects.
func (b *Board) ListView() *Board {
	c := *b
	c.Objects = Snapshot{}
	return &c
}

// ValidateBoardID rejects ids that would escape the owner's namespace when
// used as a file name or object key.
func ValidateBoardID(id string) error {
	if id == "" || id == "." || id == ".." {
		return fmt.Errorf("invalid board id %q: must not be empty or a dot directory", id)
	}
	if path.Base(id) != id {
		return fmt.Errorf("invalid board id %q: must not be a path", id)
	}
	return nil
}
