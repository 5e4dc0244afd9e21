package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned (possibly wrapped) when a board does not exist.
var ErrNotFound = errors.New("not found")

// NotFoundError carries the board id that was not found. It matches
// ErrNotFound with errors.Is.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("board with id %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NetworkError reports a failed round trip to a remote persistence endpoint.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PersistenceError is surfaced when saving a board fails. The local state is
// left untouched, so the caller may retry.
type PersistenceError struct {
	BoardID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save board %s: %v", e.BoardID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
