package core

import "github.com/oklog/ulid/v2"

// NewID returns a new sortable unique identifier.
func NewID() string {
	return ulid.Make().String()
}
