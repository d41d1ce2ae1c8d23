package repositories

import "errors"

var (
	// ErrNotFound is wrapped by every lookup that matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is wrapped when a unique constraint rejected a write.
	ErrDuplicate = errors.New("duplicate record")
)
