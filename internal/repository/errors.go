package repository

import "errors"

var (
	// ErrNotFound reports a lookup that matched no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate reports an insert that collided with an existing record.
	ErrDuplicate = errors.New("record already exists")
)
