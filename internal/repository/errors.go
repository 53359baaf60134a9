package repository

import "errors"

var (
	// ErrNotFound is returned when a query matches no rows, including
	// guarded updates whose condition did not hold.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint.
	ErrDuplicate = errors.New("entity already exists")
)
