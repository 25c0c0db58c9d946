package ttrdb

import "errors"

// Sentinel errors for the repository layer.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("ttr record not found")

	// ErrNoRowsAffected indicates a conditional UPDATE matched no rows,
	// typically because another writer got there first.
	ErrNoRowsAffected = errors.New("no rows affected")
)
