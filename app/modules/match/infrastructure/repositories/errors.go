package matchdb

import "errors"

// Sentinel errors for the repository layer.
// These are infrastructure-level errors that indicate database state, not business logic failures.
var (
	// ErrNotFound indicates the requested record does not exist in the database.
	ErrNotFound = errors.New("match record not found")

	// ErrNoRowsAffected indicates an UPDATE affected zero rows.
	// Typically means the WHERE clause didn't match any records.
	ErrNoRowsAffected = errors.New("no rows affected")
)
