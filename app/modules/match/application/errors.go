package matchservice

import "errors"

// Service-level sentinel errors. Handlers map these to 4xx responses.
var (
	// ErrMatchNotFound indicates the match id does not exist.
	ErrMatchNotFound = errors.New("match not found")

	// ErrUnknownMode indicates a match record carries a mode the engine
	// does not implement. Should be unreachable for validated writes.
	ErrUnknownMode = errors.New("unknown match mode")

	// ErrWrongMode indicates an operation was invoked on a match whose mode
	// does not support it.
	ErrWrongMode = errors.New("operation not valid for match mode")

	// ErrEmptyPool indicates the configured rating band has no candidate
	// problems, so the match cannot be seeded.
	ErrEmptyPool = errors.New("problem pool has no candidates for the rating band")
)
