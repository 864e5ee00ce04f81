package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing destination, duration out of range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned by repo functions when an insert violates a
// uniqueness constraint (duplicate weather sample for a trip timestamp,
// duplicate destination address). The pipeline treats it as an unrecoverable
// item error for the item being processed.
var ErrConflict = errors.New("already exists")
