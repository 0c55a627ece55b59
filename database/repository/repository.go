package repository

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record matches the id.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a guarded write finds the record changed since it was read.
	ErrConflict = errors.New("record changed concurrently")
)

// QueryTimeout bounds every single store round trip.
const QueryTimeout = 5 * time.Second
