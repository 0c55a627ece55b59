package workStatus

import "errors"

var (
	ErrInvalidTime = errors.New("estimated available time must be in the future")
	// ErrNotWorking is returned by ExtendWork outside a working session.
	ErrNotWorking = errors.New("stylist is not currently working")
	// ErrConflict means the record changed concurrently; the caller may refresh and retry.
	ErrConflict = errors.New("work status was modified concurrently")
)
