package bookingRequest

import "errors"

var (
	ErrNotFound  = errors.New("booking request not found")
	ErrForbidden = errors.New("not a party to this booking request")
	// ErrAlreadyResolved is the race-loser result: another transition already closed the request.
	ErrAlreadyResolved    = errors.New("booking request already resolved")
	ErrRequestExpired     = errors.New("booking request expired")
	ErrStylistUnavailable = errors.New("stylist is not accepting booking requests")
	ErrInvalidRequest     = errors.New("invalid booking request")
)
