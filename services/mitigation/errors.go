package mitigation

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("not the stylist of this booking")
	// ErrBookingAlreadyTerminal is returned for bookings that are no longer confirmed.
	ErrBookingAlreadyTerminal = errors.New("booking can no longer be mitigated")
	ErrMitigationInProgress   = errors.New("another mitigation is in progress for this booking")
	ErrInvalidTime            = errors.New("invalid new booking time")
	ErrInvalidInput           = errors.New("invalid mitigation input")
	ErrExternalServiceFailure = errors.New("external service failure")
	// ErrConflict means the booking kept changing underneath the action; the caller may retry.
	ErrConflict = errors.New("booking was modified concurrently")
	// ErrRefundNotRecorded means the money moved but the booking was not updated.
	// A retry after the lease expires replays the same refund key.
	ErrRefundNotRecorded = errors.New("refund issued but not recorded on booking")
)
