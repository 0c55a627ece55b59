package risk

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("not the client of this booking")
	// ErrBookingNotActive is returned for telemetry on a booking that is no longer confirmed.
	ErrBookingNotActive = errors.New("booking is not active")
	ErrInvalidTelemetry = errors.New("invalid telemetry")
	ErrInvalidLevel     = errors.New("unknown risk level")
)
