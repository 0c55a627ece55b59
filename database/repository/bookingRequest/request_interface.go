package bookingRequestRepo

import (
	"context"
	"time"

	"glowbook/models"
)

// BookingRequestRepository defines data access for booking requests.
//
// Every status change goes through Transition or TransitionWithBooking, which only succeed while
// the stored record still has the expected status and version. Losers get repository.ErrConflict.
type BookingRequestRepository interface {
	Create(ctx context.Context, req *models.BookingRequest) error
	GetByID(ctx context.Context, id string) (*models.BookingRequest, error)
	Transition(ctx context.Context, id string, from models.BookingRequestStatus, version int, t models.RequestTransition) (*models.BookingRequest, error)
	// TransitionWithBooking applies the transition and inserts the booking atomically.
	TransitionWithBooking(ctx context.Context, id string, from models.BookingRequestStatus, version int, t models.RequestTransition, booking *models.Booking) (*models.BookingRequest, error)
	ListByStylist(ctx context.Context, stylistID string, status models.BookingRequestStatus) ([]models.BookingRequest, error)
	ListByClient(ctx context.Context, clientID string, status models.BookingRequestStatus) ([]models.BookingRequest, error)
	// ListPendingExpired returns pending requests whose expires_at is strictly before now.
	ListPendingExpired(ctx context.Context, now time.Time, limit int) ([]models.BookingRequest, error)
}
