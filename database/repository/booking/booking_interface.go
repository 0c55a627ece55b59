package bookingRepo

import (
	"context"
	"time"

	"glowbook/models"
)

// BookingRepository defines data access for confirmed bookings.
type BookingRepository interface {
	// Create persists a new booking record.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID returns repository.ErrNotFound when the id is unknown.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// Update replaces the stored booking only while its version equals expectedVersion.
	// On success booking.Version is advanced; otherwise repository.ErrConflict is returned.
	Update(ctx context.Context, booking *models.Booking, expectedVersion int) error
	// ListUpcoming returns confirmed bookings starting in [from, to). An empty stylistID matches all.
	ListUpcoming(ctx context.Context, stylistID string, from, to time.Time) ([]models.Booking, error)
	// FindOverlapping returns confirmed bookings of the stylist intersecting [start, end).
	FindOverlapping(ctx context.Context, stylistID string, start, end time.Time, excludeID string) ([]models.Booking, error)
}
