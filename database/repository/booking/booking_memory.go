package bookingRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"glowbook/database/repository"
	"glowbook/models"
)

// MemoryBookingRepo is an in-process BookingRepository with the same guarded-write semantics.
type MemoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]models.Booking)}
}

func clone(b models.Booking) models.Booking {
	if b.Mitigations != nil {
		b.Mitigations = append([]models.MitigationRecord(nil), b.Mitigations...)
	}
	return b
}

func (r *MemoryBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(booking)
}

// insertLocked is shared with the booking request repository's atomic transitions.
func (r *MemoryBookingRepo) insertLocked(booking *models.Booking) error {
	if _, exists := r.bookings[booking.ID]; exists {
		return fmt.Errorf("error creating booking: duplicate id %s", booking.ID)
	}
	for _, b := range r.bookings {
		if booking.RequestID != "" && b.RequestID == booking.RequestID {
			return fmt.Errorf("error creating booking: request %s already booked", booking.RequestID)
		}
	}
	r.bookings[booking.ID] = clone(*booking)
	return nil
}

// Lock and Unlock let another memory repository commit a write spanning both stores.
func (r *MemoryBookingRepo) Lock()   { r.mu.Lock() }
func (r *MemoryBookingRepo) Unlock() { r.mu.Unlock() }

// InsertLocked must be called between Lock and Unlock.
func (r *MemoryBookingRepo) InsertLocked(booking *models.Booking) error {
	return r.insertLocked(booking)
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(b)
	return &out, nil
}

func (r *MemoryBookingRepo) Update(_ context.Context, booking *models.Booking, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[booking.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrConflict
	}
	next := clone(*booking)
	next.Version = expectedVersion + 1
	r.bookings[booking.ID] = next
	booking.Version = next.Version
	return nil
}

func (r *MemoryBookingRepo) ListUpcoming(_ context.Context, stylistID string, from, to time.Time) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		if b.Status != models.BookingConfirmed {
			return false
		}
		if stylistID != "" && b.StylistID != stylistID {
			return false
		}
		return !b.StartsAt.Before(from) && b.StartsAt.Before(to)
	}), nil
}

func (r *MemoryBookingRepo) FindOverlapping(_ context.Context, stylistID string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.StylistID == stylistID &&
			b.Status == models.BookingConfirmed &&
			b.ID != excludeID &&
			b.StartsAt.Before(end) && b.EndsAt.After(start)
	}), nil
}

func (r *MemoryBookingRepo) filter(match func(models.Booking) bool) []models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for _, b := range r.bookings {
		if match(b) {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}
