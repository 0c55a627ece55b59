package bookingRequestRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"glowbook/database/repository"
	bookingRepo "glowbook/database/repository/booking"
	"glowbook/models"
)

// MemoryBookingRequestRepo is an in-process BookingRequestRepository. It shares the booking store so
// TransitionWithBooking stays atomic across both.
type MemoryBookingRequestRepo struct {
	mu       sync.Mutex
	requests map[string]models.BookingRequest
	bookings *bookingRepo.MemoryBookingRepo
}

func NewMemoryBookingRequestRepo(bookings *bookingRepo.MemoryBookingRepo) *MemoryBookingRequestRepo {
	return &MemoryBookingRequestRepo{
		requests: make(map[string]models.BookingRequest),
		bookings: bookings,
	}
}

func (r *MemoryBookingRequestRepo) Create(_ context.Context, req *models.BookingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[req.ID]; exists {
		return fmt.Errorf("error creating booking request: duplicate id %s", req.ID)
	}
	r.requests[req.ID] = *req
	return nil
}

func (r *MemoryBookingRequestRepo) GetByID(_ context.Context, id string) (*models.BookingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (r *MemoryBookingRequestRepo) guardLocked(id string, from models.BookingRequestStatus, version int) (models.BookingRequest, error) {
	req, ok := r.requests[id]
	if !ok || req.Status != from || req.Version != version {
		return models.BookingRequest{}, repository.ErrConflict
	}
	return req, nil
}

func (r *MemoryBookingRequestRepo) Transition(_ context.Context, id string, from models.BookingRequestStatus, version int, t models.RequestTransition) (*models.BookingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, err := r.guardLocked(id, from, version)
	if err != nil {
		return nil, err
	}
	t.Apply(&req)
	r.requests[id] = req
	return &req, nil
}

func (r *MemoryBookingRequestRepo) TransitionWithBooking(_ context.Context, id string, from models.BookingRequestStatus, version int, t models.RequestTransition, booking *models.Booking) (*models.BookingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, err := r.guardLocked(id, from, version)
	if err != nil {
		return nil, err
	}
	if r.bookings == nil {
		return nil, fmt.Errorf("memory booking request repo has no booking store")
	}

	r.bookings.Lock()
	defer r.bookings.Unlock()
	if err := r.bookings.InsertLocked(booking); err != nil {
		return nil, err
	}
	t.Apply(&req)
	r.requests[id] = req
	return &req, nil
}

func (r *MemoryBookingRequestRepo) ListByStylist(_ context.Context, stylistID string, status models.BookingRequestStatus) ([]models.BookingRequest, error) {
	out := r.filter(func(req models.BookingRequest) bool {
		return req.StylistID == stylistID && (status == "" || req.Status == status)
	})
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryBookingRequestRepo) ListByClient(_ context.Context, clientID string, status models.BookingRequestStatus) ([]models.BookingRequest, error) {
	out := r.filter(func(req models.BookingRequest) bool {
		return req.ClientID == clientID && (status == "" || req.Status == status)
	})
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryBookingRequestRepo) ListPendingExpired(_ context.Context, now time.Time, limit int) ([]models.BookingRequest, error) {
	out := r.filter(func(req models.BookingRequest) bool {
		return req.Status == models.RequestPending && req.ExpiresAt.Before(now)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return truncate(out, limit), nil
}

func (r *MemoryBookingRequestRepo) filter(match func(models.BookingRequest) bool) []models.BookingRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.BookingRequest
	for _, req := range r.requests {
		if match(req) {
			out = append(out, req)
		}
	}
	return out
}

func sortNewestFirst(reqs []models.BookingRequest) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
}

func truncate(reqs []models.BookingRequest, limit int) []models.BookingRequest {
	if limit > 0 && len(reqs) > limit {
		return reqs[:limit]
	}
	return reqs
}
