package bookingRequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"glowbook/database/repository"
	bookingRequestRepo "glowbook/database/repository/bookingRequest"
	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const confirmWindowElapsed = "confirmation window elapsed"

// Availability gates request creation on the stylist's live work status.
type Availability interface {
	CanReceiveRequests(ctx context.Context, stylistID string) (bool, *models.WorkStatus, error)
}

// Settings are the lifecycle timings.
type Settings struct {
	RequestTTL          time.Duration
	AutoBookWindow      time.Duration
	ClientConfirmWindow time.Duration
}

// Engine owns every state transition of a booking request.
type Engine struct {
	requests     bookingRequestRepo.BookingRequestRepository
	availability Availability
	notifier     notification.Notifier
	clock        utils.Clock
	logger       *zap.Logger
	settings     Settings
}

func NewEngine(
	requests bookingRequestRepo.BookingRequestRepository,
	availability Availability,
	notifier notification.Notifier,
	clock utils.Clock,
	logger *zap.Logger,
	settings Settings,
) (*Engine, error) {
	if settings.AutoBookWindow <= 0 || settings.AutoBookWindow >= settings.RequestTTL {
		return nil, fmt.Errorf("auto-book window %s must be positive and shorter than request TTL %s", settings.AutoBookWindow, settings.RequestTTL)
	}
	return &Engine{
		requests:     requests,
		availability: availability,
		notifier:     notifier,
		clock:        clock,
		logger:       logger,
		settings:     settings,
	}, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func (e *Engine) Create(ctx context.Context, clientID string, in models.CreateBookingRequestInput) (*models.BookingRequest, error) {
	now := e.clock.Now()
	d := in.Details
	switch {
	case clientID == "" || in.StylistID == "" || in.ServiceID == "":
		return nil, invalid("client, stylist and service are required")
	case clientID == in.StylistID:
		return nil, invalid("cannot book yourself")
	case !d.StartsAt.After(now):
		return nil, invalid("startsAt must be in the future")
	case d.DurationMinutes <= 0:
		return nil, invalid("durationMinutes must be positive")
	case d.TotalPrice < 0:
		return nil, invalid("totalPrice must not be negative")
	}
	switch d.PaymentMethod {
	case "card", "cash":
	case "":
		d.PaymentMethod = "cash"
	default:
		return nil, invalid("unsupported payment method %q", d.PaymentMethod)
	}

	ok, ws, err := e.availability.CanReceiveRequests(ctx, in.StylistID)
	if err != nil {
		return nil, fmt.Errorf("failed to read stylist work status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: stylist is %s", ErrStylistUnavailable, ws.Status)
	}

	d.StartsAt = d.StartsAt.UTC()
	req := &models.BookingRequest{
		ID:                   uuid.New().String(),
		ClientID:             clientID,
		StylistID:            in.StylistID,
		ServiceID:            in.ServiceID,
		Details:              d,
		CreatedAt:            now,
		ExpiresAt:            now.Add(e.settings.RequestTTL),
		AutoBookWindowEndsAt: now.Add(e.settings.AutoBookWindow),
		Status:               models.RequestPending,
	}
	if err := e.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create booking request: %w", err)
	}

	e.logger.Info("Booking request created",
		zap.String("requestID", req.ID),
		zap.String("clientID", clientID),
		zap.String("stylistID", req.StylistID),
		zap.Time("expiresAt", req.ExpiresAt),
	)
	e.notify(ctx, req.StylistID, models.Message{
		Type:  models.NotifyNewRequest,
		Title: "New booking request",
		Body:  fmt.Sprintf("Accept within %d minutes to book instantly.", int(e.settings.AutoBookWindow.Minutes())),
		Data:  requestData(req),
	})
	return req, nil
}

// load fetches the request and checks the caller is allowed to act on it.
func (e *Engine) load(ctx context.Context, requestID string, allowed func(*models.BookingRequest) bool) (*models.BookingRequest, error) {
	req, err := e.requests.GetByID(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking request %s: %w", requestID, err)
	}
	if !allowed(req) {
		return nil, ErrForbidden
	}
	return req, nil
}

// guarded maps a lost compare-and-swap to ErrAlreadyResolved.
func guarded(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return ErrAlreadyResolved
	}
	return fmt.Errorf("failed to transition booking request: %w", err)
}

func (e *Engine) Respond(ctx context.Context, requestID, stylistID string, response models.StylistResponse, declineReason string) (*models.RespondResult, error) {
	if response != models.ResponseAccept && response != models.ResponseDecline {
		return nil, invalid("response must be accept or decline")
	}
	req, err := e.load(ctx, requestID, func(r *models.BookingRequest) bool { return r.StylistID == stylistID })
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, ErrAlreadyResolved
	}

	now := e.clock.Now()
	t := models.RequestTransition{StylistRespondedAt: &now, StylistResponse: &response}

	if response == models.ResponseDecline {
		t.To = models.RequestDeclined
		t.DeclineReason = declineReason
		t.ResolvedAt = &now
		updated, err := e.requests.Transition(ctx, req.ID, models.RequestPending, req.Version, t)
		if err != nil {
			return nil, guarded(err)
		}
		body := "The stylist can't take this booking."
		if declineReason != "" {
			body = "The stylist can't take this booking: " + declineReason
		}
		e.notify(ctx, updated.ClientID, models.Message{Type: models.NotifyDeclined, Title: "Booking request declined", Body: body, Data: requestData(updated)})
		return &models.RespondResult{NewStatus: updated.Status}, nil
	}

	switch {
	case !now.After(req.AutoBookWindowEndsAt):
		booking := newBooking(req, now)
		t.To = models.RequestAutoBooked
		t.BookingID = booking.ID
		t.ResolvedAt = &now
		updated, err := e.requests.TransitionWithBooking(ctx, req.ID, models.RequestPending, req.Version, t, booking)
		if err != nil {
			return nil, guarded(err)
		}
		e.logger.Info("Booking request auto-booked", zap.String("requestID", req.ID), zap.String("bookingID", booking.ID))
		e.notify(ctx, updated.ClientID, models.Message{
			Type:  models.NotifyAutoBooked,
			Title: "You're booked!",
			Body:  fmt.Sprintf("Your appointment on %s at %s is confirmed.", booking.Date, booking.StartsAt.Format("15:04")),
			Data:  bookingData(updated, booking.ID),
		})
		return &models.RespondResult{NewStatus: updated.Status, BookingID: booking.ID}, nil

	case !now.After(req.ExpiresAt):
		confirmBy := now.Add(e.settings.ClientConfirmWindow)
		t.To = models.RequestAwaitingConfirmation
		t.ConfirmBy = &confirmBy
		updated, err := e.requests.Transition(ctx, req.ID, models.RequestPending, req.Version, t)
		if err != nil {
			return nil, guarded(err)
		}
		e.notify(ctx, updated.ClientID, models.Message{
			Type:  models.NotifyAwaitingConfirm,
			Title: "Your stylist accepted",
			Body:  fmt.Sprintf("Confirm by %s to lock in your appointment.", confirmBy.Format("15:04")),
			Data:  requestData(updated),
		})
		return &models.RespondResult{NewStatus: updated.Status}, nil

	default:
		// Close the record now instead of waiting for the next sweep.
		if expired, err := e.expire(ctx, req, now); err != nil {
			e.logger.Warn("Failed to expire late-accepted request", zap.String("requestID", req.ID), zap.Error(err))
		} else if expired {
			e.logger.Info("Late accept expired request", zap.String("requestID", req.ID))
		}
		return nil, ErrRequestExpired
	}
}

// expire applies the guarded pending→expired transition. It reports false when another transition won.
func (e *Engine) expire(ctx context.Context, req *models.BookingRequest, now time.Time) (bool, error) {
	updated, err := e.requests.Transition(ctx, req.ID, models.RequestPending, req.Version, models.RequestTransition{
		To:         models.RequestExpired,
		ResolvedAt: &now,
	})
	if errors.Is(err, repository.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	e.notify(ctx, updated.ClientID, models.Message{
		Type:  models.NotifyExpired,
		Title: "Booking request expired",
		Body:  "The stylist didn't respond in time. Try another stylist or time.",
		Data:  requestData(updated),
	})
	return true, nil
}

// ConfirmByClient completes a manually accepted request and creates its booking.
func (e *Engine) ConfirmByClient(ctx context.Context, requestID, clientID string) (*models.BookingRequest, error) {
	req, err := e.load(ctx, requestID, func(r *models.BookingRequest) bool { return r.ClientID == clientID })
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestAwaitingConfirmation {
		return nil, ErrAlreadyResolved
	}

	now := e.clock.Now()
	if req.ConfirmBy != nil && now.After(*req.ConfirmBy) {
		_, err := e.requests.Transition(ctx, req.ID, models.RequestAwaitingConfirmation, req.Version, models.RequestTransition{
			To:           models.RequestCancelled,
			CancelReason: confirmWindowElapsed,
			ResolvedAt:   &now,
		})
		if err != nil && !errors.Is(err, repository.ErrConflict) {
			e.logger.Warn("Failed to cancel lapsed confirmation", zap.String("requestID", req.ID), zap.Error(err))
		}
		return nil, ErrRequestExpired
	}

	booking := newBooking(req, now)
	updated, err := e.requests.TransitionWithBooking(ctx, req.ID, models.RequestAwaitingConfirmation, req.Version, models.RequestTransition{
		To:         models.RequestConfirmed,
		BookingID:  booking.ID,
		ResolvedAt: &now,
	}, booking)
	if err != nil {
		return nil, guarded(err)
	}

	e.logger.Info("Booking request confirmed by client", zap.String("requestID", req.ID), zap.String("bookingID", booking.ID))
	e.notify(ctx, updated.StylistID, models.Message{
		Type:  models.NotifyClientConfirmed,
		Title: "Booking confirmed",
		Body:  fmt.Sprintf("Your client confirmed %s at %s.", booking.Date, booking.StartsAt.Format("15:04")),
		Data:  bookingData(updated, booking.ID),
	})
	return updated, nil
}

// CancelByClient withdraws a request that has not been resolved yet.
func (e *Engine) CancelByClient(ctx context.Context, requestID, clientID, reason string) (*models.BookingRequest, error) {
	req, err := e.load(ctx, requestID, func(r *models.BookingRequest) bool { return r.ClientID == clientID })
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending && req.Status != models.RequestAwaitingConfirmation {
		return nil, ErrAlreadyResolved
	}
	if reason == "" {
		reason = "cancelled by client"
	}

	now := e.clock.Now()
	updated, err := e.requests.Transition(ctx, req.ID, req.Status, req.Version, models.RequestTransition{
		To:           models.RequestCancelled,
		CancelReason: reason,
		ResolvedAt:   &now,
	})
	if err != nil {
		return nil, guarded(err)
	}
	e.notify(ctx, updated.StylistID, models.Message{
		Type:  models.NotifyRequestCancelled,
		Title: "Booking request withdrawn",
		Body:  "The client cancelled their booking request.",
		Data:  requestData(updated),
	})
	return updated, nil
}

// Get returns a request to either of its parties.
func (e *Engine) Get(ctx context.Context, requestID, userID string) (*models.BookingRequest, error) {
	return e.load(ctx, requestID, func(r *models.BookingRequest) bool {
		return r.ClientID == userID || r.StylistID == userID
	})
}

func (e *Engine) ListForStylist(ctx context.Context, stylistID string, status models.BookingRequestStatus) ([]models.BookingRequest, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown status %q", status)
	}
	return e.requests.ListByStylist(ctx, stylistID, status)
}

func (e *Engine) ListForClient(ctx context.Context, clientID string, status models.BookingRequestStatus) ([]models.BookingRequest, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown status %q", status)
	}
	return e.requests.ListByClient(ctx, clientID, status)
}

func (e *Engine) notify(ctx context.Context, userID string, msg models.Message) {
	if err := e.notifier.Send(ctx, userID, msg); err != nil {
		e.logger.Warn("Failed to send notification",
			zap.String("userID", userID),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
	}
}

func newBooking(req *models.BookingRequest, now time.Time) *models.Booking {
	b := &models.Booking{
		ID:              uuid.New().String(),
		RequestID:       req.ID,
		ClientID:        req.ClientID,
		StylistID:       req.StylistID,
		ServiceID:       req.ServiceID,
		DurationMinutes: req.Details.DurationMinutes,
		TotalPrice:      req.Details.TotalPrice,
		Currency:        req.Details.Currency,
		PaymentMethod:   req.Details.PaymentMethod,
		PaymentIntentID: req.Details.PaymentIntentID,
		Status:          models.BookingConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.SetSchedule(req.Details.StartsAt)
	return b
}

func requestData(req *models.BookingRequest) map[string]string {
	return map[string]string{"requestId": req.ID, "status": string(req.Status)}
}

func bookingData(req *models.BookingRequest, bookingID string) map[string]string {
	data := requestData(req)
	data["bookingId"] = bookingID
	return data
}
