package mitigation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"glowbook/database/repository"
	bookingRepo "glowbook/database/repository/booking"
	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/services/payment"
	"glowbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeAttempts = 3

var errLeaseLost = errors.New("mitigation lease lost")

type Settings struct {
	// WaitCooldown is how long a wait silences risk alerts for the booking.
	WaitCooldown time.Duration
	// LeaseTTL is how long a money action may hold the booking before others may reclaim it.
	LeaseTTL time.Duration
}

// Dispatcher applies stylist-chosen corrective actions to at-risk bookings.
// Each action either fully applies or leaves the booking as it was.
type Dispatcher struct {
	bookings bookingRepo.BookingRepository
	payments payment.PaymentAdjuster
	notifier notification.Notifier
	clock    utils.Clock
	logger   *zap.Logger
	settings Settings
}

func NewDispatcher(
	bookings bookingRepo.BookingRepository,
	payments payment.PaymentAdjuster,
	notifier notification.Notifier,
	clock utils.Clock,
	logger *zap.Logger,
	settings Settings,
) *Dispatcher {
	return &Dispatcher{
		bookings: bookings,
		payments: payments,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		settings: settings,
	}
}

func (d *Dispatcher) leaseHeld(b *models.Booking, now time.Time) bool {
	return b.PendingAction != "" && b.PendingActionAt != nil && now.Sub(*b.PendingActionAt) < d.settings.LeaseTTL
}

func (d *Dispatcher) check(b *models.Booking, stylistID string, now time.Time) error {
	if b.StylistID != stylistID {
		return ErrForbidden
	}
	if b.Status != models.BookingConfirmed {
		return ErrBookingAlreadyTerminal
	}
	if d.leaseHeld(b, now) {
		return ErrMitigationInProgress
	}
	return nil
}

func (d *Dispatcher) load(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := d.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	return b, nil
}

// update re-reads the booking, applies fn and writes it back under the version guard,
// retrying when an unrelated write (such as telemetry) got there first.
func (d *Dispatcher) update(ctx context.Context, bookingID string, fn func(b *models.Booking, now time.Time) error) (*models.Booking, error) {
	for attempt := 0; attempt < writeAttempts; attempt++ {
		b, err := d.load(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		now := d.clock.Now()
		if err := fn(b, now); err != nil {
			return nil, err
		}
		b.UpdatedAt = now
		err = d.bookings.Update(ctx, b, b.Version)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update booking %s: %w", bookingID, err)
		}
		return b, nil
	}
	return nil, ErrConflict
}

func (d *Dispatcher) record(action models.MitigationAction, actorID, reason, clientMessage string, now time.Time) models.MitigationRecord {
	return models.MitigationRecord{
		ID:            uuid.New().String(),
		Action:        action,
		ActorID:       actorID,
		Reason:        reason,
		ClientMessage: clientMessage,
		At:            now,
	}
}

func (d *Dispatcher) notifyClient(ctx context.Context, b *models.Booking, msg models.Message) {
	if msg.Data == nil {
		msg.Data = map[string]string{}
	}
	msg.Data["bookingId"] = b.ID
	if err := d.notifier.Send(ctx, b.ClientID, msg); err != nil {
		d.logger.Warn("Failed to notify client of mitigation",
			zap.String("bookingID", b.ID),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
	}
}

func orDefault(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// Bump moves the appointment to newTime.
func (d *Dispatcher) Bump(ctx context.Context, bookingID, stylistID string, in models.BumpInput) (*models.MitigationResult, error) {
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	newTime := in.NewTime.UTC()

	b, err := d.update(ctx, bookingID, func(b *models.Booking, now time.Time) error {
		if err := d.check(b, stylistID, now); err != nil {
			return err
		}
		if !newTime.After(now) {
			return fmt.Errorf("%w: must be in the future", ErrInvalidTime)
		}
		end := newTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
		clashes, err := d.bookings.FindOverlapping(ctx, b.StylistID, newTime, end, b.ID)
		if err != nil {
			return fmt.Errorf("failed to check stylist schedule: %w", err)
		}
		if len(clashes) > 0 {
			return fmt.Errorf("%w: overlaps booking %s", ErrInvalidTime, clashes[0].ID)
		}

		old := b.StartsAt
		rec := d.record(models.ActionBump, stylistID, in.Reason, in.ClientMessage, now)
		rec.OldStartsAt = &old
		rec.NewStartsAt = &newTime
		b.SetSchedule(newTime)
		b.RiskSuppressedUntil = nil
		b.Mitigations = append(b.Mitigations, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("Booking bumped", zap.String("bookingID", b.ID), zap.Time("newStartsAt", b.StartsAt))
	d.notifyClient(ctx, b, models.Message{
		Type:  models.NotifyBookingBumped,
		Title: "Your appointment has moved",
		Body:  orDefault(in.ClientMessage, fmt.Sprintf("Your appointment is now at %s on %s.", b.StartsAt.Format("15:04"), b.Date)),
		Data:  map[string]string{"startsAt": b.StartsAt.Format(time.RFC3339)},
	})
	return &models.MitigationResult{Action: models.ActionBump, Success: true, Booking: b}, nil
}

// ContactClient sends the stylist's message. Nothing is recorded when delivery fails.
func (d *Dispatcher) ContactClient(ctx context.Context, bookingID, stylistID string, in models.ContactClientInput) (*models.MitigationResult, error) {
	if in.Message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	b, err := d.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := d.check(b, stylistID, d.clock.Now()); err != nil {
		return nil, err
	}

	msg := models.Message{
		Type:  models.NotifyStylistMessage,
		Title: "Message from your stylist",
		Body:  in.Message,
		Data:  map[string]string{"bookingId": b.ID},
	}
	if err := d.notifier.Send(ctx, b.ClientID, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalServiceFailure, err)
	}

	b, err = d.update(ctx, bookingID, func(b *models.Booking, now time.Time) error {
		if err := d.check(b, stylistID, now); err != nil {
			return err
		}
		b.Mitigations = append(b.Mitigations, d.record(models.ActionContactClient, stylistID, "", in.Message, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.MitigationResult{Action: models.ActionContactClient, Success: true, Booking: b}, nil
}

// Wait silences risk alerts for the booking for one cooldown.
func (d *Dispatcher) Wait(ctx context.Context, bookingID, stylistID string, in models.WaitInput) (*models.MitigationResult, error) {
	b, err := d.update(ctx, bookingID, func(b *models.Booking, now time.Time) error {
		if err := d.check(b, stylistID, now); err != nil {
			return err
		}
		until := now.Add(d.settings.WaitCooldown)
		b.RiskSuppressedUntil = &until
		b.Mitigations = append(b.Mitigations, d.record(models.ActionWait, stylistID, in.Reason, "", now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.MitigationResult{Action: models.ActionWait, Success: true, Booking: b}, nil
}

// PartialRefund returns percentage of the price, capped by what has not been refunded yet.
func (d *Dispatcher) PartialRefund(ctx context.Context, bookingID, stylistID string, in models.PartialRefundInput) (*models.MitigationResult, error) {
	if in.Percentage <= 0 || in.Percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be in (0, 100]", ErrInvalidInput)
	}
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}

	amount := func(b *models.Booking) (float64, error) {
		amt := math.Min(roundCents(b.TotalPrice*in.Percentage/100), b.RemainingRefundable())
		if amt <= 0 {
			return 0, fmt.Errorf("%w: nothing left to refund", ErrInvalidInput)
		}
		return amt, nil
	}
	b, refund, err := d.refundAndCommit(ctx, bookingID, stylistID, models.ActionPartialRefund, in.Reason, in.ClientMessage, amount, nil)
	if err != nil {
		return nil, err
	}

	d.notifyClient(ctx, b, models.Message{
		Type:  models.NotifyPartialRefund,
		Title: "You've been refunded",
		Body:  orDefault(in.ClientMessage, fmt.Sprintf("%.2f %s is on its way back to you.", refund.Amount, b.Currency)),
		Data:  map[string]string{"refundId": refund.RefundID},
	})
	return &models.MitigationResult{Action: models.ActionPartialRefund, Success: true, Booking: b, Refund: refund}, nil
}

// Cancel refunds whatever remains and cancels the booking, or changes nothing.
func (d *Dispatcher) Cancel(ctx context.Context, bookingID, stylistID string, in models.CancelInput) (*models.MitigationResult, error) {
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}

	amount := func(b *models.Booking) (float64, error) {
		return roundCents(b.RemainingRefundable()), nil
	}
	cancel := func(b *models.Booking) {
		b.Status = models.BookingCancelled
		b.CancelReason = in.Reason
		b.RiskSuppressedUntil = nil
	}
	b, refund, err := d.refundAndCommit(ctx, bookingID, stylistID, models.ActionCancel, in.Reason, in.ClientMessage, amount, cancel)
	if err != nil {
		return nil, err
	}

	d.logger.Info("Booking cancelled by stylist", zap.String("bookingID", b.ID), zap.String("reason", in.Reason))
	d.notifyClient(ctx, b, models.Message{
		Type:  models.NotifyBookingCancelled,
		Title: "Your appointment was cancelled",
		Body:  orDefault(in.ClientMessage, "Your stylist cancelled this appointment. You'll receive a full refund."),
	})
	return &models.MitigationResult{Action: models.ActionCancel, Success: true, Booking: b, Refund: refund}, nil
}

// refundAndCommit claims the booking's lease, moves the money and commits the outcome.
// A payment failure releases the lease and leaves the booking untouched.
func (d *Dispatcher) refundAndCommit(
	ctx context.Context,
	bookingID, stylistID string,
	action models.MitigationAction,
	reason, clientMessage string,
	amountFor func(b *models.Booking) (float64, error),
	finalize func(b *models.Booking),
) (*models.Booking, *models.Refund, error) {
	lease := string(action) + ":" + uuid.New().String()
	var (
		amount float64
		key    string
	)

	claimed, err := d.update(ctx, bookingID, func(b *models.Booking, now time.Time) error {
		if err := d.check(b, stylistID, now); err != nil {
			return err
		}
		amt, err := amountFor(b)
		if err != nil {
			return err
		}
		amount = amt
		// Unchanged when a lease is reclaimed after an uncommitted refund, so the
		// provider replays it. A rejected refund bumps RefundAttempts instead.
		key = fmt.Sprintf("%s:%s:%d:%d:%d", b.ID, action, len(b.Mitigations), b.RefundAttempts, payment.ToMinorUnits(amt))
		b.PendingAction = lease
		b.PendingActionAt = &now
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var refund *models.Refund
	if amount > 0 {
		refund, err = d.payments.Refund(ctx, models.RefundRequest{
			BookingID:       claimed.ID,
			ClientID:        claimed.ClientID,
			PaymentIntentID: claimed.PaymentIntentID,
			PaymentMethod:   claimed.PaymentMethod,
			Amount:          amount,
			Currency:        claimed.Currency,
			Reason:          reason,
			IdempotencyKey:  key,
			Metadata:        map[string]string{"action": string(action)},
		})
		if err != nil {
			d.releaseAfterFailure(ctx, bookingID, lease)
			return nil, nil, fmt.Errorf("%w: refund failed: %v", ErrExternalServiceFailure, err)
		}
	}

	committed, err := d.update(ctx, bookingID, func(b *models.Booking, now time.Time) error {
		if b.PendingAction != lease {
			return errLeaseLost
		}
		b.PendingAction = ""
		b.PendingActionAt = nil
		rec := d.record(action, stylistID, reason, clientMessage, now)
		if refund != nil {
			b.RefundedAmount = roundCents(b.RefundedAmount + refund.Amount)
			rec.RefundAmount = refund.Amount
			rec.RefundID = refund.RefundID
		}
		if finalize != nil {
			finalize(b)
		}
		b.Mitigations = append(b.Mitigations, rec)
		return nil
	})
	if err != nil {
		fields := []zap.Field{zap.String("bookingID", bookingID), zap.String("action", string(action)), zap.Error(err)}
		if refund != nil {
			fields = append(fields, zap.String("refundID", refund.RefundID))
		}
		d.logger.Error("Refund issued but booking could not be updated", fields...)
		if refund != nil {
			return nil, nil, fmt.Errorf("%w: refund %s: %v", ErrRefundNotRecorded, refund.RefundID, err)
		}
		if errors.Is(err, errLeaseLost) {
			return nil, nil, ErrMitigationInProgress
		}
		return nil, nil, err
	}
	return committed, refund, nil
}

// releaseAfterFailure drops the lease after the provider rejected the refund.
// The attempt counter moves on so the next try is not answered from the provider's
// cache of the failed request.
func (d *Dispatcher) releaseAfterFailure(ctx context.Context, bookingID, lease string) {
	_, err := d.update(ctx, bookingID, func(b *models.Booking, _ time.Time) error {
		if b.PendingAction != lease {
			return errLeaseLost
		}
		b.PendingAction = ""
		b.PendingActionAt = nil
		b.RefundAttempts++
		return nil
	})
	if err != nil && !errors.Is(err, errLeaseLost) {
		d.logger.Error("Failed to release mitigation lease; it expires on its own",
			zap.String("bookingID", bookingID),
			zap.Error(err),
		)
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
