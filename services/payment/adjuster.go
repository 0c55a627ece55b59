package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"glowbook/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// PaymentAdjuster returns money to a client for a booking.
type PaymentAdjuster interface {
	Refund(ctx context.Context, req models.RefundRequest) (*models.Refund, error)
}

var (
	ErrInvalidRefund = errors.New("invalid refund request")
	// ErrProvider wraps every failure reported by the payment provider.
	ErrProvider = errors.New("payment provider failure")
)

// StripeAdjuster refunds card bookings through Stripe and records cash refunds
// for the stylist to settle in person.
type StripeAdjuster struct {
	logger *zap.Logger
	create func(params *stripe.RefundParams) (*stripe.Refund, error)
	now    func() time.Time
}

func NewStripeAdjuster(logger *zap.Logger) *StripeAdjuster {
	return &StripeAdjuster{logger: logger, create: refund.New, now: time.Now}
}

func (a *StripeAdjuster) Refund(ctx context.Context, req models.RefundRequest) (*models.Refund, error) {
	if err := validateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefund, err)
	}

	switch req.PaymentMethod {
	case "card":
		return a.refundCard(ctx, req)
	case "cash":
		return a.refundCash(req), nil
	default:
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidRefund, req.PaymentMethod)
	}
}

func (a *StripeAdjuster) refundCard(ctx context.Context, req models.RefundRequest) (*models.Refund, error) {
	if req.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: card booking %s has no payment intent", ErrInvalidRefund, req.BookingID)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
		Amount:        stripe.Int64(ToMinorUnits(req.Amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("client_id", req.ClientID)
	params.AddMetadata("reason", req.Reason)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	r, err := a.create(params)
	if err != nil {
		a.logger.Error("Stripe refund failed",
			zap.String("bookingID", req.BookingID),
			zap.String("idempotencyKey", req.IdempotencyKey),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	a.logger.Info("Card refund issued",
		zap.String("bookingID", req.BookingID),
		zap.String("refundID", r.ID),
		zap.Int64("amount", r.Amount),
	)
	return &models.Refund{
		RefundID:  r.ID,
		BookingID: req.BookingID,
		Amount:    FromMinorUnits(r.Amount),
		Currency:  strings.ToUpper(string(r.Currency)),
		Method:    "card",
		Status:    string(r.Status),
		CreatedAt: time.Unix(r.Created, 0).UTC(),
	}, nil
}

func (a *StripeAdjuster) refundCash(req models.RefundRequest) *models.Refund {
	a.logger.Info("Cash refund recorded", zap.String("bookingID", req.BookingID), zap.Float64("amount", req.Amount))
	return &models.Refund{
		RefundID:  "cash_" + uuid.New().String(),
		BookingID: req.BookingID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Method:    "cash",
		Status:    "owed",
		CreatedAt: a.now().UTC(),
	}
}

func validateRequest(req models.RefundRequest) error {
	if req.BookingID == "" {
		return errors.New("booking id is required")
	}
	if req.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if req.IdempotencyKey == "" {
		return errors.New("idempotency key is required")
	}
	return nil
}

// ToMinorUnits converts an amount to cents, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(cents int64) float64 {
	return float64(cents) / 100
}
