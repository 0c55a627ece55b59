package mitigation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bookingRepo "glowbook/database/repository/booking"
	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/utils"

	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type stubPayments struct {
	mu       sync.Mutex
	requests []models.RefundRequest
	err      error
	onRefund func()
}

func (s *stubPayments) Refund(_ context.Context, req models.RefundRequest) (*models.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.onRefund != nil {
		s.onRefund()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.Refund{RefundID: "re_" + req.IdempotencyKey, BookingID: req.BookingID, Amount: req.Amount, Currency: req.Currency, Method: req.PaymentMethod, Status: "succeeded"}, nil
}

func (s *stubPayments) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// failingBookings rejects every write while failing is set.
type failingBookings struct {
	bookingRepo.BookingRepository
	failing atomic.Bool
}

func (r *failingBookings) Update(ctx context.Context, b *models.Booking, expectedVersion int) error {
	if r.failing.Load() {
		return errors.New("mongo: write timeout")
	}
	return r.BookingRepository.Update(ctx, b, expectedVersion)
}

type fixture struct {
	d        *Dispatcher
	clock    *utils.FakeClock
	notes    *notification.Recorder
	pay      *stubPayments
	bookings *bookingRepo.MemoryBookingRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := utils.NewFakeClock(t0)
	bookings := bookingRepo.NewMemoryBookingRepo()
	notes := &notification.Recorder{}
	pay := &stubPayments{}
	d := NewDispatcher(bookings, pay, notes, clock, zap.NewNop(), Settings{WaitCooldown: 30 * time.Second, LeaseTTL: 2 * time.Minute})
	f := &fixture{d: d, clock: clock, notes: notes, pay: pay, bookings: bookings}
	f.seed(t, "b1", 20*time.Minute, models.BookingConfirmed)
	return f
}

func (f *fixture) seed(t *testing.T, id string, startsIn time.Duration, status models.BookingStatus) {
	t.Helper()
	b := &models.Booking{
		ID:              id,
		RequestID:       "r-" + id,
		ClientID:        "c1",
		StylistID:       "s1",
		DurationMinutes: 60,
		TotalPrice:      120,
		Currency:        "USD",
		PaymentMethod:   "card",
		PaymentIntentID: "pi_" + id,
		Status:          status,
	}
	b.SetSchedule(t0.Add(startsIn))
	if err := f.bookings.Create(context.Background(), b); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func (f *fixture) get(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := f.bookings.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return b
}

func TestPartialRefundKeepsBookingConfirmed(t *testing.T) {
	f := newFixture(t)
	res, err := f.d.PartialRefund(context.Background(), "b1", "s1", models.PartialRefundInput{Percentage: 25, Reason: "late"})
	if err != nil {
		t.Fatalf("PartialRefund: %v", err)
	}
	if !res.Success || res.Refund.Amount != 30 {
		t.Fatalf("unexpected result %+v", res)
	}
	b := f.get(t, "b1")
	if b.Status != models.BookingConfirmed || b.RefundedAmount != 30 {
		t.Fatalf("unexpected booking state %s %.2f", b.Status, b.RefundedAmount)
	}
	if b.PendingAction != "" || len(b.Mitigations) != 1 || b.Mitigations[0].RefundAmount != 30 {
		t.Fatalf("lease not committed or audit missing: %+v", b)
	}
	if f.notes.Count("c1", models.NotifyPartialRefund) != 1 {
		t.Fatalf("client was not notified")
	}
}

func TestPartialRefundOnCancelledBookingMakesNoPaymentCall(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "gone", time.Hour, models.BookingCancelled)

	_, err := f.d.PartialRefund(context.Background(), "gone", "s1", models.PartialRefundInput{Percentage: 25, Reason: "late"})
	if !errors.Is(err, ErrBookingAlreadyTerminal) {
		t.Fatalf("expected ErrBookingAlreadyTerminal, got %v", err)
	}
	if f.pay.calls() != 0 {
		t.Fatalf("payment adjuster must not be called")
	}
}

func TestPartialRefundCappedByRemainder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		if _, err := f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 40, Reason: "late"}); err != nil {
			t.Fatalf("refund %d: %v", i, err)
		}
	}
	res, err := f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 40, Reason: "late"})
	if err != nil {
		t.Fatalf("third refund: %v", err)
	}
	if res.Refund.Amount != 24 {
		t.Fatalf("expected capped 24, got %.2f", res.Refund.Amount)
	}
	if _, err := f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 10, Reason: "late"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected nothing left to refund, got %v", err)
	}

	keys := map[string]bool{}
	for _, r := range f.pay.requests {
		if keys[r.IdempotencyKey] {
			t.Fatalf("idempotency key reused across distinct refunds: %s", r.IdempotencyKey)
		}
		keys[r.IdempotencyKey] = true
	}
}

func TestRetryAfterRejectedRefundUsesFreshKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.pay.err = errors.New("card_declined")
	if _, err := f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 25, Reason: "late"}); !errors.Is(err, ErrExternalServiceFailure) {
		t.Fatalf("expected ErrExternalServiceFailure, got %v", err)
	}
	f.pay.err = nil
	res, err := f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 50, Reason: "late"})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Refund.Amount != 60 {
		t.Fatalf("expected 60 refunded, got %.2f", res.Refund.Amount)
	}

	first, second := f.pay.requests[0], f.pay.requests[1]
	if first.Amount != 30 || second.Amount != 60 {
		t.Fatalf("unexpected amounts %.2f then %.2f", first.Amount, second.Amount)
	}
	if first.IdempotencyKey == second.IdempotencyKey {
		t.Fatalf("both refunds went out under key %s", first.IdempotencyKey)
	}

	// Same percentage after a rejection still needs a new key.
	f.pay.err = errors.New("rate_limit")
	f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 10, Reason: "late"})
	f.pay.err = nil
	if _, err := f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 10, Reason: "late"}); err != nil {
		t.Fatalf("second retry: %v", err)
	}
	if f.pay.requests[2].IdempotencyKey == f.pay.requests[3].IdempotencyKey {
		t.Fatalf("identical retry reused key %s", f.pay.requests[2].IdempotencyKey)
	}
	if got := f.get(t, "b1").RefundedAmount; got != 72 {
		t.Fatalf("expected 72 refunded in total, got %.2f", got)
	}
}

func TestUnrecordedRefundIsReplayedAfterLeaseExpires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flaky := &failingBookings{BookingRepository: f.bookings}
	d := NewDispatcher(flaky, f.pay, f.notes, f.clock, zap.NewNop(), Settings{WaitCooldown: 30 * time.Second, LeaseTTL: 2 * time.Minute})

	f.pay.onRefund = func() { flaky.failing.Store(true) }
	_, err := d.Cancel(ctx, "b1", "s1", models.CancelInput{Reason: "no show"})
	if !errors.Is(err, ErrRefundNotRecorded) {
		t.Fatalf("expected ErrRefundNotRecorded, got %v", err)
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrMitigationInProgress) {
		t.Fatalf("a moved refund must not look like a plain conflict: %v", err)
	}

	f.pay.onRefund = nil
	flaky.failing.Store(false)
	b := f.get(t, "b1")
	if b.Status != models.BookingConfirmed || b.RefundedAmount != 0 || b.PendingAction == "" {
		t.Fatalf("expected booking untouched with lease held, got %+v", b)
	}
	if _, err := d.Cancel(ctx, "b1", "s1", models.CancelInput{Reason: "no show"}); !errors.Is(err, ErrMitigationInProgress) {
		t.Fatalf("expected ErrMitigationInProgress while the lease is live, got %v", err)
	}

	f.clock.Advance(2 * time.Minute)
	if _, err := d.Cancel(ctx, "b1", "s1", models.CancelInput{Reason: "no show"}); err != nil {
		t.Fatalf("Cancel after lease expiry: %v", err)
	}
	if f.pay.calls() != 2 || f.pay.requests[0].IdempotencyKey != f.pay.requests[1].IdempotencyKey {
		t.Fatalf("replayed refund must reuse the key: %+v", f.pay.requests)
	}
	b = f.get(t, "b1")
	if b.Status != models.BookingCancelled || b.RefundedAmount != 120 || len(b.Mitigations) != 1 {
		t.Fatalf("unexpected booking after replay %+v", b)
	}
}

func TestPartialRefundValidation(t *testing.T) {
	f := newFixture(t)
	for _, pct := range []float64{0, -5, 100.5} {
		if _, err := f.d.PartialRefund(context.Background(), "b1", "s1", models.PartialRefundInput{Percentage: pct, Reason: "late"}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("percentage %.1f: expected ErrInvalidInput, got %v", pct, err)
		}
	}
}

func TestCancelIsAllOrNothing(t *testing.T) {
	ctx := context.Background()

	t.Run("payment failure leaves booking confirmed", func(t *testing.T) {
		f := newFixture(t)
		f.pay.err = errors.New("stripe unreachable")

		_, err := f.d.Cancel(ctx, "b1", "s1", models.CancelInput{Reason: "no show"})
		if !errors.Is(err, ErrExternalServiceFailure) {
			t.Fatalf("expected ErrExternalServiceFailure, got %v", err)
		}
		b := f.get(t, "b1")
		if b.Status != models.BookingConfirmed || b.RefundedAmount != 0 || b.PendingAction != "" || len(b.Mitigations) != 0 {
			t.Fatalf("booking changed after failed cancel: %+v", b)
		}

		f.pay.err = nil
		if _, err := f.d.Cancel(ctx, "b1", "s1", models.CancelInput{Reason: "no show"}); err != nil {
			t.Fatalf("retry should succeed once the lease is released: %v", err)
		}
		if f.pay.requests[0].IdempotencyKey == f.pay.requests[1].IdempotencyKey {
			t.Fatalf("a retry after a rejected refund must not reuse the idempotency key")
		}
	})

	t.Run("success refunds remainder and cancels", func(t *testing.T) {
		f := newFixture(t)
		f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 25, Reason: "late"})

		res, err := f.d.Cancel(ctx, "b1", "s1", models.CancelInput{Reason: "no show"})
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if res.Refund.Amount != 90 {
			t.Fatalf("expected remainder 90 refunded, got %.2f", res.Refund.Amount)
		}
		b := f.get(t, "b1")
		if b.Status != models.BookingCancelled || b.RefundedAmount != 120 || b.CancelReason != "no show" {
			t.Fatalf("unexpected booking %+v", b)
		}
		if _, err := f.d.Cancel(ctx, "b1", "s1", models.CancelInput{Reason: "again"}); !errors.Is(err, ErrBookingAlreadyTerminal) {
			t.Fatalf("expected ErrBookingAlreadyTerminal, got %v", err)
		}
	})
}

func TestLeaseBlocksOtherActionsUntilStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b := f.get(t, "b1")
	claimedAt := t0
	b.PendingAction = "cancel:crashed"
	b.PendingActionAt = &claimedAt
	if err := f.bookings.Update(ctx, b, b.Version); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 10, Reason: "late"}); !errors.Is(err, ErrMitigationInProgress) {
		t.Fatalf("expected ErrMitigationInProgress, got %v", err)
	}
	if _, err := f.d.Wait(ctx, "b1", "s1", models.WaitInput{}); !errors.Is(err, ErrMitigationInProgress) {
		t.Fatalf("expected ErrMitigationInProgress for wait, got %v", err)
	}

	f.clock.Advance(2 * time.Minute)
	if _, err := f.d.PartialRefund(ctx, "b1", "s1", models.PartialRefundInput{Percentage: 10, Reason: "late"}); err != nil {
		t.Fatalf("stale lease should be reclaimable: %v", err)
	}
}

func TestConcurrentMoneyActionsRefundOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.d.Cancel(ctx, "b1", "s1", models.CancelInput{Reason: "no show"}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 || f.pay.calls() != 1 {
		t.Fatalf("expected one cancel and one refund, got %d wins and %d refunds", wins, f.pay.calls())
	}
}

func TestBump(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "other", 3*time.Hour, models.BookingConfirmed)

	if _, err := f.d.Bump(ctx, "b1", "s1", models.BumpInput{NewTime: t0.Add(-time.Minute), Reason: "late"}); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("past time: expected ErrInvalidTime, got %v", err)
	}
	if _, err := f.d.Bump(ctx, "b1", "s1", models.BumpInput{NewTime: t0.Add(2*time.Hour + 30*time.Minute), Reason: "late"}); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("overlap: expected ErrInvalidTime, got %v", err)
	}

	newTime := t0.Add(time.Hour)
	res, err := f.d.Bump(ctx, "b1", "s1", models.BumpInput{NewTime: newTime, Reason: "late", ClientMessage: "See you at 10"})
	if err != nil {
		t.Fatalf("Bump: %v", err)
	}
	b := res.Booking
	if !b.StartsAt.Equal(newTime) || !b.EndsAt.Equal(newTime.Add(time.Hour)) || b.Start != 600 {
		t.Fatalf("schedule not rewritten: %+v", b)
	}
	rec := b.Mitigations[0]
	if rec.Action != models.ActionBump || !rec.OldStartsAt.Equal(t0.Add(20*time.Minute)) {
		t.Fatalf("unexpected audit record %+v", rec)
	}
	if f.notes.Count("c1", models.NotifyBookingBumped) != 1 {
		t.Fatalf("client was not notified")
	}
}

func TestWaitSuppressesForCooldown(t *testing.T) {
	f := newFixture(t)
	res, err := f.d.Wait(context.Background(), "b1", "s1", models.WaitInput{Reason: "traffic"})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Booking.RiskSuppressedUntil == nil || !res.Booking.RiskSuppressedUntil.Equal(t0.Add(30*time.Second)) {
		t.Fatalf("unexpected suppression %v", res.Booking.RiskSuppressedUntil)
	}
	if !res.Booking.StartsAt.Equal(t0.Add(20 * time.Minute)) {
		t.Fatalf("wait must not change the schedule")
	}
}

func TestContactClient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.d.ContactClient(ctx, "b1", "s1", models.ContactClientInput{Message: "Running late?"}); err != nil {
		t.Fatalf("ContactClient: %v", err)
	}
	if f.notes.Count("c1", models.NotifyStylistMessage) != 1 {
		t.Fatalf("message not delivered")
	}

	f.notes.Err = errors.New("fcm down")
	if _, err := f.d.ContactClient(ctx, "b1", "s1", models.ContactClientInput{Message: "Hello?"}); !errors.Is(err, ErrExternalServiceFailure) {
		t.Fatalf("expected ErrExternalServiceFailure, got %v", err)
	}
	if got := len(f.get(t, "b1").Mitigations); got != 1 {
		t.Fatalf("failed contact must not be recorded, have %d records", got)
	}
}

func TestActionErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.d.Wait(ctx, "missing", "s1", models.WaitInput{}); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
	if _, err := f.d.Wait(ctx, "b1", "s2", models.WaitInput{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
