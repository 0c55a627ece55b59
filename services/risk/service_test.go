package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingRepo "glowbook/database/repository/booking"
	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/utils"

	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	clock    *utils.FakeClock
	notes    *notification.Recorder
	bookings *bookingRepo.MemoryBookingRepo
}

func newFixture() *fixture {
	clock := utils.NewFakeClock(t0)
	bookings := bookingRepo.NewMemoryBookingRepo()
	notes := &notification.Recorder{}
	svc := NewService(bookings, notes, NewMemoryAlertGate(clock), clock, zap.NewNop(), Settings{
		Lookahead: 3 * time.Hour,
		DedupTTL:  10 * time.Minute,
	})
	return &fixture{svc: svc, clock: clock, notes: notes, bookings: bookings}
}

func (f *fixture) seed(t *testing.T, id string, startsIn time.Duration, status models.BookingStatus) {
	t.Helper()
	b := &models.Booking{
		ID:              id,
		RequestID:       "r-" + id,
		ClientID:        "c-" + id,
		StylistID:       "s1",
		DurationMinutes: 60,
		TotalPrice:      80,
		Status:          status,
	}
	b.SetSchedule(t0.Add(startsIn))
	if err := f.bookings.Create(context.Background(), b); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestLateRiskBookingsOrdersByUrgency(t *testing.T) {
	f := newFixture()
	f.seed(t, "medium", 20*time.Minute, models.BookingConfirmed)
	f.seed(t, "critical", 8*time.Minute, models.BookingConfirmed)
	f.seed(t, "low", 2*time.Hour, models.BookingConfirmed)
	f.seed(t, "beyond", 5*time.Hour, models.BookingConfirmed)
	f.seed(t, "cancelled", 5*time.Minute, models.BookingCancelled)

	all, err := f.svc.LateRiskBookings(context.Background(), "s1", models.RiskLow)
	if err != nil {
		t.Fatalf("LateRiskBookings: %v", err)
	}
	want := []string{"critical", "medium", "low"}
	if len(all) != len(want) {
		t.Fatalf("expected %d assessments, got %d", len(want), len(all))
	}
	for i, id := range want {
		if all[i].BookingID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, all[i].BookingID)
		}
	}

	atRisk, _ := f.svc.LateRiskBookings(context.Background(), "s1", "")
	if len(atRisk) != 2 || atRisk[0].BookingID != "critical" || atRisk[1].BookingID != "medium" {
		t.Fatalf("default level should list medium and above only, got %+v", atRisk)
	}
	if _, err := f.svc.LateRiskBookings(context.Background(), "s1", "severe"); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestPollOnceAlertsOncePerLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "b1", 8*time.Minute, models.BookingConfirmed)
	f.seed(t, "b2", 20*time.Minute, models.BookingConfirmed)

	n, err := f.svc.PollOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one alert, got %d (%v)", n, err)
	}
	if f.notes.Count("s1", models.NotifyLateRisk) != 1 {
		t.Fatalf("stylist was not alerted")
	}
	if f.notes.Count("c-b1", models.NotifyOnYourWay) != 1 {
		t.Fatalf("critical client was not nudged")
	}

	f.clock.Advance(30 * time.Second)
	if n, _ := f.svc.PollOnce(ctx); n != 0 {
		t.Fatalf("duplicate alert within dedup window")
	}
}

func TestPollOnceRespectsWaitSuppression(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "b1", 8*time.Minute, models.BookingConfirmed)

	b, _ := f.bookings.GetByID(ctx, "b1")
	until := t0.Add(30 * time.Second)
	b.RiskSuppressedUntil = &until
	if err := f.bookings.Update(ctx, b, b.Version); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if n, _ := f.svc.PollOnce(ctx); n != 0 {
		t.Fatalf("suppressed booking must not alert")
	}
	f.clock.Advance(30 * time.Second)
	if n, _ := f.svc.PollOnce(ctx); n != 1 {
		t.Fatalf("alerting should resume after the cooldown")
	}
}

func TestRecordTelemetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "b1", 10*time.Minute, models.BookingConfirmed)
	f.seed(t, "done", 10*time.Minute, models.BookingCompleted)

	a, err := f.svc.RecordTelemetry(ctx, "b1", "c-b1", models.TelemetryInput{DistanceMeters: 9000, EtaSeconds: 25 * 60, IsEnRoute: true})
	if err != nil {
		t.Fatalf("RecordTelemetry: %v", err)
	}
	if a.RiskLevel != models.RiskHigh {
		t.Fatalf("expected high, got %s", a.RiskLevel)
	}
	stored, _ := f.bookings.GetByID(ctx, "b1")
	if stored.TelemetryAt == nil || !stored.IsEnRoute || *stored.EtaSeconds != 1500 {
		t.Fatalf("telemetry not stored: %+v", stored)
	}

	if _, err := f.svc.RecordTelemetry(ctx, "b1", "someone-else", models.TelemetryInput{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.RecordTelemetry(ctx, "done", "c-done", models.TelemetryInput{}); !errors.Is(err, ErrBookingNotActive) {
		t.Fatalf("expected ErrBookingNotActive, got %v", err)
	}
	if _, err := f.svc.RecordTelemetry(ctx, "missing", "c1", models.TelemetryInput{}); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
	if _, err := f.svc.RecordTelemetry(ctx, "b1", "c-b1", models.TelemetryInput{EtaSeconds: -1}); !errors.Is(err, ErrInvalidTelemetry) {
		t.Fatalf("expected ErrInvalidTelemetry, got %v", err)
	}
}
