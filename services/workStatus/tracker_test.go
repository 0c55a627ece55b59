package workStatus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	workStatusRepo "glowbook/database/repository/workStatus"
	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/utils"

	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestTracker() (*Tracker, *utils.FakeClock, *notification.Recorder) {
	clock := utils.NewFakeClock(t0)
	rec := &notification.Recorder{}
	return NewTracker(workStatusRepo.NewMemoryWorkStatusRepo(), rec, clock, zap.NewNop(), 15*time.Minute), clock, rec
}

func TestMissingRecordIsOffline(t *testing.T) {
	tr, _, _ := newTestTracker()
	ok, ws, err := tr.CanReceiveRequests(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || ws.Status != models.WorkOffline {
		t.Fatalf("expected offline and not accepting, got %v %s", ok, ws.Status)
	}
}

func TestWorkSessionAlertFiresOnceAndExtendResets(t *testing.T) {
	ctx := context.Background()
	tr, clock, rec := newTestTracker()

	if _, err := tr.MarkWorking(ctx, "s1", t0.Add(2*time.Hour), "colour job"); err != nil {
		t.Fatalf("MarkWorking: %v", err)
	}

	clock.Advance(time.Hour)
	if n, _ := tr.CheckAlertsOnce(ctx); n != 0 {
		t.Fatalf("alert fired too early: %d", n)
	}

	clock.Set(t0.Add(time.Hour + 45*time.Minute))
	n, err := tr.CheckAlertsOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one alert, got %d (%v)", n, err)
	}
	if n, _ := tr.CheckAlertsOnce(ctx); n != 0 {
		t.Fatalf("alert fired twice")
	}
	if got := rec.Count("s1", models.NotifyWorkEstimateExpires); got != 1 {
		t.Fatalf("expected 1 push, got %d", got)
	}
	ws, _ := tr.Get(ctx, "s1")
	if !ws.AlertSent {
		t.Fatalf("alert_sent should be true")
	}

	ws, err = tr.ExtendWork(ctx, "s1", t0.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ExtendWork: %v", err)
	}
	if ws.AlertSent || ws.WorkExtendedCount != 1 {
		t.Fatalf("expected reset alert and count 1, got %v %d", ws.AlertSent, ws.WorkExtendedCount)
	}
}

func TestExtendWorkRequiresWorking(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker()
	if _, err := tr.MarkAvailable(ctx, "s1", ""); err != nil {
		t.Fatalf("MarkAvailable: %v", err)
	}
	if _, err := tr.ExtendWork(ctx, "s1", t0.Add(time.Hour)); !errors.Is(err, ErrNotWorking) {
		t.Fatalf("expected ErrNotWorking, got %v", err)
	}
}

func TestMarkAlertSentSilencesAlert(t *testing.T) {
	ctx := context.Background()
	tr, clock, rec := newTestTracker()

	if _, err := tr.MarkAlertSent(ctx, "s1"); !errors.Is(err, ErrNotWorking) {
		t.Fatalf("expected ErrNotWorking for an offline stylist, got %v", err)
	}
	if _, err := tr.MarkWorking(ctx, "s1", t0.Add(30*time.Minute), ""); err != nil {
		t.Fatalf("MarkWorking: %v", err)
	}
	ws, err := tr.MarkAlertSent(ctx, "s1")
	if err != nil || !ws.AlertSent {
		t.Fatalf("MarkAlertSent: %+v (%v)", ws, err)
	}
	if _, err := tr.MarkAlertSent(ctx, "s1"); err != nil {
		t.Fatalf("second MarkAlertSent should be a no-op: %v", err)
	}

	clock.Advance(20 * time.Minute)
	if n, _ := tr.CheckAlertsOnce(ctx); n != 0 {
		t.Fatalf("acknowledged session was alerted again")
	}
	if rec.Count("s1", models.NotifyWorkEstimateExpires) != 0 {
		t.Fatalf("unexpected push after acknowledgement")
	}
}

func TestMarkWorkingRejectsPastEstimate(t *testing.T) {
	tr, _, _ := newTestTracker()
	if _, err := tr.MarkWorking(context.Background(), "s1", t0.Add(-time.Minute), ""); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestMarkAvailableClearsSession(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker()
	tr.MarkWorking(ctx, "s1", t0.Add(time.Hour), "")
	tr.ExtendWork(ctx, "s1", t0.Add(2*time.Hour))
	clock.Advance(30 * time.Minute)

	ws, err := tr.MarkAvailable(ctx, "s1", "back")
	if err != nil {
		t.Fatalf("MarkAvailable: %v", err)
	}
	if ws.WorkStartedAt != nil || ws.EstimatedAvailableAt != nil || ws.WorkExtendedCount != 0 {
		t.Fatalf("session fields not cleared: %+v", ws)
	}
	if ws.ActualAvailableAt == nil || !ws.ActualAvailableAt.Equal(t0.Add(30*time.Minute)) {
		t.Fatalf("unexpected actual_available_at: %v", ws.ActualAvailableAt)
	}
	if ok, _, _ := tr.CanReceiveRequests(ctx, "s1"); !ok {
		t.Fatalf("available stylist should accept requests")
	}
	tr.MarkUnavailable(ctx, "s1", "lunch")
	if ok, _, _ := tr.CanReceiveRequests(ctx, "s1"); ok {
		t.Fatalf("unavailable stylist should not accept requests")
	}
}

func TestConcurrentAlertChecksNotifyOnce(t *testing.T) {
	ctx := context.Background()
	tr, clock, rec := newTestTracker()
	tr.MarkWorking(ctx, "s1", t0.Add(10*time.Minute), "")
	clock.Advance(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.CheckAlertsOnce(ctx)
		}()
	}
	wg.Wait()

	if got := rec.Count("s1", models.NotifyWorkEstimateExpires); got != 1 {
		t.Fatalf("expected exactly one alert, got %d", got)
	}
}
