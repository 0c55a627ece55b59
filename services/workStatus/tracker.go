package workStatus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"glowbook/database/repository"
	workStatusRepo "glowbook/database/repository/workStatus"
	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/utils"

	"go.uber.org/zap"
)

// Tracker is the per-stylist working/availability state machine.
type Tracker struct {
	repo      workStatusRepo.WorkStatusRepository
	notifier  notification.Notifier
	clock     utils.Clock
	logger    *zap.Logger
	alertLead time.Duration
}

func NewTracker(repo workStatusRepo.WorkStatusRepository, notifier notification.Notifier, clock utils.Clock, logger *zap.Logger, alertLead time.Duration) *Tracker {
	return &Tracker{repo: repo, notifier: notifier, clock: clock, logger: logger, alertLead: alertLead}
}

// Get returns the stylist's record, or an offline placeholder when none exists yet.
func (t *Tracker) Get(ctx context.Context, stylistID string) (*models.WorkStatus, error) {
	ws, err := t.repo.Get(ctx, stylistID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.WorkStatus{StylistID: stylistID, Status: models.WorkOffline}, nil
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// CanReceiveRequests reports whether new booking requests may be sent to the stylist.
func (t *Tracker) CanReceiveRequests(ctx context.Context, stylistID string) (bool, *models.WorkStatus, error) {
	ws, err := t.Get(ctx, stylistID)
	if err != nil {
		return false, nil, err
	}
	return ws.AcceptsRequests(), ws, nil
}

// update reads, mutates and writes the record under the version guard.
func (t *Tracker) update(ctx context.Context, stylistID string, mutate func(ws *models.WorkStatus, now time.Time) error) (*models.WorkStatus, error) {
	ws, err := t.Get(ctx, stylistID)
	if err != nil {
		return nil, err
	}
	expected := ws.Version
	now := t.clock.Now()
	if err := mutate(ws, now); err != nil {
		return nil, err
	}
	ws.UpdatedAt = now
	if err := t.repo.Save(ctx, ws, expected); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to save work status: %w", err)
	}
	return ws, nil
}

func (t *Tracker) MarkWorking(ctx context.Context, stylistID string, estimatedAvailableAt time.Time, note string) (*models.WorkStatus, error) {
	return t.update(ctx, stylistID, func(ws *models.WorkStatus, now time.Time) error {
		if !estimatedAvailableAt.After(now) {
			return ErrInvalidTime
		}
		est := estimatedAvailableAt.UTC()
		ws.Status = models.WorkWorking
		ws.WorkStartedAt = &now
		ws.EstimatedAvailableAt = &est
		ws.ActualAvailableAt = nil
		ws.AlertSent = false
		ws.Note = note
		return nil
	})
}

func (t *Tracker) ExtendWork(ctx context.Context, stylistID string, newEstimate time.Time) (*models.WorkStatus, error) {
	return t.update(ctx, stylistID, func(ws *models.WorkStatus, now time.Time) error {
		if ws.Status != models.WorkWorking {
			return ErrNotWorking
		}
		if !newEstimate.After(now) {
			return ErrInvalidTime
		}
		est := newEstimate.UTC()
		ws.EstimatedAvailableAt = &est
		ws.WorkExtendedCount++
		ws.AlertSent = false
		return nil
	})
}

func (t *Tracker) MarkAvailable(ctx context.Context, stylistID, note string) (*models.WorkStatus, error) {
	return t.update(ctx, stylistID, func(ws *models.WorkStatus, now time.Time) error {
		endSession(ws, models.WorkAvailable, note)
		ws.ActualAvailableAt = &now
		return nil
	})
}

func (t *Tracker) MarkUnavailable(ctx context.Context, stylistID, note string) (*models.WorkStatus, error) {
	return t.update(ctx, stylistID, func(ws *models.WorkStatus, _ time.Time) error {
		endSession(ws, models.WorkUnavailable, note)
		return nil
	})
}

func (t *Tracker) GoOffline(ctx context.Context, stylistID string) (*models.WorkStatus, error) {
	return t.update(ctx, stylistID, func(ws *models.WorkStatus, _ time.Time) error {
		endSession(ws, models.WorkOffline, "")
		return nil
	})
}

func endSession(ws *models.WorkStatus, to models.WorkState, note string) {
	ws.Status = to
	ws.WorkStartedAt = nil
	ws.EstimatedAvailableAt = nil
	ws.AlertSent = false
	ws.WorkExtendedCount = 0
	ws.Note = note
}

// MarkAlertSent records that the stylist has seen the estimate prompt. Idempotent.
func (t *Tracker) MarkAlertSent(ctx context.Context, stylistID string) (*models.WorkStatus, error) {
	return t.update(ctx, stylistID, func(ws *models.WorkStatus, _ time.Time) error {
		if ws.Status != models.WorkWorking {
			return ErrNotWorking
		}
		ws.AlertSent = true
		return nil
	})
}

// CheckAlertsOnce notifies every working stylist whose estimate is within the alert lead.
// The flag is set by guarded write before notifying, so concurrent passes alert once.
func (t *Tracker) CheckAlertsOnce(ctx context.Context) (int, error) {
	now := t.clock.Now()
	due, err := t.repo.ListAlertDue(ctx, now.Add(t.alertLead))
	if err != nil {
		return 0, fmt.Errorf("failed to list due work alerts: %w", err)
	}

	sent := 0
	for i := range due {
		ws := due[i]
		expected := ws.Version
		ws.AlertSent = true
		ws.UpdatedAt = now
		if err := t.repo.Save(ctx, &ws, expected); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return sent, fmt.Errorf("failed to flag work alert for %s: %w", ws.StylistID, err)
		}
		sent++

		msg := models.Message{
			Type:  models.NotifyWorkEstimateExpires,
			Title: "Still busy?",
			Body:  fmt.Sprintf("You said you'd be free at %s. Extend your session or mark yourself available.", ws.EstimatedAvailableAt.Format("15:04")),
			Data:  map[string]string{"estimatedAvailableAt": ws.EstimatedAvailableAt.Format(time.RFC3339)},
		}
		if err := t.notifier.Send(ctx, ws.StylistID, msg); err != nil {
			t.logger.Warn("Failed to send work estimate alert", zap.String("stylistID", ws.StylistID), zap.Error(err))
		}
	}
	return sent, nil
}
