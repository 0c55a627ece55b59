package workStatusRepo

import (
	"context"
	"time"

	"glowbook/models"
)

// WorkStatusRepository stores the single live WorkStatus record per stylist.
type WorkStatusRepository interface {
	// Get returns repository.ErrNotFound when the stylist has never reported a status.
	Get(ctx context.Context, stylistID string) (*models.WorkStatus, error)
	// Save inserts the record when expectedVersion is 0 and none exists, otherwise replaces it
	// only while the stored version equals expectedVersion. ws.Version is advanced on success.
	Save(ctx context.Context, ws *models.WorkStatus, expectedVersion int) error
	// ListAlertDue returns working stylists with no alert sent whose estimate is at or before cutoff.
	ListAlertDue(ctx context.Context, cutoff time.Time) ([]models.WorkStatus, error)
}
