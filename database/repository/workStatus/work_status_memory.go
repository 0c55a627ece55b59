package workStatusRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"glowbook/database/repository"
	"glowbook/models"
)

type MemoryWorkStatusRepo struct {
	mu       sync.Mutex
	statuses map[string]models.WorkStatus
}

func NewMemoryWorkStatusRepo() *MemoryWorkStatusRepo {
	return &MemoryWorkStatusRepo{statuses: make(map[string]models.WorkStatus)}
}

func (r *MemoryWorkStatusRepo) Get(_ context.Context, stylistID string) (*models.WorkStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.statuses[stylistID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ws, nil
}

func (r *MemoryWorkStatusRepo) Save(_ context.Context, ws *models.WorkStatus, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.statuses[ws.StylistID]
	switch {
	case !exists && expectedVersion != 0:
		return repository.ErrConflict
	case exists && stored.Version != expectedVersion:
		return repository.ErrConflict
	}

	next := *ws
	next.Version = expectedVersion + 1
	r.statuses[ws.StylistID] = next
	ws.Version = next.Version
	return nil
}

func (r *MemoryWorkStatusRepo) ListAlertDue(_ context.Context, cutoff time.Time) ([]models.WorkStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.WorkStatus
	for _, ws := range r.statuses {
		if ws.Status != models.WorkWorking || ws.AlertSent || ws.EstimatedAvailableAt == nil {
			continue
		}
		if !ws.EstimatedAvailableAt.After(cutoff) {
			out = append(out, ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EstimatedAvailableAt.Before(*out[j].EstimatedAvailableAt) })
	return out, nil
}
