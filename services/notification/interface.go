package notification

import (
	"context"

	"glowbook/models"
)

// Notifier delivers a message to one user. Callers in the engine log and swallow its errors.
type Notifier interface {
	Send(ctx context.Context, userID string, msg models.Message) error
}

// TokenStore keeps the FCM registration token of each user.
type TokenStore interface {
	SetToken(ctx context.Context, userID, token string) error
	GetToken(ctx context.Context, userID string) (string, error)
}
