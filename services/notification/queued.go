package notification

import (
	"context"
	"fmt"
	"time"

	"glowbook/models"
	"glowbook/services/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the part of *asynq.Client used to queue deliveries.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueuedNotifier hands every message to the notification worker so periodic passes never wait on FCM.
type QueuedNotifier struct {
	client Enqueuer
	logger *zap.Logger
	now    func() time.Time
}

func NewQueuedNotifier(client Enqueuer, logger *zap.Logger) *QueuedNotifier {
	return &QueuedNotifier{client: client, logger: logger, now: time.Now}
}

func (n *QueuedNotifier) Send(ctx context.Context, userID string, msg models.Message) error {
	payload := models.NotificationPayload{
		ID:       uuid.New().String(),
		UserID:   userID,
		Message:  msg,
		QueuedAt: n.now().UTC(),
	}
	task, opts, err := tasks.NewNotificationTask(payload)
	if err != nil {
		return fmt.Errorf("failed to build notification task: %w", err)
	}
	info, err := n.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification for %s: %w", userID, err)
	}
	n.logger.Debug("Notification queued", zap.String("userID", userID), zap.String("type", msg.Type), zap.String("taskID", info.ID))
	return nil
}
