package tasks

import (
	"encoding/json"
	"time"

	"glowbook/models"

	"github.com/hibiken/asynq"
)

const TypeSendNotification = "notification:send"

func NewNotificationTask(payload models.NotificationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendNotification, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		// A push about a risk alert is useless once the appointment has passed.
		asynq.Deadline(payload.QueuedAt.Add(2 * time.Hour)),
	}
	return task, opts, nil
}

// ParseNotificationTask decodes the payload of a notification:send task.
func ParseNotificationTask(task *asynq.Task) (models.NotificationPayload, error) {
	var p models.NotificationPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}
