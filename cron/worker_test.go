package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"glowbook/models"
	"glowbook/services/notification"
	"glowbook/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func TestHandleNotificationTaskDelivers(t *testing.T) {
	rec := &notification.Recorder{}
	task, _, err := tasks.NewNotificationTask(models.NotificationPayload{
		ID:       "n1",
		UserID:   "c1",
		Message:  models.Message{Type: models.NotifyExpired, Title: "Expired"},
		QueuedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("NewNotificationTask: %v", err)
	}

	if err := handleNotificationTask(rec, zap.NewNop())(context.Background(), task); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Count("c1", models.NotifyExpired) != 1 {
		t.Fatalf("message not delivered: %+v", rec.Messages())
	}
}

func TestHandleNotificationTaskErrors(t *testing.T) {
	rec := &notification.Recorder{Err: errors.New("fcm down")}
	h := handleNotificationTask(rec, zap.NewNop())

	bad := asynq.NewTask(tasks.TypeSendNotification, []byte("{not json"))
	if err := h(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retries, got %v", err)
	}

	task, _, _ := tasks.NewNotificationTask(models.NotificationPayload{UserID: "c1", QueuedAt: time.Now()})
	if err := h(context.Background(), task); err == nil {
		t.Fatalf("delivery failure should be returned so asynq retries")
	}
}
