package notification

import (
	"context"
	"errors"
	"fmt"

	"glowbook/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Sender is the part of the FCM client the notifier needs.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushNotifier sends high-priority FCM pushes to the user's registered device.
type PushNotifier struct {
	sender Sender
	tokens TokenStore
	logger *zap.Logger
}

func NewPushNotifier(sender Sender, tokens TokenStore, logger *zap.Logger) *PushNotifier {
	return &PushNotifier{sender: sender, tokens: tokens, logger: logger}
}

func (n *PushNotifier) Send(ctx context.Context, userID string, msg models.Message) error {
	token, err := n.tokens.GetToken(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			n.logger.Debug("Skipping push, user has no device", zap.String("userID", userID), zap.String("type", msg.Type))
			return nil
		}
		return err
	}

	data := map[string]string{"type": msg.Type}
	for k, v := range msg.Data {
		data[k] = v
	}

	fcmMsg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := n.sender.Send(ctx, fcmMsg)
	if err != nil {
		return fmt.Errorf("failed to send FCM message to %s: %w", userID, err)
	}
	n.logger.Debug("Push sent", zap.String("userID", userID), zap.String("type", msg.Type), zap.String("messageID", id))
	return nil
}

// LogNotifier only logs; used when Firebase is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, userID string, msg models.Message) error {
	n.logger.Info("Notification",
		zap.String("userID", userID),
		zap.String("type", msg.Type),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
	)
	return nil
}
