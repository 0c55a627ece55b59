package cron

import (
	"context"
	"fmt"
	"time"

	"glowbook/config"
	"glowbook/services/notification"
	"glowbook/services/tasks"
	"glowbook/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NotificationQueueOpt is the Redis connection shared by the queue client and the worker.
func NotificationQueueOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotificationQueueDB,
	}
}

// InitNotificationWorker runs the async delivery worker in background and returns it for shutdown.
func InitNotificationWorker(sender notification.Notifier) *asynq.Server {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		NotificationQueueOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendNotification, handleNotificationTask(sender, logger))

	go monitorRedisConnection(logger)

	go func() {
		logger.Info("Starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("Notification worker failed to start",
					zap.Int("attempt", attempts),
					zap.Int("maxAttempts", maxAttempts),
					zap.Error(err),
				)
				if attempts == maxAttempts {
					logger.Fatal("Notification worker: max retry attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
	return srv
}

func handleNotificationTask(sender notification.Notifier, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseNotificationTask(task)
		if err != nil {
			logger.Error("Invalid notification payload", zap.Error(err))
			// Retrying a malformed payload can never succeed.
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		if err := sender.Send(ctx, p.UserID, p.Message); err != nil {
			logger.Warn("Notification delivery failed",
				zap.String("notificationID", p.ID),
				zap.String("userID", p.UserID),
				zap.String("type", p.Message.Type),
				zap.Error(err),
			)
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings the queue database periodically to detect failures at runtime.
func monitorRedisConnection(logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotificationQueueDB,
	})

	ctx := context.Background()
	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Notification queue Redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
