package worker

import (
	"context"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/queue"
	"github.com/rktclgh/fairplay-banner/pkg/logger"

	"go.uber.org/zap"
)

// Notifier 通知子系統的窄介面；投遞結果不影響版位狀態
type Notifier interface {
	Send(ctx context.Context, notification *model.Notification) error
}

// LogNotifier 把通知寫進 log 的實作，真正的信件/站內信走外部系統
type LogNotifier struct{}

func (n *LogNotifier) Send(ctx context.Context, notification *model.Notification) error {
	logger.WithComponent("notifier").Info("notification sent",
		zap.String("type", string(notification.Type)),
		zap.Int("application_id", notification.ApplicationID),
		zap.Int("user_id", notification.UserID),
		zap.String("message", notification.Message))
	return nil
}

type NotificationWorker interface {
	// 訂閱通知隊列
	Start(ctx context.Context) error
}

type NotificationWorkerImpl struct {
	notifier Notifier
	queue    queue.NotificationQueue
}

func NewNotificationWorker(notifier Notifier, queue queue.NotificationQueue) NotificationWorker {
	return &NotificationWorkerImpl{
		notifier: notifier,
		queue:    queue,
	}
}

func (w *NotificationWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			err := w.notifier.Send(ctx, msg.Data)

			if err != nil {
				// 通知送不出去就重試，送不出去也不會回滾任何版位轉換
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}
