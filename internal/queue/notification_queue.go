package queue

import (
	"context"

	"github.com/rktclgh/fairplay-banner/internal/model"
)

type Delivery struct {
	Data *model.Notification
	Ack  func()
	Nack func(requeue bool)
}

type NotificationQueue interface {
	// 發送通知到隊列
	Publish(ctx context.Context, notification *model.Notification) error
	// 訂閱通知隊列
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

type MemoryNotificationQueueImpl struct {
	// 使用 Go channel 模擬 MQ，單機部署或測試用
	ch chan *model.Notification
}

func NewMemoryNotificationQueue(bufferSize int) NotificationQueue {
	return &MemoryNotificationQueueImpl{
		ch: make(chan *model.Notification, bufferSize),
	}
}

func (q *MemoryNotificationQueueImpl) Publish(ctx context.Context, notification *model.Notification) error {
	q.ch <- notification
	return nil
}

func (q *MemoryNotificationQueueImpl) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case notification, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: notification,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- notification // 簡單模擬重回隊列
						}
					},
				}
			}
		}
	}()

	return out, nil
}
