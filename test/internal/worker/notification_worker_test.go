package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/queue"
	"github.com/rktclgh/fairplay-banner/internal/worker"
)

func TestNotificationWorker_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryNotificationQueue(10)

	received := make(chan *model.Notification, 1)
	notifier := &stubNotifier{
		onSend: func(notification *model.Notification) {
			received <- notification
		},
	}

	w := worker.NewNotificationWorker(notifier, q)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Failed to start worker: %v", err)
	}

	notification := &model.Notification{
		Type:          model.NotificationPaid,
		ApplicationID: 1,
		UserID:        7,
		Message:       "payment completed",
		CreatedAt:     time.Now().UTC(),
	}
	if err := q.Publish(ctx, notification); err != nil {
		t.Fatalf("Failed to publish notification: %v", err)
	}

	select {
	case got := <-received:
		if got.ApplicationID != notification.ApplicationID || got.Type != notification.Type {
			t.Errorf("Unexpected notification delivered: %+v", got)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout: worker did not deliver the notification in time")
	}
}

type stubNotifier struct {
	onSend func(*model.Notification)
}

func (s *stubNotifier) Send(ctx context.Context, notification *model.Notification) error {
	s.onSend(notification)
	return nil
}
