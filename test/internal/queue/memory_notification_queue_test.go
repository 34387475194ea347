package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/model"
	"github.com/rktclgh/fairplay-banner/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryNotificationQueue_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryNotificationQueue(4)

	notification := &model.Notification{
		Type:          model.NotificationPaid,
		ApplicationID: 1,
		UserID:        7,
		Message:       "payment completed",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, q.Publish(ctx, notification))

	delCh, err := q.Subscribe(ctx)
	require.NoError(t, err)

	select {
	case d := <-delCh:
		require.NotNil(t, d.Data)
		assert.Equal(t, notification.ApplicationID, d.Data.ApplicationID)
		d.Ack()
	case <-ctx.Done():
		t.Fatal("timeout waiting for delivery")
	}
}

func TestMemoryNotificationQueue_NackRequeue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryNotificationQueue(4)

	notification := &model.Notification{
		Type:          model.NotificationCancelled,
		ApplicationID: 2,
		UserID:        8,
		Message:       "payment failed",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, q.Publish(ctx, notification))

	delCh, err := q.Subscribe(ctx)
	require.NoError(t, err)

	d := <-delCh
	d.Nack(true)

	select {
	case redelivered := <-delCh:
		assert.Equal(t, notification.ApplicationID, redelivered.Data.ApplicationID)
		redelivered.Ack()
	case <-ctx.Done():
		t.Fatal("timeout waiting for redelivery")
	}
}
