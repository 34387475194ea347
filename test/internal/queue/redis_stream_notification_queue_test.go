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

func cleanupStream(ctx context.Context, t *testing.T) {
	t.Helper()
	_ = testRdb.Del(ctx, queue.StreamKey).Err()
}

// --- 1. 建構 ---

func TestNewRedisStreamNotificationQueue(t *testing.T) {
	ctx := context.Background()
	cleanupStream(ctx, t)

	t.Run("success", func(t *testing.T) {
		q, err := queue.NewRedisStreamNotificationQueue(testRdb, "test-consumer", nil)
		require.NoError(t, err)
		require.NotNil(t, q)
	})

	t.Run("empty_consumer_id_generates_uuid", func(t *testing.T) {
		cleanupStream(ctx, t)
		q, err := queue.NewRedisStreamNotificationQueue(testRdb, "", nil)
		require.NoError(t, err)
		require.NotNil(t, q)
	})
}

// --- 2. 發送（基本成功即可；完整「有收到」由訂閱測試涵蓋）---

func TestRedisStreamNotificationQueue_Publish(t *testing.T) {
	ctx := context.Background()
	cleanupStream(ctx, t)

	q, err := queue.NewRedisStreamNotificationQueue(testRdb, "pub-test", nil)
	require.NoError(t, err)

	notification := &model.Notification{
		Type:          model.NotificationRejected,
		ApplicationID: 1,
		UserID:        7,
		Message:       "application rejected",
		CreatedAt:     time.Now().UTC(),
	}
	err = q.Publish(ctx, notification)
	require.NoError(t, err)
}

// --- 3. 訂閱與投遞：驗證「發出去的內容」與「收進來的內容」一致 ---

func TestRedisStreamNotificationQueue_Subscribe_deliversPublishedMessage(t *testing.T) {
	ctx := context.Background()
	cleanupStream(ctx, t)

	q, err := queue.NewRedisStreamNotificationQueue(testRdb, "deliver-test", nil)
	require.NoError(t, err)

	notification := &model.Notification{
		Type:          model.NotificationPaid,
		ApplicationID: 10,
		UserID:        20,
		Message:       "payment completed",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	err = q.Publish(ctx, notification)
	require.NoError(t, err)

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	delCh, err := q.Subscribe(subCtx)
	require.NoError(t, err)

	select {
	case d, ok := <-delCh:
		require.True(t, ok, "應收到一筆")
		require.NotNil(t, d.Data)
		assert.Equal(t, notification.Type, d.Data.Type)
		assert.Equal(t, notification.ApplicationID, d.Data.ApplicationID)
		assert.Equal(t, notification.UserID, d.Data.UserID)
		assert.Equal(t, notification.Message, d.Data.Message)
		d.Ack()
	case <-subCtx.Done():
		t.Fatal("timeout 未收到訊息")
	}
}

// --- 4. 重試：Nack(requeue) 的訊息由 XAUTOCLAIM 領回重投 ---

func TestRedisStreamNotificationQueue_NackRequeue_redelivers(t *testing.T) {
	ctx := context.Background()
	cleanupStream(ctx, t)

	cfg := &queue.RedisStreamNotificationQueueConfig{
		ClaimMinIdleTime:   500 * time.Millisecond,
		ReadGroupBlockTime: 200 * time.Millisecond,
	}
	q, err := queue.NewRedisStreamNotificationQueue(testRdb, "retry-test", cfg)
	require.NoError(t, err)

	notification := &model.Notification{
		Type:          model.NotificationCancelled,
		ApplicationID: 3,
		UserID:        4,
		Message:       "payment failed",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, q.Publish(ctx, notification))

	subCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	delCh, err := q.Subscribe(subCtx)
	require.NoError(t, err)

	// 第一次投遞：Nack 留在 PEL
	select {
	case d := <-delCh:
		require.NotNil(t, d.Data)
		d.Nack(true)
	case <-subCtx.Done():
		t.Fatal("timeout 未收到第一次投遞")
	}

	// XAUTOCLAIM 超時後重投
	select {
	case d := <-delCh:
		require.NotNil(t, d.Data)
		assert.Equal(t, notification.ApplicationID, d.Data.ApplicationID)
		d.Ack()
	case <-subCtx.Done():
		t.Fatal("timeout 未收到重投")
	}
}
