package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rktclgh/fairplay-banner/internal/model"

	"github.com/redis/go-redis/v9"
)

const calendarTTL = 30 * time.Second

// CalendarCache 行事曆顯示快取。只給查詢介面用，
// 訂位決策一律走資料庫，不會讀這裡。
type CalendarCache interface {
	// 讀取：快取未命中時 ok 為 false
	GetAvailability(ctx context.Context, bannerTypeID int, from, to time.Time) ([]*model.Slot, bool, error)
	// 寫入：短 TTL，允許稍微過時的畫面
	SetAvailability(ctx context.Context, bannerTypeID int, from, to time.Time, slots []*model.Slot) error
	// 失效：版位狀態轉換後把該版型的快取全部作廢
	InvalidateType(ctx context.Context, bannerTypeID int) error
}

type RedisCalendarCacheImpl struct {
	client *redis.Client
}

func NewRedisCalendarCache(client *redis.Client) CalendarCache {
	return &RedisCalendarCacheImpl{
		client: client,
	}
}

// 版本 key：InvalidateType 只遞增版本，讓舊版本的 entry 自然過期
func (c *RedisCalendarCacheImpl) versionKey(bannerTypeID int) string {
	return fmt.Sprintf("calendar:%d:version", bannerTypeID)
}

func (c *RedisCalendarCacheImpl) entryKey(bannerTypeID int, version int64, from, to time.Time) string {
	return fmt.Sprintf("calendar:%d:v%d:%s:%s",
		bannerTypeID, version, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func (c *RedisCalendarCacheImpl) currentVersion(ctx context.Context, bannerTypeID int) (int64, error) {
	version, err := c.client.Get(ctx, c.versionKey(bannerTypeID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return version, err
}

func (c *RedisCalendarCacheImpl) GetAvailability(ctx context.Context, bannerTypeID int, from, to time.Time) ([]*model.Slot, bool, error) {
	version, err := c.currentVersion(ctx, bannerTypeID)
	if err != nil {
		return nil, false, err
	}

	payload, err := c.client.Get(ctx, c.entryKey(bannerTypeID, version, from, to)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var slots []*model.Slot
	if err := json.Unmarshal(payload, &slots); err != nil {
		return nil, false, fmt.Errorf("unmarshal calendar entry: %w", err)
	}

	return slots, true, nil
}

func (c *RedisCalendarCacheImpl) SetAvailability(ctx context.Context, bannerTypeID int, from, to time.Time, slots []*model.Slot) error {
	version, err := c.currentVersion(ctx, bannerTypeID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("marshal calendar entry: %w", err)
	}

	return c.client.Set(ctx, c.entryKey(bannerTypeID, version, from, to), payload, calendarTTL).Err()
}

func (c *RedisCalendarCacheImpl) InvalidateType(ctx context.Context, bannerTypeID int) error {
	return c.client.Incr(ctx, c.versionKey(bannerTypeID)).Err()
}
