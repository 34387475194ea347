package model

import (
	"fmt"
	"time"
)

// SlotStatus 版位狀態類型
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusLocked    SlotStatus = "locked"
	SlotStatusSold      SlotStatus = "sold"
)

// IsValid 驗證狀態是否有效
func (s SlotStatus) IsValid() bool {
	switch s {
	case SlotStatusAvailable, SlotStatusLocked, SlotStatusSold:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s SlotStatus) CanTransitionTo(target SlotStatus) bool {
	transitions := map[SlotStatus][]SlotStatus{
		SlotStatusAvailable: {SlotStatusLocked},
		SlotStatusLocked:    {SlotStatusAvailable, SlotStatusSold},
		SlotStatusSold:      {}, // 售出即終態
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// SlotKey 版位的業務唯一鍵：版型 x 日期 x 優先序
type SlotKey struct {
	SlotDate time.Time `json:"slot_date"`
	Priority int       `json:"priority"`
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s#p%d", k.SlotDate.Format("2006-01-02"), k.Priority)
}

// Slot 廣告版位模型，同一個 (banner_type_id, slot_date, priority) 只會有一列
type Slot struct {
	ID           int        `json:"id" db:"id"`
	BannerTypeID int        `json:"banner_type_id" db:"banner_type_id"`
	SlotDate     time.Time  `json:"slot_date" db:"slot_date"`
	Priority     int        `json:"priority" db:"priority"`
	Quota        int        `json:"quota" db:"quota"`
	Price        float64    `json:"price" db:"price"`
	Status       SlotStatus `json:"status" db:"status"`
	LockedBy     *int       `json:"locked_by,omitempty" db:"locked_by"`
	LockedUntil  *time.Time `json:"locked_until,omitempty" db:"locked_until"`
	SoldBannerID *int       `json:"sold_banner_id,omitempty" db:"sold_banner_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Key 回傳版位的業務唯一鍵
func (s *Slot) Key() SlotKey {
	return SlotKey{SlotDate: s.SlotDate, Priority: s.Priority}
}

// HoldExpired 檢查鎖定是否已過期；過期的鎖定視同可再被取得
func (s *Slot) HoldExpired(now time.Time) bool {
	return s.Status == SlotStatusLocked && s.LockedUntil != nil && s.LockedUntil.Before(now)
}

// AcquirableBy 檢查 holder 是否能取得此版位：
// 可用、自己已持有且未過期（冪等重鎖）、或別人的鎖定已過期（就地回收）
func (s *Slot) AcquirableBy(holderID int, now time.Time) bool {
	switch s.Status {
	case SlotStatusAvailable:
		return true
	case SlotStatusLocked:
		if s.LockedBy != nil && *s.LockedBy == holderID && !s.HoldExpired(now) {
			return true
		}
		return s.HoldExpired(now)
	}
	return false
}

// SoldSlotResponse 售出版位回應，附帶上架中的 banner 資訊
type SoldSlotResponse struct {
	SlotID   int       `json:"slot_id"`
	SlotDate time.Time `json:"slot_date"`
	Priority int       `json:"priority"`
	Price    float64   `json:"price"`
	Banner   *Banner   `json:"banner"`
}
