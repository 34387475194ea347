package model

import "time"

// NotificationType 通知類型，對應申請的三個對外可見的轉換
type NotificationType string

const (
	NotificationPaid      NotificationType = "paid"
	NotificationRejected  NotificationType = "rejected"
	NotificationCancelled NotificationType = "cancelled"
)

// Notification 要送給通知子系統的事件，投遞失敗不影響版位狀態
type Notification struct {
	Type          NotificationType `json:"type"`
	ApplicationID int              `json:"application_id"`
	UserID        int              `json:"user_id"`
	Message       string           `json:"message"`
	CreatedAt     time.Time        `json:"created_at"`
}
