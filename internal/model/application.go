package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus 審核狀態類型
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// IsValid 驗證狀態是否有效
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s ApprovalStatus) CanTransitionTo(target ApprovalStatus) bool {
	transitions := map[ApprovalStatus][]ApprovalStatus{
		ApprovalStatusPending:  {ApprovalStatusApproved, ApprovalStatusRejected},
		ApprovalStatusApproved: {},
		ApprovalStatusRejected: {},
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

// PaymentStatus 付款狀態類型，只有審核通過後才會離開 pending
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid 驗證狀態是否有效
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	transitions := map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending:   {PaymentStatusPaid, PaymentStatusCancelled},
		PaymentStatusPaid:      {},
		PaymentStatusCancelled: {},
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

// Application 廣告申請模型：一個廣告主對一組版位的申請
type Application struct {
	ID             int            `json:"id" db:"id"`
	ApplicationID  uuid.UUID      `json:"application_id" db:"application_id"`
	UserID         int            `json:"user_id" db:"user_id"`
	EventID        int            `json:"event_id" db:"event_id"`
	BannerTypeID   int            `json:"banner_type_id" db:"banner_type_id"`
	Title          string         `json:"title" db:"title"`
	ImageURL       string         `json:"image_url" db:"image_url"`
	LinkURL        *string        `json:"link_url,omitempty" db:"link_url"`
	TotalAmount    float64        `json:"total_amount" db:"total_amount"`
	ApprovalStatus ApprovalStatus `json:"approval_status" db:"approval_status"`
	PaymentStatus  PaymentStatus  `json:"payment_status" db:"payment_status"`
	AdminComment   *string        `json:"admin_comment,omitempty" db:"admin_comment"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	PaidAt         *time.Time     `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`

	Slots []*ApplicationSlot `json:"slots,omitempty" db:"-"`
}

// IsTerminal 申請是否已到終態（不能再有任何轉換）
func (a *Application) IsTerminal() bool {
	return a.ApprovalStatus == ApprovalStatusRejected ||
		a.PaymentStatus == PaymentStatusPaid ||
		a.PaymentStatus == PaymentStatusCancelled
}

// ApplicationSlot 申請與版位的 join 紀錄，價格是申請當下的快照
type ApplicationSlot struct {
	ID            int       `json:"id" db:"id"`
	ApplicationID int       `json:"application_id" db:"application_id"`
	SlotID        int       `json:"slot_id" db:"slot_id"`
	SlotDate      time.Time `json:"slot_date" db:"slot_date"`
	Priority      int       `json:"priority" db:"priority"`
	Price         float64   `json:"price" db:"price"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// SlotRequest 申請中的單一版位：日期、優先序與客戶端看到的價格（伺服器會重新驗證）
type SlotRequest struct {
	SlotDate      string  `json:"slot_date" binding:"required"`
	Priority      int     `json:"priority" binding:"required,min=1"`
	ExpectedPrice float64 `json:"expected_price" binding:"required"`
}

// SubmitApplicationRequest 提交申請請求
type SubmitApplicationRequest struct {
	UserID       int           `json:"user_id" binding:"required"`
	EventID      int           `json:"event_id" binding:"required"`
	BannerTypeID int           `json:"banner_type_id" binding:"required"`
	Title        string        `json:"title" binding:"required"`
	ImageURL     string        `json:"image_url" binding:"required"`
	LinkURL      *string       `json:"link_url"`
	Slots        []SlotRequest `json:"slots" binding:"required,min=1,dive"`
}

// DecideApplicationRequest 管理者審核請求
type DecideApplicationRequest struct {
	AdminID int    `json:"admin_id" binding:"required"`
	Comment string `json:"comment"`
}

// PaymentOutcome 金流回調結果
type PaymentOutcome string

const (
	PaymentOutcomeSuccess PaymentOutcome = "SUCCESS"
	PaymentOutcomeFailure PaymentOutcome = "FAILURE"
)

// PaymentCallbackRequest 金流子系統的回調，可能重送、也可能遲到
type PaymentCallbackRequest struct {
	ApplicationID uuid.UUID      `json:"application_id" binding:"required"`
	Outcome       PaymentOutcome `json:"outcome" binding:"required,oneof=SUCCESS FAILURE"`
	Amount        float64        `json:"amount"`
}

// PaymentCallbackResponse 回給金流子系統的處理結果
type PaymentCallbackResponse struct {
	ApplicationID  uuid.UUID `json:"application_id"`
	Accepted       bool      `json:"accepted"`
	RefundRequired bool      `json:"refund_required"`
	Reason         string    `json:"reason,omitempty"`
}
