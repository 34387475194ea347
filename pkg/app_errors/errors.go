package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBannerTypeNotFound  = errors.New("banner type not found")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrBannerNotFound      = errors.New("banner not found")

	ErrSlotAlreadyExists   = errors.New("slot already exists")
	ErrSlotUnavailable     = errors.New("slot unavailable")
	ErrConfirmMismatch     = errors.New("confirm mismatch")
	ErrPriceMismatch       = errors.New("price mismatch")
	ErrAmountMismatch      = errors.New("amount mismatch")
	ErrInvalidStatus       = errors.New("invalid status transition")
	ErrRefundRequired      = errors.New("refund required")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternalServerError = errors.New("internal server error")
)

// SlotConflictError 帶有衝突版位 key 的競爭錯誤，讓上層能告訴使用者是哪些版位搶不到
type SlotConflictError struct {
	Op   string // "lock" 或 "confirm"
	Keys []string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("%s failed for slots: %s", e.Op, strings.Join(e.Keys, ", "))
}

// Unwrap 讓 errors.Is 能比對到對應的 sentinel error
func (e *SlotConflictError) Unwrap() error {
	if e.Op == "confirm" {
		return ErrConfirmMismatch
	}
	return ErrSlotUnavailable
}
