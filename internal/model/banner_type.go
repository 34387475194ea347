package model

import (
	"time"

	"github.com/google/uuid"
)

// BannerType 廣告版型（例如主視覺、側邊欄），版位都掛在某個版型底下
type BannerType struct {
	ID           int       `json:"id" db:"id"`
	BannerTypeID uuid.UUID `json:"banner_type_id" db:"banner_type_id"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Width        int       `json:"width" db:"width"`
	Height       int       `json:"height" db:"height"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type UpdateBannerTypeParams struct {
	Name        *string
	Description *string
}
