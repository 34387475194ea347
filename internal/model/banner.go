package model

import (
	"time"

	"github.com/google/uuid"
)

// Banner 售出後才會產生的上架素材，由申請的內容衍生
type Banner struct {
	ID            int       `json:"id" db:"id"`
	BannerID      uuid.UUID `json:"banner_id" db:"banner_id"`
	ApplicationID int       `json:"application_id" db:"application_id"`
	BannerTypeID  int       `json:"banner_type_id" db:"banner_type_id"`
	Title         string    `json:"title" db:"title"`
	ImageURL      string    `json:"image_url" db:"image_url"`
	LinkURL       *string   `json:"link_url,omitempty" db:"link_url"`
	ActiveFrom    time.Time `json:"active_from" db:"active_from"`
	ActiveUntil   time.Time `json:"active_until" db:"active_until"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
