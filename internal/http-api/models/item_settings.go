package models

import "time"

// ItemSettings holds per-item rating preferences. Items without a row use the
// defaults (ratings enabled).
type ItemSettings struct {
	ItemID          string    `json:"item_id" gorm:"primaryKey"`
	RatingsDisabled bool      `json:"ratings_disabled" gorm:"not null;default:false"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ItemSettings) TableName() string {
	return "item_settings"
}
