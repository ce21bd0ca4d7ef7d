package models

import "time"

// DedupRecord marks that a voter token has already rated an item. The unique
// composite index is what actually enforces the one-vote rule; the record
// expires after the retention window and the pair may vote again.
type DedupRecord struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ItemID     string    `json:"item_id" gorm:"not null;uniqueIndex:idx_dedup_item_voter"`
	VoterToken string    `json:"-" gorm:"not null;uniqueIndex:idx_dedup_item_voter"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null;index"`
}

func (DedupRecord) TableName() string {
	return "rating_dedup"
}

// Live reports whether the record still blocks a new vote at the given time.
func (d DedupRecord) Live(now time.Time) bool {
	return d.ExpiresAt.After(now)
}
