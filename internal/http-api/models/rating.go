package models

import "time"

// RatingEvent is one vote cast against a content item. Rows are append-only;
// there is no update or delete path.
type RatingEvent struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ItemID      string    `json:"item_id" gorm:"not null;index"`
	Value       int       `json:"value" gorm:"not null;check:value >= 1 AND value <= 5"`
	VoterToken  string    `json:"-" gorm:"not null"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"autoCreateTime"`
}

func (RatingEvent) TableName() string {
	return "rating_events"
}

// RatingAggregate is the derived summary for an item. Average carries the raw
// unrounded mean; rounding happens only at the presentation edge.
type RatingAggregate struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// RoundedStars maps the raw average onto a whole-star value in [0,5].
func (a RatingAggregate) RoundedStars() int {
	if a.Count == 0 {
		return 0
	}
	stars := int(a.Average + 0.5)
	if stars > 5 {
		stars = 5
	}
	return stars
}

// ItemAggregate pairs an item with its aggregate, for ranked listings.
type ItemAggregate struct {
	ItemID  string  `json:"item_id"`
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

func (i ItemAggregate) Aggregate() RatingAggregate {
	return RatingAggregate{Count: i.Count, Average: i.Average}
}
