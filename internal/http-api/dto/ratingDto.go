package dto

import (
	"math"
	"time"

	"ratehub/internal/http-api/models"
)

// SubmitRatingDTO carries a vote submission.
type SubmitRatingDTO struct {
	Value int `json:"value" binding:"required,min=1,max=5"`
}

// ItemSettingsDTO toggles per-item rating preferences.
type ItemSettingsDTO struct {
	RatingsDisabled *bool `json:"ratings_disabled" binding:"required"`
}

// AggregateResponse is the display form of an aggregate: average rounded to
// one decimal, stars rounded to a whole value. Rounding happens only here.
type AggregateResponse struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
	Stars   int     `json:"stars"`
}

func FromAggregate(agg models.RatingAggregate) AggregateResponse {
	return AggregateResponse{
		Count:   agg.Count,
		Average: math.Round(agg.Average*10) / 10,
		Stars:   agg.RoundedStars(),
	}
}

// SubmitResponse is the success payload of a vote.
type SubmitResponse struct {
	Message    string            `json:"message"`
	RatingData AggregateResponse `json:"rating_data"`
	Label      string            `json:"label"`
}

// TopRatedEntry is one row of the top-rated listing.
type TopRatedEntry struct {
	ItemID  string  `json:"item_id"`
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
	Stars   int     `json:"stars"`
	Label   string  `json:"label"`
}

// RecentRatingResponse is one row of the recent-votes listing. The voter
// token never leaves the service.
type RecentRatingResponse struct {
	ItemID      string    `json:"item_id"`
	Value       int       `json:"value"`
	Label       string    `json:"label"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func FromRatingEvent(event models.RatingEvent, label string) RecentRatingResponse {
	return RecentRatingResponse{
		ItemID:      event.ItemID,
		Value:       event.Value,
		Label:       label,
		SubmittedAt: event.SubmittedAt,
	}
}
