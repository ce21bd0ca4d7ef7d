package repository

import (
	"context"
	"errors"
	"fmt"

	"ratehub/internal/http-api/models"

	"gorm.io/gorm"
)

// ErrInvalidValue is returned when a rating value falls outside [1,5].
var ErrInvalidValue = errors.New("rating value must be between 1 and 5")

type RatingRepository interface {
	Append(ctx context.Context, itemID string, value int, voterToken string) (*models.RatingEvent, error)
	Aggregate(ctx context.Context, itemID string) (models.RatingAggregate, error)
	TopRated(ctx context.Context, limit int) ([]models.ItemAggregate, error)
	Recent(ctx context.Context, limit int) ([]models.RatingEvent, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Append persists one immutable rating event. It does not consult the dedup
// table and does not touch any cache; both are the service's responsibility.
func (r *ratingRepository) Append(ctx context.Context, itemID string, value int, voterToken string) (*models.RatingEvent, error) {
	if value < 1 || value > 5 {
		return nil, ErrInvalidValue
	}

	event := &models.RatingEvent{
		ItemID:     itemID,
		Value:      value,
		VoterToken: voterToken,
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("append rating: %w", err)
	}
	return event, nil
}

// Aggregate computes count and raw average for an item in a single statement,
// so the pair can never reflect a half-applied concurrent append.
func (r *ratingRepository) Aggregate(ctx context.Context, itemID string) (models.RatingAggregate, error) {
	var row struct {
		Count   int64
		Average float64
	}

	err := r.db.WithContext(ctx).
		Model(&models.RatingEvent{}).
		Select("COUNT(*) as count, COALESCE(AVG(value), 0) as average").
		Where("item_id = ?", itemID).
		Scan(&row).Error
	if err != nil {
		return models.RatingAggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}

	return models.RatingAggregate{Count: row.Count, Average: row.Average}, nil
}

// TopRated returns rated items ordered by average, with ties broken by count
// and then item id for a deterministic listing.
func (r *ratingRepository) TopRated(ctx context.Context, limit int) ([]models.ItemAggregate, error) {
	var rows []models.ItemAggregate

	err := r.db.WithContext(ctx).
		Model(&models.RatingEvent{}).
		Select("item_id, COUNT(*) as count, AVG(value) as average").
		Group("item_id").
		Order("average DESC, count DESC, item_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("top rated: %w", err)
	}

	return rows, nil
}

// Recent returns the newest rating events, most recent first. Insertion order
// breaks submitted_at ties.
func (r *ratingRepository) Recent(ctx context.Context, limit int) ([]models.RatingEvent, error) {
	var events []models.RatingEvent

	err := r.db.WithContext(ctx).
		Order("submitted_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("recent ratings: %w", err)
	}

	return events, nil
}
