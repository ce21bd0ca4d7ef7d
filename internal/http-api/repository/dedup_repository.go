package repository

import (
	"context"
	"fmt"
	"time"

	"ratehub/internal/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DedupRepository interface {
	// Acquire claims the (itemID, voterToken) pair for the given retention
	// window. It returns false when a live record already holds the pair.
	Acquire(ctx context.Context, itemID, voterToken string, ttl time.Duration) (bool, error)
	HasVoted(ctx context.Context, itemID, voterToken string) (bool, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type dedupRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDedupRepository(db *gorm.DB) DedupRepository {
	return &dedupRepository{db: db, now: time.Now}
}

// Acquire is the storage-layer vote gate. The unique index on
// (item_id, voter_token) makes the insert atomic: of two racing writers
// exactly one gets RowsAffected == 1. Expired rows for the pair are cleared
// inside the same transaction so a returning voter can claim the pair again.
func (r *dedupRepository) Acquire(ctx context.Context, itemID, voterToken string, ttl time.Duration) (bool, error) {
	now := r.now()
	acquired := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("item_id = ? AND voter_token = ? AND expires_at <= ?", itemID, voterToken, now).
			Delete(&models.DedupRecord{}).Error; err != nil {
			return err
		}

		record := &models.DedupRecord{
			ItemID:     itemID,
			VoterToken: voterToken,
			CreatedAt:  now,
			ExpiresAt:  now.Add(ttl),
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "voter_token"}},
			DoNothing: true,
		}).Create(record)
		if result.Error != nil {
			return result.Error
		}

		acquired = result.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("acquire dedup record: %w", err)
	}

	return acquired, nil
}

// HasVoted reports whether a live dedup record exists for the pair.
func (r *dedupRepository) HasVoted(ctx context.Context, itemID, voterToken string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.DedupRecord{}).
		Where("item_id = ? AND voter_token = ? AND expires_at > ?", itemID, voterToken, r.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check dedup record: %w", err)
	}

	return count > 0, nil
}

// PurgeExpired deletes records past their expiry and returns how many were
// removed. Expired rows are already invisible to HasVoted; this just keeps
// the table bounded.
func (r *dedupRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", r.now()).
		Delete(&models.DedupRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge dedup records: %w", result.Error)
	}

	return result.RowsAffected, nil
}
