package repository

import (
	"context"
	"errors"
	"fmt"

	"ratehub/internal/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	// RatingsDisabled reports whether ratings are switched off for the item.
	// Items without a settings row accept ratings.
	RatingsDisabled(ctx context.Context, itemID string) (bool, error)
	SetRatingsDisabled(ctx context.Context, itemID string, disabled bool) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) RatingsDisabled(ctx context.Context, itemID string) (bool, error) {
	var settings models.ItemSettings

	err := r.db.WithContext(ctx).First(&settings, "item_id = ?", itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load item settings: %w", err)
	}

	return settings.RatingsDisabled, nil
}

func (r *settingsRepository) SetRatingsDisabled(ctx context.Context, itemID string, disabled bool) error {
	settings := &models.ItemSettings{
		ItemID:          itemID,
		RatingsDisabled: disabled,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"ratings_disabled", "updated_at"}),
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("save item settings: %w", err)
	}

	return nil
}
