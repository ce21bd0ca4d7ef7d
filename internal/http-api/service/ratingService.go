package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ratehub/internal/cache"
	"ratehub/internal/http-api/models"
	"ratehub/internal/http-api/repository"
)

type RatingService interface {
	Submit(ctx context.Context, itemID string, value int, voterToken string) (*SubmitResult, error)
	GetAggregate(ctx context.Context, itemID string) (models.RatingAggregate, error)
	HasVoted(ctx context.Context, itemID, voterToken string) (bool, error)
	TopRated(ctx context.Context, limit int) ([]models.ItemAggregate, error)
	Recent(ctx context.Context, limit int) ([]models.RatingEvent, error)
	SetRatingsDisabled(ctx context.Context, itemID string, disabled bool) error
}

// SubmitResult is the success payload of a vote: the fresh aggregate plus the
// tier label for the submitted value.
type SubmitResult struct {
	Aggregate models.RatingAggregate
	Label     string
}

type ratingService struct {
	ratingRepo   repository.RatingRepository
	dedupRepo    repository.DedupRepository
	settingsRepo repository.SettingsRepository
	cache        cache.AggregateCache
	cacheTTL     time.Duration
	dedupTTL     time.Duration
	logger       *slog.Logger
}

func NewRatingService(
	ratingRepo repository.RatingRepository,
	dedupRepo repository.DedupRepository,
	settingsRepo repository.SettingsRepository,
	aggCache cache.AggregateCache,
	cacheTTL, dedupTTL time.Duration,
	logger *slog.Logger,
) RatingService {
	return &ratingService{
		ratingRepo:   ratingRepo,
		dedupRepo:    dedupRepo,
		settingsRepo: settingsRepo,
		cache:        aggCache,
		cacheTTL:     cacheTTL,
		dedupTTL:     dedupTTL,
		logger:       logger,
	}
}

// GetAggregate serves the aggregate read-through the cache. A hit and a miss
// are indistinguishable to the caller; a store failure propagates instead of
// degrading to a zeroed aggregate.
func (s *ratingService) GetAggregate(ctx context.Context, itemID string) (models.RatingAggregate, error) {
	cached, err := s.cache.Get(ctx, itemID)
	if err != nil {
		// Cache trouble degrades to a store read.
		s.logger.Warn("aggregate cache read failed", "item_id", itemID, "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	agg, err := s.ratingRepo.Aggregate(ctx, itemID)
	if err != nil {
		return models.RatingAggregate{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := s.cache.Set(ctx, itemID, agg, s.cacheTTL); err != nil {
		s.logger.Warn("aggregate cache write failed", "item_id", itemID, "error", err)
	}

	return agg, nil
}

// HasVoted reports whether a live dedup record blocks the pair.
func (s *ratingService) HasVoted(ctx context.Context, itemID, voterToken string) (bool, error) {
	voted, err := s.dedupRepo.HasVoted(ctx, itemID, voterToken)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return voted, nil
}

// Submit runs the full vote pipeline: settings gate, dedup gate, validation,
// append, dedup claim, cache eviction, aggregate recompute.
//
// Two near-simultaneous votes from the same token can both pass the dedup
// read before either claims the record. The unique index makes exactly one
// Acquire win; the loser is answered AlreadyVoted even though its event was
// already appended. That extra event is an accepted race inherited from the
// cookie-after-insert design, not silently repaired here.
func (s *ratingService) Submit(ctx context.Context, itemID string, value int, voterToken string) (*SubmitResult, error) {
	disabled, err := s.settingsRepo.RatingsDisabled(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if disabled {
		return nil, ErrRatingsDisabled
	}

	voted, err := s.HasVoted(ctx, itemID, voterToken)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrAlreadyVoted
	}

	if value < 1 || value > 5 {
		return nil, ErrInvalidValue
	}

	if _, err := s.ratingRepo.Append(ctx, itemID, value, voterToken); err != nil {
		if errors.Is(err, repository.ErrInvalidValue) {
			return nil, ErrInvalidValue
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	acquired, err := s.dedupRepo.Acquire(ctx, itemID, voterToken, s.dedupTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	// Evict rather than update in place: a racing writer may have computed a
	// stale aggregate before our append landed.
	if err := s.cache.Delete(ctx, itemID); err != nil {
		s.logger.Warn("aggregate cache eviction failed", "item_id", itemID, "error", err)
	}

	if !acquired {
		// Lost the dedup race after appending; see the note above.
		return nil, ErrAlreadyVoted
	}

	agg, err := s.GetAggregate(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return &SubmitResult{Aggregate: agg, Label: LabelFor(value)}, nil
}

func (s *ratingService) TopRated(ctx context.Context, limit int) ([]models.ItemAggregate, error) {
	items, err := s.ratingRepo.TopRated(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return items, nil
}

func (s *ratingService) Recent(ctx context.Context, limit int) ([]models.RatingEvent, error) {
	events, err := s.ratingRepo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return events, nil
}

func (s *ratingService) SetRatingsDisabled(ctx context.Context, itemID string, disabled bool) error {
	if err := s.settingsRepo.SetRatingsDisabled(ctx, itemID, disabled); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}
