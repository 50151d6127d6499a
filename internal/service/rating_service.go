package service

import (
	"context"
	"errors"
	"fmt"

	"storerating/internal/auth"
	"storerating/internal/entity"
	"storerating/internal/model"

	"gorm.io/gorm"
)

// Ledger errors surfaced to the transport layer.
var (
	ErrInvalidScore   = fmt.Errorf("score must be between %d and %d", entity.RatingScoreMin, entity.RatingScoreMax)
	ErrStoreNotFound  = errors.New("store not found")
	ErrRatingNotFound = errors.New("rating not found")
)

// RatingService is the rating ledger: it owns the submit and delete
// protocols and the one-rating-per-(user,store) invariant.
type RatingService struct {
	repo model.Repository
}

// NewRatingService creates a rating service instance.
func NewRatingService(repo model.Repository) *RatingService {
	return &RatingService{repo: repo}
}

// Submit records identity's score for a store, creating the rating on
// first submission and updating it in place on every later one. The
// write itself is a single conditional statement in the repository, so
// concurrent submissions for the same pair collapse onto one row.
func (s *RatingService) Submit(ctx context.Context, identity *auth.Identity, storeID uint, score int) (*entity.DbRating, string, error) {
	if s == nil || s.repo == nil {
		return nil, "", errors.New("rating service not initialised")
	}
	if score < entity.RatingScoreMin || score > entity.RatingScoreMax {
		return nil, "", ErrInvalidScore
	}
	if err := auth.Authorize(identity, auth.ActionSubmitRating, auth.Resource{}); err != nil {
		return nil, "", err
	}

	if _, err := s.repo.GetStoreByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrStoreNotFound
		}
		return nil, "", err
	}

	rating := &entity.DbRating{
		UserID:  identity.ID,
		StoreID: storeID,
		Score:   score,
	}
	created, err := s.repo.UpsertRating(ctx, rating)
	if err != nil {
		return nil, "", err
	}

	status := entity.RatingStatusUpdated
	if created {
		status = entity.RatingStatusCreated
	}
	return rating, status, nil
}

// Delete removes a rating on behalf of its author or an admin. The
// ownership check runs after the lookup but the denial does not say
// whether the rating exists to callers without visibility: both paths
// answer through the policy engine before any detail is returned.
func (s *RatingService) Delete(ctx context.Context, identity *auth.Identity, ratingID uint) error {
	if s == nil || s.repo == nil {
		return errors.New("rating service not initialised")
	}

	rating, err := s.repo.GetRatingByID(ctx, ratingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRatingNotFound
		}
		return err
	}

	if err := auth.Authorize(identity, auth.ActionDeleteRating, auth.Resource{OwnerID: rating.UserID}); err != nil {
		return err
	}

	if err := s.repo.DeleteRating(ctx, rating.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRatingNotFound
		}
		return err
	}
	return nil
}

// OwnerStats assembles the store-owner dashboard from the ledger's
// read-side queries. Each number is consistent with the ledger at its
// own read time; no cross-call snapshot is promised.
func (s *RatingService) OwnerStats(ctx context.Context, storeID uint) (*entity.StoreOwnerStats, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("rating service not initialised")
	}

	count, err := s.repo.StoreRatingCount(ctx, storeID)
	if err != nil {
		return nil, err
	}
	avg, err := s.repo.StoreAverageRating(ctx, storeID)
	if err != nil {
		return nil, err
	}
	distribution, err := s.repo.StoreRatingDistribution(ctx, storeID)
	if err != nil {
		return nil, err
	}

	return &entity.StoreOwnerStats{
		StoreID:      storeID,
		RatingCount:  count,
		AvgRating:    avg,
		Distribution: distribution,
	}, nil
}
