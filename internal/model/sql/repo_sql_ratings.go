package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storerating/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ratingDetailQuery joins author and store names onto rating rows.
func (r *GormRepository) ratingDetailQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("ratings").
		Select("ratings.id, ratings.score, ratings.created_at, ratings.user_id, users.name AS user_name, ratings.store_id, stores.name AS store_name").
		Joins("JOIN users ON users.id = ratings.user_id").
		Joins("JOIN stores ON stores.id = ratings.store_id").
		Order("ratings.created_at DESC")
}

// UpsertRating writes the caller's score for a store as one atomic
// conditional statement: an insert that falls back to updating the
// existing row when the (user_id, store_id) unique index fires. Two
// concurrent submissions for the same pair therefore never produce a
// second row; the later writer updates the earlier writer's row.
//
// The returned flag only reports whether a row existed before the
// write. It is decided by a separate lookup, so under a race the
// status word may read "created" for both writers; the row invariant
// itself is carried entirely by the constraint.
func (r *GormRepository) UpsertRating(ctx context.Context, rating *entity.DbRating) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repository not initialised")
	}
	if rating == nil || rating.UserID == 0 || rating.StoreID == 0 {
		return false, fmt.Errorf("invalid rating")
	}

	var existing entity.DbRating
	err := r.db.WithContext(ctx).
		Select("id").
		Where("user_id = ? AND store_id = ?", rating.UserID, rating.StoreID).
		First(&existing).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "store_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		return false, err
	}

	// Reload so the caller sees the surviving row's id and timestamps
	// regardless of which branch the statement took.
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND store_id = ?", rating.UserID, rating.StoreID).
		First(rating).Error; err != nil {
		return false, err
	}
	return created, nil
}

// GetRatingByID loads a rating by ID.
func (r *GormRepository) GetRatingByID(ctx context.Context, id uint) (*entity.DbRating, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid rating id")
	}
	var rating entity.DbRating
	if err := r.db.WithContext(ctx).First(&rating, id).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}

// DeleteRating removes a rating by ID.
func (r *GormRepository) DeleteRating(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid rating id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbRating{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListRatings returns every rating with author and store names.
func (r *GormRepository) ListRatings(ctx context.Context) ([]entity.RatingDetail, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var ratings []entity.RatingDetail
	if err := r.ratingDetailQuery(ctx).Scan(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

// ListRatingsByUser returns the ratings authored by one user.
func (r *GormRepository) ListRatingsByUser(ctx context.Context, userID uint) ([]entity.RatingDetail, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	var ratings []entity.RatingDetail
	if err := r.ratingDetailQuery(ctx).Where("ratings.user_id = ?", userID).Scan(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

// ListRatingsByStore returns the ratings received by one store.
func (r *GormRepository) ListRatingsByStore(ctx context.Context, storeID uint) ([]entity.RatingDetail, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if storeID == 0 {
		return nil, fmt.Errorf("invalid store id")
	}
	var ratings []entity.RatingDetail
	if err := r.ratingDetailQuery(ctx).Where("ratings.store_id = ?", storeID).Scan(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

// CountRatings returns total rating count.
func (r *GormRepository) CountRatings(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbRating{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// StoreAverageRating computes the arithmetic mean of a store's
// current scores. Nil, not zero, when the store has no ratings.
func (r *GormRepository) StoreAverageRating(ctx context.Context, storeID uint) (*float64, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var avg sql.NullFloat64
	err := r.db.WithContext(ctx).
		Model(&entity.DbRating{}).
		Select("AVG(score)").
		Where("store_id = ?", storeID).
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	value := avg.Float64
	return &value, nil
}

// StoreRatingCount returns the number of ratings a store has.
func (r *GormRepository) StoreRatingCount(ctx context.Context, storeID uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.DbRating{}).
		Where("store_id = ?", storeID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// StoreRatingDistribution returns (score, count) rows ordered by
// score descending. Scores nobody has submitted simply do not appear.
func (r *GormRepository) StoreRatingDistribution(ctx context.Context, storeID uint) ([]entity.RatingBucket, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var buckets []entity.RatingBucket
	err := r.db.WithContext(ctx).
		Model(&entity.DbRating{}).
		Select("score, COUNT(*) AS count").
		Where("store_id = ?", storeID).
		Group("score").
		Order("score DESC").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// AverageRatingsByOwner maps store-owner user IDs to their store's
// average score; owners whose stores have no ratings are absent.
func (r *GormRepository) AverageRatingsByOwner(ctx context.Context, ownerIDs []uint) (map[uint]float64, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	result := make(map[uint]float64, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		OwnerID uint    `gorm:"column:owner_id"`
		Avg     float64 `gorm:"column:avg"`
	}
	err := r.db.WithContext(ctx).
		Table("stores").
		Select("stores.owner_id AS owner_id, AVG(ratings.score) AS avg").
		Joins("JOIN ratings ON ratings.store_id = stores.id").
		Where("stores.owner_id IN ?", ownerIDs).
		Group("stores.owner_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.OwnerID] = row.Avg
	}
	return result, nil
}
