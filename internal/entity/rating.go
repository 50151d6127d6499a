package entity

import "time"

// DbRating is a single user's score for a single store. The composite
// unique index carries the at-most-one-rating-per-(user,store)
// invariant; the upsert path relies on it.
type DbRating struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:uniq_ratings_user_store" json:"user_id"`
	StoreID   uint      `gorm:"column:store_id;not null;uniqueIndex:uniq_ratings_user_store" json:"store_id"`
	Score     int       `gorm:"column:score;not null" json:"score"`
}

// TableName overrides default pluralised name.
func (DbRating) TableName() string {
	return "ratings"
}

// RatingScoreMin and RatingScoreMax bound a valid score.
const (
	RatingScoreMin = 1
	RatingScoreMax = 5
)

// RatingDetail is a rating joined with the author and store names.
type RatingDetail struct {
	ID        uint      `gorm:"column:id" json:"id"`
	Score     int       `gorm:"column:score" json:"score"`
	UserID    uint      `gorm:"column:user_id" json:"user_id"`
	UserName  string    `gorm:"column:user_name" json:"user_name"`
	StoreID   uint      `gorm:"column:store_id" json:"store_id"`
	StoreName string    `gorm:"column:store_name" json:"store_name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// RatingBucket is one row of a per-store score distribution.
type RatingBucket struct {
	Score int   `gorm:"column:score" json:"score"`
	Count int64 `gorm:"column:count" json:"count"`
}

type RatingSubmitRequest struct {
	StoreID uint `json:"store_id" binding:"required"`
	Score   int  `json:"score" binding:"required"`
}

type RatingSubmitResponse struct {
	ID      uint   `json:"id"`
	UserID  uint   `json:"user_id"`
	StoreID uint   `json:"store_id"`
	Score   int    `json:"score"`
	Status  string `json:"status"`
}

// Upsert outcome reported to clients.
const (
	RatingStatusCreated = "created"
	RatingStatusUpdated = "updated"
)

// DashboardStats is the admin overview.
type DashboardStats struct {
	UserCount   int64 `json:"user_count"`
	StoreCount  int64 `json:"store_count"`
	RatingCount int64 `json:"rating_count"`
}

// StoreOwnerStats is the per-store owner dashboard.
type StoreOwnerStats struct {
	StoreID      uint           `json:"store_id"`
	RatingCount  int64          `json:"rating_count"`
	AvgRating    *float64       `json:"avg_rating"`
	Distribution []RatingBucket `json:"distribution"`
}
