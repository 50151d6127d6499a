package model

import (
	"context"

	"storerating/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *entity.DbUser) error
	CreateUserWithStore(ctx context.Context, user *entity.DbUser, store *entity.DbStore) error
	UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) error
	UpdateUserRole(ctx context.Context, id uint, newRole string, provision *entity.DbStore, deactivateOwned bool) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	DeleteUserCascade(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)

	// 店铺管理
	CreateStore(ctx context.Context, store *entity.DbStore) error
	CreateStoreWithOwner(ctx context.Context, store *entity.DbStore) error
	UpdateStore(ctx context.Context, id uint, updates map[string]interface{}) error
	GetStoreByID(ctx context.Context, id uint) (*entity.StoreWithRating, error)
	GetStoreByOwner(ctx context.Context, ownerID uint) (*entity.StoreWithRating, error)
	ListStores(ctx context.Context, params *entity.StoreQuery) ([]entity.StoreWithRating, *entity.Meta, error)
	DeleteStoreCascade(ctx context.Context, id uint) error
	CountStores(ctx context.Context) (int64, error)

	// 评分
	UpsertRating(ctx context.Context, rating *entity.DbRating) (created bool, err error)
	GetRatingByID(ctx context.Context, id uint) (*entity.DbRating, error)
	DeleteRating(ctx context.Context, id uint) error
	ListRatings(ctx context.Context) ([]entity.RatingDetail, error)
	ListRatingsByUser(ctx context.Context, userID uint) ([]entity.RatingDetail, error)
	ListRatingsByStore(ctx context.Context, storeID uint) ([]entity.RatingDetail, error)
	CountRatings(ctx context.Context) (int64, error)

	// 聚合统计，始终按需计算，不做缓存
	StoreAverageRating(ctx context.Context, storeID uint) (*float64, error)
	StoreRatingCount(ctx context.Context, storeID uint) (int64, error)
	StoreRatingDistribution(ctx context.Context, storeID uint) ([]entity.RatingBucket, error)
	AverageRatingsByOwner(ctx context.Context, ownerIDs []uint) (map[uint]float64, error)
}
