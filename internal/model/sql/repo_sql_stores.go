package sql

import (
	"context"
	"fmt"
	"strings"

	"storerating/internal/entity"

	"gorm.io/gorm"
)

// storeWithRatingQuery joins the per-store average score onto the
// store row. Grouping by the primary key keeps the aggregate valid
// across all three supported dialects.
func (r *GormRepository) storeWithRatingQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("stores").
		Select("stores.*, AVG(ratings.score) AS avg_rating").
		Joins("LEFT JOIN ratings ON ratings.store_id = stores.id").
		Group("stores.id")
}

// CreateStore persists a new store record.
func (r *GormRepository) CreateStore(ctx context.Context, store *entity.DbStore) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if store == nil {
		return fmt.Errorf("store is nil")
	}
	return r.db.WithContext(ctx).Create(store).Error
}

// CreateStoreWithOwner persists a store and, when an owner is set,
// promotes that user to store_owner in the same transaction. The
// unique index on owner_id makes a second store for the same owner
// fail the insert with gorm.ErrDuplicatedKey, so the one-store-per-
// owner rule holds even under concurrent admin requests; a failed
// promotion rolls the insert back.
func (r *GormRepository) CreateStoreWithOwner(ctx context.Context, store *entity.DbStore) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if store == nil {
		return fmt.Errorf("store is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(store).Error; err != nil {
			return err
		}
		if store.OwnerID == nil {
			return nil
		}
		result := tx.Model(&entity.DbUser{}).
			Where("id = ?", *store.OwnerID).
			Update("role", entity.UserRoleStoreOwner)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpdateStore updates an existing store entry.
func (r *GormRepository) UpdateStore(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid store id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbStore{}).Where("id = ?", id).Updates(updates).Error
}

// GetStoreByID loads a store with its computed average rating.
func (r *GormRepository) GetStoreByID(ctx context.Context, id uint) (*entity.StoreWithRating, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid store id")
	}
	var store entity.StoreWithRating
	err := r.storeWithRatingQuery(ctx).Where("stores.id = ?", id).Take(&store).Error
	if err != nil {
		return nil, err
	}
	if store.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &store, nil
}

// GetStoreByOwner resolves a store by its owning user.
func (r *GormRepository) GetStoreByOwner(ctx context.Context, ownerID uint) (*entity.StoreWithRating, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 {
		return nil, fmt.Errorf("invalid owner id")
	}
	var store entity.StoreWithRating
	err := r.storeWithRatingQuery(ctx).Where("stores.owner_id = ?", ownerID).Take(&store).Error
	if err != nil {
		return nil, err
	}
	if store.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &store, nil
}

// ListStores returns paginated stores with their average ratings.
func (r *GormRepository) ListStores(ctx context.Context, params *entity.StoreQuery) ([]entity.StoreWithRating, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	countQuery := r.db.WithContext(ctx).Model(&entity.DbStore{})
	listQuery := r.storeWithRatingQuery(ctx)

	if params == nil || !params.IncludeInactive {
		countQuery = countQuery.Where("is_active = ?", true)
		listQuery = listQuery.Where("stores.is_active = ?", true)
	}
	if params != nil {
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			countQuery = countQuery.Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ?", kw, kw)
			listQuery = listQuery.Where("LOWER(stores.name) LIKE ? OR LOWER(stores.address) LIKE ?", kw, kw)
		}
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page := 1
	pageSize := 20
	if params != nil {
		if params.Page > 0 {
			page = int(params.Page)
		}
		if params.PageSize > 0 {
			pageSize = int(params.PageSize)
		}
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var stores []entity.StoreWithRating
	if err := listQuery.Order("stores.created_at DESC").Offset(offset).Limit(pageSize).Scan(&stores).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return stores, meta, nil
}

// DeleteStoreCascade removes a store and all its ratings in one
// transaction.
func (r *GormRepository) DeleteStoreCascade(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid store id")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", id).Delete(&entity.DbRating{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.DbStore{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountStores returns total store count.
func (r *GormRepository) CountStores(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbStore{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
