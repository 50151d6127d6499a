package entity

import "time"

// DbStore represents a persisted store. OwnerID references the user
// that runs the store; it is nil for admin-created unassigned stores.
// The unique index on owner_id carries the one-store-per-owner rule
// the same way the ratings index carries one-rating-per-(user,store).
type DbStore struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"column:name;type:varchar(60);not null" json:"name"`
	Email     string    `gorm:"column:email;type:varchar(255);not null" json:"email"`
	Address   string    `gorm:"column:address;type:varchar(400)" json:"address"`
	OwnerID   *uint     `gorm:"column:owner_id;uniqueIndex:uniq_stores_owner" json:"owner_id"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	PhotoPath string    `gorm:"column:photo_path;type:varchar(512)" json:"-"`
}

// TableName overrides default pluralised name.
func (DbStore) TableName() string {
	return "stores"
}

// StoreSummary is the store representation returned to clients.
// AvgRating is nil when the store has no ratings yet.
type StoreSummary struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	OwnerID   *uint     `json:"owner_id"`
	IsActive  bool      `json:"is_active"`
	AvgRating *float64  `json:"avg_rating"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreWithRating carries a store row together with its joined
// average score; scanned from the list/detail queries.
type StoreWithRating struct {
	DbStore
	AvgRating *float64 `gorm:"column:avg_rating" json:"avg_rating"`
}

// StoreQuery supports listing stores with pagination.
type StoreQuery struct {
	BaseParams
	Keyword         string `json:"keyword" form:"keyword" query:"keyword"`
	IncludeInactive bool   `json:"include_inactive" form:"include_inactive" query:"include_inactive"`
}

type StoreCreateRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Address string `json:"address"`
	OwnerID *uint  `json:"owner_id"`
}

type StoreUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

type StoreListResponse struct {
	Stores []StoreSummary `json:"stores"`
	Meta   *Meta          `json:"meta"`
}
