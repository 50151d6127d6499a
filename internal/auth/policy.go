package auth

import (
	"errors"

	"storerating/internal/entity"
)

// Identity is the verified caller attached to a request after token
// validation.
type Identity struct {
	ID    uint
	Name  string
	Email string
	Role  string
}

// IsAdmin 判断用户是否具有管理员权限
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == entity.UserRoleAdmin
}

// IsStoreOwner 判断用户是否为店主
func (i *Identity) IsStoreOwner() bool {
	return i != nil && i.Role == entity.UserRoleStoreOwner
}

// Action enumerates every operation the policy engine decides on.
type Action string

const (
	ActionCreateStore        Action = "store:create"
	ActionUpdateStore        Action = "store:update"
	ActionDeleteStore        Action = "store:delete"
	ActionListUsers          Action = "user:list"
	ActionCreateUser         Action = "user:create"
	ActionReadUser           Action = "user:read"
	ActionUpdateUser         Action = "user:update"
	ActionDeleteUser         Action = "user:delete"
	ActionSubmitRating       Action = "rating:submit"
	ActionDeleteRating       Action = "rating:delete"
	ActionListAllRatings     Action = "rating:list-all"
	ActionListStoreRatings   Action = "rating:list-store"
	ActionViewDashboard      Action = "dashboard:global"
	ActionViewStoreDashboard Action = "dashboard:store"
)

// Resource carries the identity-scoping data a decision needs.
// OwnerID is the user that owns or authored the target resource: the
// user record's own ID, the store's owner, or the rating's author.
// Zero means unowned.
type Resource struct {
	OwnerID uint
}

// OwnedBy builds a Resource for an owner reference that may be nil.
func OwnedBy(ownerID *uint) Resource {
	if ownerID == nil {
		return Resource{}
	}
	return Resource{OwnerID: *ownerID}
}

// Decision errors. Handlers map ErrUnauthenticated to 401 and
// ErrForbidden to 403.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("operation not allowed")
)

// Authorize decides whether identity may perform action on resource.
// It is stateless; every request-level guard funnels through here so
// the role rules live in one place.
func Authorize(identity *Identity, action Action, resource Resource) error {
	if identity == nil || identity.ID == 0 {
		return ErrUnauthenticated
	}

	switch action {
	case ActionCreateStore, ActionDeleteStore,
		ActionListUsers, ActionCreateUser, ActionDeleteUser,
		ActionListAllRatings, ActionViewDashboard:
		if identity.IsAdmin() {
			return nil
		}
		return ErrForbidden

	case ActionReadUser, ActionUpdateUser:
		if identity.IsAdmin() || identity.ID == resource.OwnerID {
			return nil
		}
		return ErrForbidden

	case ActionUpdateStore:
		if identity.IsAdmin() || identity.ID == resource.OwnerID {
			return nil
		}
		return ErrForbidden

	case ActionSubmitRating:
		// Exactly the user role; admins and store owners do not rate.
		if identity.Role == entity.UserRoleUser {
			return nil
		}
		return ErrForbidden

	case ActionDeleteRating:
		if identity.IsAdmin() || identity.ID == resource.OwnerID {
			return nil
		}
		return ErrForbidden

	case ActionViewStoreDashboard:
		if identity.IsStoreOwner() && identity.ID == resource.OwnerID {
			return nil
		}
		return ErrForbidden

	case ActionListStoreRatings:
		// A store owner sees only their own store's ratings; other
		// authenticated roles may browse any store's ratings.
		if identity.IsStoreOwner() && identity.ID != resource.OwnerID {
			return ErrForbidden
		}
		return nil
	}

	return ErrForbidden
}
