package service

import (
	"context"
	"errors"
	"strings"

	"storerating/internal/entity"
	"storerating/internal/model"
)

// StoreEffect is the store side effect of a role transition.
type StoreEffect int

const (
	// StoreEffectNone leaves store rows untouched.
	StoreEffectNone StoreEffect = iota
	// StoreEffectProvision creates a store owned by the user.
	StoreEffectProvision
	// StoreEffectDeactivate marks the owned store inactive while
	// keeping the row and its ratings.
	StoreEffectDeactivate
)

// roleTransitions maps every (old role, new role) pair to its store
// effect. Pairs not listed, including same-role pairs, have no effect.
var roleTransitions = map[string]map[string]StoreEffect{
	entity.UserRoleUser: {
		entity.UserRoleStoreOwner: StoreEffectProvision,
		entity.UserRoleAdmin:      StoreEffectNone,
	},
	entity.UserRoleStoreOwner: {
		entity.UserRoleUser:  StoreEffectDeactivate,
		entity.UserRoleAdmin: StoreEffectDeactivate,
	},
	entity.UserRoleAdmin: {
		entity.UserRoleUser:       StoreEffectNone,
		entity.UserRoleStoreOwner: StoreEffectProvision,
	},
}

// TransitionEffect resolves the store effect of changing a user's
// role from oldRole to newRole.
func TransitionEffect(oldRole, newRole string) StoreEffect {
	if oldRole == newRole {
		return StoreEffectNone
	}
	return roleTransitions[oldRole][newRole]
}

// RoleService applies admin-issued role changes together with their
// store side effects.
type RoleService struct {
	repo model.Repository
}

// NewRoleService creates a role service instance.
func NewRoleService(repo model.Repository) *RoleService {
	return &RoleService{repo: repo}
}

// ProvisionedStore builds the store row a user receives when becoming
// a store owner, seeded from the user's own details.
func ProvisionedStore(user *entity.DbUser) *entity.DbStore {
	if user == nil {
		return nil
	}
	return &entity.DbStore{
		Name:     user.Name,
		Email:    user.Email,
		Address:  user.Address,
		IsActive: true,
	}
}

// ChangeRole moves user to newRole and applies the transition's store
// effect in one repository transaction. A same-role change is a
// no-op.
func (s *RoleService) ChangeRole(ctx context.Context, user *entity.DbUser, newRole string) error {
	if s == nil || s.repo == nil {
		return errors.New("role service not initialised")
	}
	if user == nil {
		return errors.New("user is nil")
	}
	newRole = strings.TrimSpace(newRole)
	if !entity.IsValidRole(newRole) {
		return errors.New("invalid role")
	}
	if user.Role == newRole {
		return nil
	}

	var provision *entity.DbStore
	deactivate := false
	switch TransitionEffect(user.Role, newRole) {
	case StoreEffectProvision:
		provision = ProvisionedStore(user)
	case StoreEffectDeactivate:
		deactivate = true
	}

	if err := s.repo.UpdateUserRole(ctx, user.ID, newRole, provision, deactivate); err != nil {
		return err
	}
	user.Role = newRole
	return nil
}
