package service

import (
	"context"
	"errors"
	"testing"

	"storerating/internal/entity"

	"gorm.io/gorm"
)

func TestTransitionEffect(t *testing.T) {
	tests := []struct {
		name    string
		oldRole string
		newRole string
		want    StoreEffect
	}{
		{"用户升店主开店", entity.UserRoleUser, entity.UserRoleStoreOwner, StoreEffectProvision},
		{"用户升管理员无副作用", entity.UserRoleUser, entity.UserRoleAdmin, StoreEffectNone},
		{"店主降用户停店", entity.UserRoleStoreOwner, entity.UserRoleUser, StoreEffectDeactivate},
		{"店主升管理员停店", entity.UserRoleStoreOwner, entity.UserRoleAdmin, StoreEffectDeactivate},
		{"管理员降用户无副作用", entity.UserRoleAdmin, entity.UserRoleUser, StoreEffectNone},
		{"管理员转店主开店", entity.UserRoleAdmin, entity.UserRoleStoreOwner, StoreEffectProvision},
		{"同角色无副作用", entity.UserRoleStoreOwner, entity.UserRoleStoreOwner, StoreEffectNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransitionEffect(tt.oldRole, tt.newRole); got != tt.want {
				t.Fatalf("expected effect %d, got %d", tt.want, got)
			}
		})
	}
}

func TestProvisionedStoreSeedsFromUser(t *testing.T) {
	user := &entity.DbUser{
		ID:      7,
		Name:    "Owner Account Seeding The Store",
		Email:   "owner@example.com",
		Address: "12 Market Street",
	}
	store := ProvisionedStore(user)
	if store == nil {
		t.Fatal("expected store to be built")
	}
	if store.Name != user.Name || store.Email != user.Email || store.Address != user.Address {
		t.Fatalf("expected store seeded from user details, got %+v", store)
	}
	if !store.IsActive {
		t.Fatal("expected provisioned store to start active")
	}
	if ProvisionedStore(nil) != nil {
		t.Fatal("expected nil store for nil user")
	}
}

func TestChangeRolePromotionProvisionsStore(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewRoleService(repo)
	ctx := context.Background()

	user := createUser(t, repo, "promote@example.com", entity.UserRoleUser)

	if err := svc.ChangeRole(ctx, user, entity.UserRoleStoreOwner); err != nil {
		t.Fatalf("unexpected error promoting user: %v", err)
	}
	if user.Role != entity.UserRoleStoreOwner {
		t.Fatalf("expected in-memory role to follow, got %s", user.Role)
	}

	store, err := repo.GetStoreByOwner(ctx, user.ID)
	if err != nil {
		t.Fatalf("expected provisioned store, got %v", err)
	}
	if store.Name != user.Name {
		t.Fatalf("expected store named after user, got %s", store.Name)
	}
	if !store.IsActive {
		t.Fatal("expected provisioned store to be active")
	}
}

func TestChangeRoleDemotionDeactivatesStore(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewRoleService(repo)
	ctx := context.Background()

	owner := createUser(t, repo, "demote@example.com", entity.UserRoleStoreOwner)
	store := createStore(t, repo, &owner.ID)

	rater := createUser(t, repo, "rater@example.com", entity.UserRoleUser)
	if _, err := repo.UpsertRating(ctx, &entity.DbRating{UserID: rater.ID, StoreID: store.ID, Score: 4}); err != nil {
		t.Fatalf("failed to seed rating: %v", err)
	}

	if err := svc.ChangeRole(ctx, owner, entity.UserRoleUser); err != nil {
		t.Fatalf("unexpected error demoting owner: %v", err)
	}

	reloaded, err := repo.GetStoreByID(ctx, store.ID)
	if err != nil {
		t.Fatalf("expected store row to survive, got %v", err)
	}
	if reloaded.IsActive {
		t.Fatal("expected store to be deactivated")
	}
	if count, _ := repo.StoreRatingCount(ctx, store.ID); count != 1 {
		t.Fatalf("expected ratings to survive demotion, got %d", count)
	}
}

func TestChangeRoleSameRoleIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewRoleService(repo)
	ctx := context.Background()

	user := createUser(t, repo, "steady@example.com", entity.UserRoleUser)
	if err := svc.ChangeRole(ctx, user, entity.UserRoleUser); err != nil {
		t.Fatalf("expected same-role change to be a no-op, got %v", err)
	}
	if _, err := repo.GetStoreByOwner(ctx, user.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected no store for unchanged user, got %v", err)
	}
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewRoleService(repo)

	user := createUser(t, repo, "invalid@example.com", entity.UserRoleUser)
	if err := svc.ChangeRole(context.Background(), user, "superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if user.Role != entity.UserRoleUser {
		t.Fatalf("expected role to stay unchanged, got %s", user.Role)
	}
}
