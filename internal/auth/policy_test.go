package auth

import (
	"errors"
	"testing"

	"storerating/internal/entity"
)

func TestAuthorizeRequiresIdentity(t *testing.T) {
	if err := Authorize(nil, ActionListUsers, Resource{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for nil identity, got %v", err)
	}
	if err := Authorize(&Identity{}, ActionListUsers, Resource{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for zero id, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	admin := &Identity{ID: 1, Role: entity.UserRoleAdmin}
	user := &Identity{ID: 2, Role: entity.UserRoleUser}
	owner := &Identity{ID: 3, Role: entity.UserRoleStoreOwner}

	tests := []struct {
		name     string
		identity *Identity
		action   Action
		resource Resource
		wantErr  error
	}{
		{"管理员建店", admin, ActionCreateStore, Resource{}, nil},
		{"普通用户建店被拒", user, ActionCreateStore, Resource{}, ErrForbidden},
		{"店主建店被拒", owner, ActionCreateStore, Resource{}, ErrForbidden},
		{"管理员删店", admin, ActionDeleteStore, Resource{}, nil},
		{"管理员查看用户列表", admin, ActionListUsers, Resource{}, nil},
		{"普通用户查看用户列表被拒", user, ActionListUsers, Resource{}, ErrForbidden},
		{"管理员查看任意用户", admin, ActionReadUser, Resource{OwnerID: 2}, nil},
		{"用户查看自己", user, ActionReadUser, Resource{OwnerID: 2}, nil},
		{"用户查看他人被拒", user, ActionReadUser, Resource{OwnerID: 3}, ErrForbidden},
		{"用户更新自己", user, ActionUpdateUser, Resource{OwnerID: 2}, nil},
		{"用户更新他人被拒", user, ActionUpdateUser, Resource{OwnerID: 1}, ErrForbidden},
		{"店主更新自家店铺", owner, ActionUpdateStore, Resource{OwnerID: 3}, nil},
		{"店主更新别家店铺被拒", owner, ActionUpdateStore, Resource{OwnerID: 9}, ErrForbidden},
		{"管理员更新任意店铺", admin, ActionUpdateStore, Resource{OwnerID: 9}, nil},
		{"普通用户评分", user, ActionSubmitRating, Resource{}, nil},
		{"管理员评分被拒", admin, ActionSubmitRating, Resource{}, ErrForbidden},
		{"店主评分被拒", owner, ActionSubmitRating, Resource{}, ErrForbidden},
		{"用户删除自己的评分", user, ActionDeleteRating, Resource{OwnerID: 2}, nil},
		{"用户删除他人评分被拒", user, ActionDeleteRating, Resource{OwnerID: 5}, ErrForbidden},
		{"管理员删除任意评分", admin, ActionDeleteRating, Resource{OwnerID: 5}, nil},
		{"管理员查看全部评分", admin, ActionListAllRatings, Resource{}, nil},
		{"用户查看全部评分被拒", user, ActionListAllRatings, Resource{}, ErrForbidden},
		{"店主查看自家店铺评分", owner, ActionListStoreRatings, Resource{OwnerID: 3}, nil},
		{"店主查看别家店铺评分被拒", owner, ActionListStoreRatings, Resource{OwnerID: 9}, ErrForbidden},
		{"用户查看店铺评分", user, ActionListStoreRatings, Resource{OwnerID: 9}, nil},
		{"管理员查看平台统计", admin, ActionViewDashboard, Resource{}, nil},
		{"店主查看平台统计被拒", owner, ActionViewDashboard, Resource{}, ErrForbidden},
		{"店主查看自家统计", owner, ActionViewStoreDashboard, Resource{OwnerID: 3}, nil},
		{"店主查看别家统计被拒", owner, ActionViewStoreDashboard, Resource{OwnerID: 9}, ErrForbidden},
		{"管理员查看店铺统计被拒", admin, ActionViewStoreDashboard, Resource{OwnerID: 9}, ErrForbidden},
		{"未知操作被拒", admin, Action("unknown"), Resource{}, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.identity, tt.action, tt.resource)
			if !errors.Is(err, tt.wantErr) && err != tt.wantErr {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOwnedBy(t *testing.T) {
	if got := OwnedBy(nil); got.OwnerID != 0 {
		t.Fatalf("expected zero owner for nil reference, got %d", got.OwnerID)
	}
	id := uint(11)
	if got := OwnedBy(&id); got.OwnerID != 11 {
		t.Fatalf("expected owner 11, got %d", got.OwnerID)
	}
}
