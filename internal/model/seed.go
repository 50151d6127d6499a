package model

import (
	"context"
	"strings"

	"storerating/internal/auth"
	"storerating/internal/config"
	"storerating/internal/entity"

	"github.com/sirupsen/logrus"
)

// SeedAdminUser creates the initial administrator account when the
// user table is empty. Registration through the public API always
// produces user-role accounts, so without this seed a fresh
// deployment would have no way to reach the admin surface.
func SeedAdminUser(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	password := strings.TrimSpace(cfg.AdminPassword)
	if email == "" || password == "" {
		return nil
	}

	count, err := repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &entity.DbUser{
		Name:         strings.TrimSpace(cfg.AdminName),
		Email:        email,
		PasswordHash: hash,
		Role:         entity.UserRoleAdmin,
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		return err
	}

	logrus.WithField("email", email).Info("seeded initial admin user")
	return nil
}
