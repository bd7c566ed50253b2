package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/routeledger/backend/internal/common/bootstrap"
	"github.com/routeledger/backend/internal/common/config"
	commoncrypto "github.com/routeledger/backend/internal/common/crypto"
	userdomain "github.com/routeledger/backend/internal/user/domain"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	app, err := bootstrap.NewSeedApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start seed: %v\n", err)
		os.Exit(1)
	}

	err = seedAdmin(ctx, app)
	app.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func seedAdmin(ctx context.Context, app *bootstrap.SeedApp) error {
	hash, err := app.Hasher.Hash(app.Config.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	id, err := commoncrypto.NewUUIDGenerator().NewID()
	if err != nil {
		return fmt.Errorf("failed to generate admin id: %w", err)
	}

	now := time.Now().UTC()
	admin, err := app.UserRepo.Upsert(ctx, userdomain.User{
		ID:           userdomain.ID(id),
		Username:     app.Config.AdminUsername,
		Email:        app.Config.AdminEmail,
		FullName:     app.Config.AdminFullName,
		PasswordHash: hash,
		Role:         userdomain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert admin user: %w", err)
	}

	app.Log.Infof("seeded admin user %s (%s)", admin.Username, admin.ID)
	return nil
}
