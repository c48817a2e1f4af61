package auth

import (
	"context"
	"errors"
	"fmt"
)

// BootstrapUser describes an account ensured at startup, such as the default
// administrator from the environment.
type BootstrapUser struct {
	Username   string
	Password   string
	FamilyName string
	GivenName  string
	Admin      bool
}

// EnsureUser creates the account if no user with that username exists yet.
// Existing accounts are left untouched, so rotating the configured password
// does not overwrite a live credential.
func EnsureUser(ctx context.Context, store Store, boot BootstrapUser) error {
	if boot.Username == "" || boot.Password == "" {
		return fmt.Errorf("%w: bootstrap username and password are required", ErrInvalidInput)
	}
	_, err := store.GetUserByUsername(ctx, boot.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := HashPassword(boot.Password)
	if err != nil {
		return err
	}
	user := &User{
		Username:     boot.Username,
		FamilyName:   boot.FamilyName,
		GivenName:    boot.GivenName,
		PasswordHash: hash,
	}
	if user.FamilyName == "" {
		user.FamilyName = "Default"
	}
	if user.GivenName == "" {
		user.GivenName = "User"
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}
	perms := ManagerPermissions
	if boot.Admin {
		perms = AdminPermissions
	}
	return store.SetPermissions(ctx, user.ID, perms)
}
