package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
// Implementations populate User.Permissions on every read.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// ListUsers returns all users except the one identified by excludeID.
	ListUsers(ctx context.Context, excludeID string) ([]*User, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error)
	// SetPermissions replaces the user's token set.
	SetPermissions(ctx context.Context, userID string, perms []Permission) error
}

// UserUpdate lists mutable user fields; nil means "leave unchanged".
type UserUpdate struct {
	Username     *string
	FamilyName   *string
	GivenName    *string
	Patronymic   *string
	PasswordHash *string
}
