package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Permission sets granted to freshly created accounts. An administrator
// manages users and sees every report; a manager edits and views their own.
var (
	AdminPermissions   = []Permission{PermManageUsers, PermViewAll}
	ManagerPermissions = []Permission{PermEditOwned, PermViewOwned}
)

// Service provides authentication and user management. Every operation takes
// the caller's principal explicitly; nothing is read from ambient state.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authenticate verifies login credentials and returns the caller's principal.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Principal{}, ErrBadCredentials
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrBadCredentials
		}
		return Principal{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Principal{}, ErrBadCredentials
	}
	return Principal{User: user, Permissions: user.Permissions}, nil
}

// Principal loads a user with resolved permissions by id.
func (s *Service) Principal(ctx context.Context, userID string) (Principal, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Principal{}, err
	}
	return Principal{User: user, Permissions: user.Permissions}, nil
}

// NewUserInput carries fields for account creation. Admin selects the
// permission set granted to the account.
type NewUserInput struct {
	Username   string
	Password   string
	FamilyName string
	GivenName  string
	Patronymic string
	Admin      bool
}

// CreateUser registers a new account. Requires manage_users.
func (s *Service) CreateUser(ctx context.Context, caller Principal, in NewUserInput) (*User, error) {
	if !caller.HasPermission(PermManageUsers) {
		return nil, ErrForbidden
	}
	in.Username = strings.TrimSpace(in.Username)
	in.FamilyName = strings.TrimSpace(in.FamilyName)
	in.GivenName = strings.TrimSpace(in.GivenName)
	in.Patronymic = strings.TrimSpace(in.Patronymic)
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if in.FamilyName == "" || in.GivenName == "" {
		return nil, fmt.Errorf("%w: family and given names are required", ErrInvalidInput)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:     in.Username,
		FamilyName:   in.FamilyName,
		GivenName:    in.GivenName,
		Patronymic:   in.Patronymic,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	perms := ManagerPermissions
	if in.Admin {
		perms = AdminPermissions
	}
	if err := s.store.SetPermissions(ctx, user.ID, perms); err != nil {
		return nil, err
	}
	user.Permissions = NewPermissionSet(perms...)
	return user, nil
}

// ListUsers returns every account except the caller's own. Requires manage_users.
func (s *Service) ListUsers(ctx context.Context, caller Principal) ([]*User, error) {
	if !caller.HasPermission(PermManageUsers) {
		return nil, ErrForbidden
	}
	return s.store.ListUsers(ctx, caller.UserID())
}

// GetUser returns a single account. A caller may always read their own
// record; reading anyone else requires manage_users.
func (s *Service) GetUser(ctx context.Context, caller Principal, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if id != caller.UserID() && !caller.HasPermission(PermManageUsers) {
		return nil, ErrForbidden
	}
	return s.store.GetUser(ctx, id)
}

// UpdateUserInput lists updatable fields; nil means "leave unchanged".
// Permissions may only be changed by a manage_users holder.
type UpdateUserInput struct {
	Username    *string
	FamilyName  *string
	GivenName   *string
	Patronymic  *string
	Password    *string
	Permissions *[]Permission
}

// UpdateUser edits an account. Self-service profile edits never require
// manage_users; touching another user's record or any permission set does.
func (s *Service) UpdateUser(ctx context.Context, caller Principal, id string, in UpdateUserInput) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	isSelf := id == caller.UserID()
	if !isSelf && !caller.HasPermission(PermManageUsers) {
		return nil, ErrForbidden
	}
	if in.Permissions != nil && !caller.HasPermission(PermManageUsers) {
		return nil, ErrForbidden
	}

	upd := UserUpdate{
		FamilyName: trimmed(in.FamilyName),
		GivenName:  trimmed(in.GivenName),
		Patronymic: trimmed(in.Patronymic),
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
		}
		upd.Username = &username
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	user, err := s.store.UpdateUser(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if in.Permissions != nil {
		perms := make([]Permission, 0, len(*in.Permissions))
		for _, p := range *in.Permissions {
			if !p.Valid() {
				return nil, fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, p)
			}
			perms = append(perms, p)
		}
		if err := s.store.SetPermissions(ctx, id, perms); err != nil {
			return nil, err
		}
		user.Permissions = NewPermissionSet(perms...)
	}
	return user, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
