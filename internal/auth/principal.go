package auth

// Principal represents an authenticated caller with a resolved permission set.
type Principal struct {
	User        *User
	Permissions PermissionSet
}

// NewPrincipal constructs a principal with preloaded permissions.
func NewPrincipal(user *User, perms []Permission) Principal {
	return Principal{User: user, Permissions: NewPermissionSet(perms...)}
}

// HasPermission reports whether the caller holds the given token.
func (p Principal) HasPermission(perm Permission) bool {
	return p.Permissions.Has(perm)
}

// UserID returns the caller's identity, or "" for a zero principal.
func (p Principal) UserID() string {
	if p.User == nil {
		return ""
	}
	return p.User.ID
}
