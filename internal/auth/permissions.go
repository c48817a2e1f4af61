package auth

import (
	"encoding/json"
	"sort"
)

// Permission is an opaque capability token attached to a user. The vocabulary
// is closed; any implication between tokens lives in policy code, never here.
type Permission string

const (
	// PermManageUsers allows creating and editing any user account and
	// assigning permission tokens.
	PermManageUsers Permission = "manage_users"
	// PermViewAll allows listing and viewing reports of any user.
	PermViewAll Permission = "view_all"
	// PermViewOwned restricts report viewing to the caller's own reports,
	// even when broader grants are also present.
	PermViewOwned Permission = "view_owned"
	// PermEditOwned allows creating and updating the caller's own reports.
	PermEditOwned Permission = "edit_owned"
)

// BuiltinPermissions is the full recognized vocabulary.
var BuiltinPermissions = []Permission{
	PermManageUsers,
	PermViewAll,
	PermViewOwned,
	PermEditOwned,
}

// Valid reports whether the token belongs to the recognized vocabulary.
func (p Permission) Valid() bool {
	switch p {
	case PermManageUsers, PermViewAll, PermViewOwned, PermEditOwned:
		return true
	}
	return false
}

// PermissionSet is an unordered, duplicate-free set of tokens.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set, dropping unknown tokens.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		if p.Valid() {
			set[p] = struct{}{}
		}
	}
	return set
}

// Has reports membership of a single token.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// List returns the tokens in stable sorted order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted tokens as plain strings for serialization.
func (s PermissionSet) Strings() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = string(p)
	}
	return out
}

// MarshalJSON serializes the set as a sorted string array.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON reads a string array, rejecting unknown tokens.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set, err := ParsePermissions(raw)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// ParsePermissions converts raw tokens into a set, rejecting unknown values.
func ParsePermissions(raw []string) (PermissionSet, error) {
	set := make(PermissionSet, len(raw))
	for _, r := range raw {
		p := Permission(r)
		if !p.Valid() {
			return nil, ErrInvalidInput
		}
		set[p] = struct{}{}
	}
	return set, nil
}
