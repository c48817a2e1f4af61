package report

import (
	"fmt"

	"svodka.org/internal/auth"
)

// ResolveOwnerFilter computes the effective owner constraint for a report
// query, or rejects the request.
//
// The rules form an ordered decision table; the first match wins:
//
//  1. view_owned: a requested owner other than the caller is forbidden,
//     otherwise the filter is the caller's own id.
//  2. view_all: the requested owner if given, else the caller's own id.
//  3. neither: the caller's own id, unconditionally.
//
// The order is load-bearing. A caller holding both tokens is treated as
// restricted: view_owned wins over the broader view_all grant rather than the
// two being additive. Rule 3 means every authenticated user can see their own
// rows without any explicit grant; writes are gated separately by edit_owned.
func ResolveOwnerFilter(caller auth.Principal, requestedOwner string) (string, error) {
	self := caller.UserID()
	if self == "" {
		return "", auth.ErrUnauthenticated
	}
	switch {
	case caller.HasPermission(auth.PermViewOwned):
		if requestedOwner != "" && requestedOwner != self {
			return "", fmt.Errorf("%w: cannot view another user's reports", ErrForbidden)
		}
		return self, nil
	case caller.HasPermission(auth.PermViewAll):
		if requestedOwner != "" {
			return requestedOwner, nil
		}
		// Deliberate default: an unscoped query shows the caller's own
		// reports, not everyone's.
		return self, nil
	default:
		return self, nil
	}
}

// ResolveReadScope computes the owner constraint for fetching a single report
// by id, where no owner is requested up front. An empty result means
// unrestricted. Precedence matches ResolveOwnerFilter: view_owned pins the
// scope to the caller even when view_all is also held.
func ResolveReadScope(caller auth.Principal) (string, error) {
	self := caller.UserID()
	if self == "" {
		return "", auth.ErrUnauthenticated
	}
	switch {
	case caller.HasPermission(auth.PermViewOwned):
		return self, nil
	case caller.HasPermission(auth.PermViewAll):
		return "", nil
	default:
		return self, nil
	}
}

// RequireEdit gates report writes. All writes are self-scoped; there is no
// "edit others" token in the vocabulary.
func RequireEdit(caller auth.Principal) error {
	if caller.UserID() == "" {
		return auth.ErrUnauthenticated
	}
	if !caller.HasPermission(auth.PermEditOwned) {
		return fmt.Errorf("%w: edit_owned is required", ErrForbidden)
	}
	return nil
}
