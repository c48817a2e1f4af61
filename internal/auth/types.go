package auth

import "time"

// User is a dashboard account: a manager submitting reports or an
// administrator. The password hash never leaves the server: clients submit a
// plaintext password on create/update and never receive the hash back.
type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	FamilyName string    `json:"family_name"`
	GivenName  string    `json:"given_name"`
	Patronymic string    `json:"patronymic,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	PasswordHash string `json:"-"`

	Permissions PermissionSet `json:"permissions"`
}

// ShortName renders "Family G. P." for table rows, mirroring how the
// dashboard abbreviates manager names.
func (u User) ShortName() string {
	out := u.FamilyName
	if len(u.GivenName) > 0 {
		out += " " + firstLetter(u.GivenName) + "."
	}
	if len(u.Patronymic) > 0 {
		out += " " + firstLetter(u.Patronymic) + "."
	}
	return out
}

func firstLetter(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
