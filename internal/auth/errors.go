package auth

import "errors"

var (
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	ErrForbidden       = errors.New("auth: forbidden")
	ErrNotFound        = errors.New("auth: not found")
	ErrAlreadyExists   = errors.New("auth: already exists")
	ErrInvalidInput    = errors.New("auth: invalid input")
)

// ErrInvalidToken indicates the token failed validation.
var ErrInvalidToken = errors.New("auth: invalid token")

// ErrBadCredentials covers both unknown usernames and wrong passwords so the
// login response does not reveal which of the two was wrong.
var ErrBadCredentials = errors.New("auth: bad credentials")
