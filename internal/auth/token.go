package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer   = "svodka"
	defaultTokenTTL = 12 * time.Hour
)

// Claims represents the JWT claims issued to dashboard sessions. Permission
// tokens are embedded for transparency only; the server always re-resolves
// them from storage, so a stale claim set cannot widen access.
type Claims struct {
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies access tokens with HS256.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokensOption configures Tokens.
type TokensOption func(*Tokens)

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) TokensOption {
	return func(t *Tokens) {
		if strings.TrimSpace(issuer) != "" {
			t.issuer = strings.TrimSpace(issuer)
		}
	}
}

// WithTokenTTL configures token lifetime.
func WithTokenTTL(ttl time.Duration) TokensOption {
	return func(t *Tokens) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithTokenClock overrides the time source (useful for tests).
func WithTokenClock(fn func() time.Time) TokensOption {
	return func(t *Tokens) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokens constructs a token signer/verifier.
func NewTokens(secret string, opts ...TokensOption) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: token secret is not configured")
	}
	t := &Tokens{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// TTL returns the configured token lifetime.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue signs a token for the given principal.
func (t *Tokens) Issue(principal Principal) (string, time.Time, error) {
	if principal.UserID() == "" {
		return "", time.Time{}, errors.New("auth: principal without user")
	}
	now := t.now().UTC()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		Permissions: principal.Permissions.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   principal.UserID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the token signature and required claims.
func (t *Tokens) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := t.validateClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *Tokens) validateClaims(claims *Claims) error {
	if claims.Issuer != t.issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := t.now().UTC()
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
