// refresh_token.go defines the RefreshToken model. Refresh tokens are the
// only persisted session artifact: stored as a bcrypt hash with a plaintext
// prefix for indexed lookup, so logout can revoke them. Access tokens are
// stateless JWTs and are never stored.
package models

import "time"

// RefreshToken represents a stored (hashed) refresh token.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // bcrypt hash of the full token
	Prefix    string // first chars of the token, for indexed candidate lookup
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the token is usable at now: not revoked and not past
// its expiry.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
