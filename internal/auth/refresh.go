// refresh.go handles opaque refresh token generation and validation.
//
// Refresh tokens are the only session artifact that is persisted: we never
// store the raw token, only its bcrypt hash. The prefix is stored plaintext
// alongside the hash so validation can do a fast indexed DB query to narrow
// the candidate set, then run the expensive bcrypt comparison only on those
// few rows. Without the prefix, every refresh would require scanning the
// whole table and running bcrypt on each row. Storing a hash rather than the
// token means a database leak does not leak usable sessions, and deleting or
// revoking the row is an effective logout.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// RefreshTokenLength is the length of the random part of the token in bytes
	RefreshTokenLength = 32

	// RefreshPrefixLength is the number of characters stored plaintext for
	// indexed candidate lookup
	RefreshPrefixLength = 10

	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 12
)

// GenerateRefreshToken creates a new random refresh token.
// Returns: full token (to hand to the client once), bcrypt hash (to store),
// and the plaintext prefix (to store for lookup).
func GenerateRefreshToken() (token string, hash string, prefix string, err error) {
	randomBytes := make([]byte, RefreshTokenLength)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	fullToken := "npr_" + base64.RawURLEncoding.EncodeToString(randomBytes)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(fullToken), BcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to hash refresh token: %w", err)
	}

	prefixStr := fullToken
	if len(fullToken) > RefreshPrefixLength {
		prefixStr = fullToken[:RefreshPrefixLength]
	}

	return fullToken, string(hashBytes), prefixStr, nil
}

// ValidateRefreshToken checks if a provided token matches the stored hash.
func ValidateRefreshToken(providedToken, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(providedToken)) == nil
}

// TokenPrefix returns the lookup prefix for a presented token.
func TokenPrefix(token string) string {
	if len(token) > RefreshPrefixLength {
		return token[:RefreshPrefixLength]
	}
	return token
}

// GenerateInviteToken creates an unguessable single-use invitation token.
// Invitation tokens are stored as-is behind a unique index: unlike refresh
// tokens they are single-use and short-lived, and acceptance needs an exact
// equality lookup rather than a hash scan.
func GenerateInviteToken() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return "npi_" + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}
