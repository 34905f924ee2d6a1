// user.go defines the User model for Noteplane accounts with email, display
// name, and password credential.
package models

import "time"

// User represents a user account. Emails are stored lower-cased and are
// unique case-insensitively; PasswordHash is a bcrypt hash and never
// serialized to JSON.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"-"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
