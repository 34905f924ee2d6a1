// invitation.go defines the Invitation model — a time-boxed, single-use offer
// of a role in a tenant to an email address.
//
// State machine: pending → accepted | rejected | expired. Expiry is observed
// lazily at read/accept time; there is no background sweep. Once non-pending
// an invitation is terminal and a fresh one may be issued for the same
// (tenant, email).
package models

import "time"

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation represents a pending or resolved workspace invitation. Role is
// never OWNER — ownership cannot be granted by invitation. Token is an
// unguessable single-use secret embedded in the acceptance link; it is
// excluded from JSON so listings never leak it.
type Invitation struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenant_id"`
	Email     string           `json:"email"` // lower-cased
	Role      Role             `json:"role"`
	Status    InvitationStatus `json:"status"`
	InvitedBy string           `json:"invited_by"`
	Token     string           `json:"-"`
	ExpiresAt time.Time        `json:"expires_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// IsExpired reports whether the invitation's time bound has passed at now.
// Callers observing this on a pending row are responsible for flipping the
// stored status to expired (lazy expiry).
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
