// membership.go defines the Membership model — the role-bearing edge between
// a user and a tenant — plus an enriched view joining user details for display.
//
// Invariants enforced by the schema (see migrations):
//   - (tenant_id, user_id) is unique: one role per user per tenant.
//   - Exactly one OWNER membership per tenant (partial unique index).
//
// A suspended membership grants no rights but is never deleted, so
// reactivation is possible and history is preserved.
package models

import "time"

// Membership represents a user's membership in a tenant.
type Membership struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	Role        Role      `json:"role"`
	IsSuspended bool      `json:"is_suspended"`
	InvitedBy   *string   `json:"invited_by,omitempty"` // absent for the founding owner
	JoinedAt    time.Time `json:"joined_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MembershipWithUser includes user details for member listings.
type MembershipWithUser struct {
	Membership
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// UserTenant is a tenant a user belongs to, with the user's role in it.
type UserTenant struct {
	TenantID    string       `json:"tenant_id"`
	TenantName  string       `json:"tenant_name"`
	TenantSlug  string       `json:"tenant_slug"`
	Status      TenantStatus `json:"status"`
	Role        Role         `json:"role"`
	IsSuspended bool         `json:"is_suspended"`
	JoinedAt    time.Time    `json:"joined_at"`
}
