// tenant.go defines the Tenant model representing a workspace — the unit of
// data isolation — with a URL-safe slug and a lifecycle status.
package models

import "time"

// TenantStatus is the lifecycle state of a tenant. Tenants are soft-deleted:
// the row is retained so the "exactly one owner membership" invariant never
// has to survive a hard delete.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
	TenantDeleted   TenantStatus = "deleted"
)

// Tenant represents a workspace/organization.
type Tenant struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"` // URL-safe, globally unique
	Status    TenantStatus `json:"status"`
	OwnerID   string       `json:"owner_id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
