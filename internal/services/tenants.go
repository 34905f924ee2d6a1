// tenants.go implements the tenant lifecycle: creation with its atomic
// founding OWNER membership, rename, soft delete, and ownership transfer.
package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
)

// slugPattern matches URL-safe slugs: lower-case alphanumerics and hyphens,
// no leading/trailing hyphen, 2-63 characters.
var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])$`)

// TenantService manages workspace lifecycle.
type TenantService struct {
	tenants     *repositories.TenantRepository
	memberships *repositories.MembershipRepository
}

// NewTenantService creates a new tenant service
func NewTenantService(tenants *repositories.TenantRepository, memberships *repositories.MembershipRepository) *TenantService {
	return &TenantService{tenants: tenants, memberships: memberships}
}

// Create creates a workspace with ownerID as its founding OWNER, atomically.
// A taken slug yields Conflict.
func (s *TenantService) Create(ctx context.Context, ownerID, name, slug string) (*models.Tenant, *models.Membership, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, apierr.Validation("workspace name is required")
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return nil, nil, apierr.Validation("slug must be 2-63 lower-case letters, digits, or hyphens, and cannot start or end with a hyphen")
	}

	tenant := &models.Tenant{Name: name, Slug: slug, OwnerID: ownerID}
	member, err := s.tenants.CreateWithOwner(ctx, tenant)
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, nil, apierr.Conflict("that workspace slug is already taken")
		}
		return nil, nil, err
	}

	return tenant, member, nil
}

// ListForUser returns the workspaces the user belongs to, with their role in
// each. Soft-deleted workspaces are excluded.
func (s *TenantService) ListForUser(ctx context.Context, userID string) ([]*models.UserTenant, error) {
	return s.memberships.ListTenantsForUser(ctx, userID)
}

// Rename changes a workspace's display name. The slug is permanent.
func (s *TenantService) Rename(ctx context.Context, tenant *models.Tenant, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apierr.Validation("workspace name is required")
	}
	tenant.Name = name
	return s.tenants.Update(ctx, tenant)
}

// SoftDelete marks a workspace deleted. The row and its memberships are
// retained; resolution treats the workspace as nonexistent from now on.
func (s *TenantService) SoftDelete(ctx context.Context, tenantID string) error {
	return s.tenants.SetStatus(ctx, tenantID, models.TenantDeleted)
}

// TransferOwnership moves ownership from the current owner to another active
// member: the old owner is demoted to ADMIN and the target promoted, in one
// transaction. Transferring to yourself is a no-op success.
func (s *TenantService) TransferOwnership(ctx context.Context, tenant *models.Tenant, actor *models.Membership, newOwnerID string) error {
	if actor.Role != models.RoleOwner {
		return apierr.Forbidden("only the workspace owner can transfer ownership")
	}
	if newOwnerID == actor.UserID {
		return nil
	}

	target, err := s.memberships.Get(ctx, tenant.ID, newOwnerID)
	if err != nil {
		return err
	}
	if target == nil {
		return apierr.NotFound("member not found")
	}
	if target.IsSuspended {
		return apierr.InvalidState("ownership cannot be transferred to a suspended member")
	}

	if err := s.tenants.TransferOwnership(ctx, tenant.ID, actor.UserID, newOwnerID); err != nil {
		return err
	}
	tenant.OwnerID = newOwnerID
	return nil
}
