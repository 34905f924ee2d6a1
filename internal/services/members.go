// members.go applies the mutation guard to the membership store: every
// operation re-reads the target row, runs the pure guard rules, then writes.
package services

import (
	"context"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
)

// MemberService manages memberships within a tenant.
type MemberService struct {
	memberships *repositories.MembershipRepository
}

// NewMemberService creates a new member service
func NewMemberService(memberships *repositories.MembershipRepository) *MemberService {
	return &MemberService{memberships: memberships}
}

// List returns the tenant's members, suspended ones included, joined with
// user details.
func (s *MemberService) List(ctx context.Context, tenantID string) ([]*models.MembershipWithUser, error) {
	return s.memberships.ListByTenant(ctx, tenantID)
}

// target fetches the membership an operation acts on. Absent memberships are
// NOT_FOUND: within a tenant the caller is already a member, so existence is
// not being leaked.
func (s *MemberService) target(ctx context.Context, tenantID, userID string) (*models.Membership, error) {
	member, err := s.memberships.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apierr.NotFound("member not found")
	}
	return member, nil
}

// ChangeRole sets a member's role subject to the guard rules. Re-asserting
// the role the member already holds is a no-op success.
func (s *MemberService) ChangeRole(ctx context.Context, actor *models.Membership, targetUserID string, newRole models.Role) (*models.Membership, error) {
	target, err := s.target(ctx, actor.TenantID, targetUserID)
	if err != nil {
		return nil, err
	}
	if err := CanChangeRole(actor, target, newRole); err != nil {
		return nil, err
	}
	if target.Role == newRole {
		return target, nil
	}

	if err := s.memberships.UpdateRole(ctx, actor.TenantID, targetUserID, newRole); err != nil {
		return nil, err
	}
	target.Role = newRole
	return target, nil
}

// SetSuspended suspends or unsuspends a member subject to the guard rules.
// Re-asserting the current state is a no-op success, which keeps retries
// harmless.
func (s *MemberService) SetSuspended(ctx context.Context, actor *models.Membership, targetUserID string, suspended bool) (*models.Membership, error) {
	target, err := s.target(ctx, actor.TenantID, targetUserID)
	if err != nil {
		return nil, err
	}
	if err := CanSuspend(actor, target); err != nil {
		return nil, err
	}
	if target.IsSuspended == suspended {
		return target, nil
	}

	if err := s.memberships.SetSuspended(ctx, actor.TenantID, targetUserID, suspended); err != nil {
		return nil, err
	}
	target.IsSuspended = suspended
	return target, nil
}

// Remove deletes a member's row subject to the guard rules.
func (s *MemberService) Remove(ctx context.Context, actor *models.Membership, targetUserID string) error {
	target, err := s.target(ctx, actor.TenantID, targetUserID)
	if err != nil {
		return err
	}
	if err := CanRemove(actor, target); err != nil {
		return err
	}

	rows, err := s.memberships.Remove(ctx, actor.TenantID, targetUserID)
	if err != nil {
		return err
	}
	if rows == 0 {
		// Lost a race with another removal.
		return apierr.NotFound("member not found")
	}
	return nil
}

// Leave removes the caller's own membership. Owners cannot leave.
func (s *MemberService) Leave(ctx context.Context, member *models.Membership) error {
	if err := CanRemove(member, member); err != nil {
		return err
	}

	rows, err := s.memberships.Remove(ctx, member.TenantID, member.UserID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apierr.NotFound("member not found")
	}
	return nil
}
