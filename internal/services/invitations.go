// invitations.go implements the invitation lifecycle: issue, preview, accept,
// decline, revoke. Expiry is lazy — observed at read/accept time and persisted
// as a side effect — so no background sweeper exists. Single-use acceptance
// rides on the repository's status-guarded claim, not on application locks.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/auth"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/telemetry"
)

// InvitationService manages workspace invitations.
type InvitationService struct {
	invitations *repositories.InvitationRepository
	memberships *repositories.MembershipRepository
	users       *repositories.UserRepository
	ttl         time.Duration
}

// NewInvitationService creates a new invitation service. ttl is the pending
// lifetime of freshly issued invitations.
func NewInvitationService(
	invitations *repositories.InvitationRepository,
	memberships *repositories.MembershipRepository,
	users *repositories.UserRepository,
	ttl time.Duration,
) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		memberships: memberships,
		users:       users,
		ttl:         ttl,
	}
}

// Issue creates a pending invitation for an email address. The role can never
// be OWNER. An address that already belongs to a member, or that already has
// a pending invitation, yields Conflict.
func (s *InvitationService) Issue(ctx context.Context, actor *models.Membership, email string, role models.Role) (*models.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.Validation("a valid email address is required")
	}
	if role == models.RoleOwner {
		return nil, apierr.Forbidden("ownership cannot be granted by invitation")
	}
	if !role.Valid() {
		return nil, apierr.Validation("unknown role: " + string(role))
	}

	// Known address that already holds a membership → Conflict up front.
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		existing, err := s.memberships.Get(ctx, actor.TenantID, user.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apierr.Conflict("that user is already a member of this workspace")
		}
	}

	token, err := auth.GenerateInviteToken()
	if err != nil {
		return nil, err
	}

	inv := &models.Invitation{
		TenantID:  actor.TenantID,
		Email:     email,
		Role:      role,
		InvitedBy: actor.UserID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, apierr.Conflict("a pending invitation for that address already exists")
		}
		return nil, err
	}

	telemetry.InvitationsIssuedTotal.Inc()
	return inv, nil
}

// List returns a tenant's invitations, lazily expiring any pending rows whose
// time bound has passed so listings never show a pending invitation that can
// no longer be accepted.
func (s *InvitationService) List(ctx context.Context, tenantID string, status models.InvitationStatus) ([]*models.Invitation, error) {
	invitations, err := s.invitations.ListByTenant(ctx, tenantID, status)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, inv := range invitations {
		if inv.Status == models.InvitationPending && inv.IsExpired(now) {
			s.expire(ctx, inv)
		}
	}
	return invitations, nil
}

// Preview returns the invitation behind a token so the acceptance page can
// show what is being offered. Expiry is observed (and persisted) here too.
func (s *InvitationService) Preview(ctx context.Context, token string) (*models.Invitation, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apierr.NotFound("invitation not found")
	}
	if inv.Status == models.InvitationPending && inv.IsExpired(time.Now()) {
		s.expire(ctx, inv)
	}
	return inv, nil
}

// Accept resolves a pending invitation into a membership for user. Every
// precondition failure is reported distinctly: NotFound (no such token),
// InvalidState (already resolved), Expired (time bound passed — persisted as
// a side effect), Forbidden (email mismatch), Conflict (already a member).
func (s *InvitationService) Accept(ctx context.Context, user *models.User, token string) (*models.Membership, error) {
	inv, err := s.pendingByToken(ctx, user, token)
	if err != nil {
		return nil, err
	}

	existing, err := s.memberships.Get(ctx, inv.TenantID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.Conflict("you are already a member of this workspace")
	}

	// Claim before creating the membership: of N racing accepts on the same
	// token exactly one wins the status transition.
	won, err := s.invitations.ClaimPending(ctx, inv.ID, models.InvitationAccepted)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apierr.InvalidState("this invitation has already been used")
	}

	member := &models.Membership{
		TenantID:  inv.TenantID,
		UserID:    user.ID,
		Role:      inv.Role,
		InvitedBy: &inv.InvitedBy,
	}
	if err := s.memberships.Create(ctx, member); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, apierr.Conflict("you are already a member of this workspace")
		}
		return nil, err
	}

	telemetry.InvitationsResolvedTotal.WithLabelValues("accepted").Inc()
	return member, nil
}

// Decline resolves a pending invitation to rejected. The same email-match
// rule as acceptance applies: only the invitee can decline their invitation.
func (s *InvitationService) Decline(ctx context.Context, user *models.User, token string) error {
	inv, err := s.pendingByToken(ctx, user, token)
	if err != nil {
		return err
	}

	won, err := s.invitations.ClaimPending(ctx, inv.ID, models.InvitationRejected)
	if err != nil {
		return err
	}
	if !won {
		return apierr.InvalidState("this invitation has already been resolved")
	}

	telemetry.InvitationsResolvedTotal.WithLabelValues("declined").Inc()
	return nil
}

// Revoke withdraws a pending invitation on behalf of the tenant. Invitations
// belonging to other tenants are indistinguishable from absent ones.
func (s *InvitationService) Revoke(ctx context.Context, tenantID, invitationID string) error {
	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv == nil || inv.TenantID != tenantID {
		return apierr.NotFound("invitation not found")
	}
	if inv.Status != models.InvitationPending {
		return apierr.InvalidState("this invitation has already been resolved")
	}
	if inv.IsExpired(time.Now()) {
		s.expire(ctx, inv)
		return apierr.Expired("this invitation has expired")
	}

	won, err := s.invitations.ClaimPending(ctx, inv.ID, models.InvitationRejected)
	if err != nil {
		return err
	}
	if !won {
		return apierr.InvalidState("this invitation has already been resolved")
	}

	telemetry.InvitationsResolvedTotal.WithLabelValues("revoked").Inc()
	return nil
}

// pendingByToken loads an invitation for accept/decline and enforces the
// shared preconditions: it must exist, be pending, be within its time bound,
// and be addressed to the acting user's email.
func (s *InvitationService) pendingByToken(ctx context.Context, user *models.User, token string) (*models.Invitation, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apierr.NotFound("invitation not found")
	}

	switch inv.Status {
	case models.InvitationPending:
		// fall through to the time bound check
	case models.InvitationExpired:
		return nil, apierr.Expired("this invitation has expired")
	default:
		return nil, apierr.InvalidState("this invitation has already been resolved")
	}

	if inv.IsExpired(time.Now()) {
		s.expire(ctx, inv)
		return nil, apierr.Expired("this invitation has expired")
	}

	if !strings.EqualFold(user.Email, inv.Email) {
		return nil, apierr.Forbidden("this invitation was issued to a different email address")
	}

	return inv, nil
}

// expire performs the lazy pending→expired transition. Losing the claim race
// is fine — someone else already resolved the row.
func (s *InvitationService) expire(ctx context.Context, inv *models.Invitation) {
	won, err := s.invitations.ClaimPending(ctx, inv.ID, models.InvitationExpired)
	if err != nil || !won {
		return
	}
	inv.Status = models.InvitationExpired
	telemetry.InvitationsResolvedTotal.WithLabelValues("expired").Inc()
}
