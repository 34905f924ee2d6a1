// membership_repository.go implements MembershipRepository, the store behind
// every authorization decision. Middleware re-reads memberships on each
// request rather than trusting token claims, so these queries are on the hot
// path for every tenant-scoped endpoint.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noteplane/noteplane/internal/db/models"
)

// MembershipRepository handles database operations for memberships
type MembershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Get retrieves the membership of a user in a tenant, suspended or not.
// Returns (nil, nil) when the user has no membership at all.
func (r *MembershipRepository) Get(ctx context.Context, tenantID, userID string) (*models.Membership, error) {
	query := `
		SELECT id, tenant_id, user_id, role, is_suspended, invited_by, joined_at, updated_at
		FROM memberships
		WHERE tenant_id = $1 AND user_id = $2
	`

	member := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, tenantID, userID).Scan(
		&member.ID,
		&member.TenantID,
		&member.UserID,
		&member.Role,
		&member.IsSuspended,
		&member.InvitedBy,
		&member.JoinedAt,
		&member.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return member, nil
}

// ListByTenant lists all memberships of a tenant joined with user details,
// ordered by join time. Suspended members are included; callers that need to
// hide them filter on IsSuspended.
func (r *MembershipRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.MembershipWithUser, error) {
	query := `
		SELECT m.id, m.tenant_id, m.user_id, m.role, m.is_suspended,
		       m.invited_by, m.joined_at, m.updated_at,
		       u.name, u.email
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.tenant_id = $1
		ORDER BY m.joined_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []*models.MembershipWithUser
	for rows.Next() {
		m := &models.MembershipWithUser{}
		err := rows.Scan(
			&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.IsSuspended,
			&m.InvitedBy, &m.JoinedAt, &m.UpdatedAt,
			&m.UserName, &m.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// ListTenantsForUser lists the tenants a user belongs to, with the user's
// role in each. Deleted tenants are excluded.
func (r *MembershipRepository) ListTenantsForUser(ctx context.Context, userID string) ([]*models.UserTenant, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.status, m.role, m.is_suspended, m.joined_at
		FROM memberships m
		JOIN tenants t ON t.id = m.tenant_id
		WHERE m.user_id = $1 AND t.status != 'deleted'
		ORDER BY m.joined_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants for user: %w", err)
	}
	defer rows.Close()

	var tenants []*models.UserTenant
	for rows.Next() {
		ut := &models.UserTenant{}
		err := rows.Scan(
			&ut.TenantID, &ut.TenantName, &ut.TenantSlug, &ut.Status,
			&ut.Role, &ut.IsSuspended, &ut.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user tenant: %w", err)
		}
		tenants = append(tenants, ut)
	}

	return tenants, rows.Err()
}

// Create inserts a membership. A duplicate (tenant_id, user_id) surfaces as a
// unique violation; callers translate it to Conflict.
func (r *MembershipRepository) Create(ctx context.Context, member *models.Membership) error {
	query := `
		INSERT INTO memberships (tenant_id, user_id, role, invited_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_suspended, joined_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		member.TenantID, member.UserID, member.Role, member.InvitedBy,
	).Scan(&member.ID, &member.IsSuspended, &member.JoinedAt, &member.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}

	return nil
}

// UpdateRole sets the role of a membership
func (r *MembershipRepository) UpdateRole(ctx context.Context, tenantID, userID string, role models.Role) error {
	query := `
		UPDATE memberships
		SET role = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND user_id = $2
	`

	_, err := r.db.ExecContext(ctx, query, tenantID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to update membership role: %w", err)
	}

	return nil
}

// SetSuspended flips the suspension flag of a membership. Suspending an
// already-suspended member (or vice versa) is a harmless no-op at this layer.
func (r *MembershipRepository) SetSuspended(ctx context.Context, tenantID, userID string, suspended bool) error {
	query := `
		UPDATE memberships
		SET is_suspended = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND user_id = $2
	`

	_, err := r.db.ExecContext(ctx, query, tenantID, userID, suspended)
	if err != nil {
		return fmt.Errorf("failed to set membership suspension: %w", err)
	}

	return nil
}

// Remove deletes a membership. Returns the number of rows removed so callers
// can distinguish removal from an absent membership.
func (r *MembershipRepository) Remove(ctx context.Context, tenantID, userID string) (int64, error) {
	query := `DELETE FROM memberships WHERE tenant_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, tenantID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove membership: %w", err)
	}

	return result.RowsAffected()
}
