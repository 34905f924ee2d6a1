// invitation_repository.go implements InvitationRepository. Single-use
// acceptance is enforced here with status-guarded updates: the transition
// away from pending only succeeds once, no matter how many requests race on
// the same token.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/noteplane/noteplane/internal/db/models"
)

// InvitationRepository handles database operations for invitations
type InvitationRepository struct {
	db *sql.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *sql.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

const invitationColumns = `id, tenant_id, email, role, status, invited_by, token, expires_at, created_at, updated_at`

func scanInvitation(row *sql.Row) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.Status,
		&inv.InvitedBy, &inv.Token, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

// Create inserts a new invitation. The partial unique index on
// (tenant_id, email) WHERE status = 'pending' means a second pending
// invitation for the same address surfaces as a unique violation.
func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (tenant_id, email, role, status, invited_by, token, expires_at)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6)
		RETURNING id, status, created_at, updated_at
	`

	inv.Email = strings.ToLower(inv.Email)
	err := r.db.QueryRowContext(ctx, query,
		inv.TenantID, inv.Email, inv.Role, inv.InvitedBy, inv.Token, inv.ExpiresAt,
	).Scan(&inv.ID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

// GetByToken retrieves an invitation by its secret token
func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token = $1`

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation by token: %w", err)
	}
	return inv, nil
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// ListByTenant lists a tenant's invitations, newest first. Pass a status to
// filter, or "" for all.
func (r *InvitationRepository) ListByTenant(ctx context.Context, tenantID string, status models.InvitationStatus) ([]*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		inv := &models.Invitation{}
		err := rows.Scan(
			&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.Status,
			&inv.InvitedBy, &inv.Token, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}

// ClaimPending transitions a pending invitation to the given terminal status.
// The WHERE clause guards on status = 'pending', so of N racing claims
// exactly one observes rowsAffected == 1; the rest see false and must treat
// the invitation as already resolved.
func (r *InvitationRepository) ClaimPending(ctx context.Context, id string, to models.InvitationStatus) (bool, error) {
	query := `
		UPDATE invitations
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, id, to)
	if err != nil {
		return false, fmt.Errorf("failed to claim invitation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}

	return rows == 1, nil
}
