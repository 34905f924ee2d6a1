// tenant_repository.go implements TenantRepository, providing database
// queries for tenant lifecycle and the two operations that must be atomic
// across tables: tenant creation (tenant + founding OWNER membership) and
// ownership transfer (demote old owner, promote new, repoint owner_id).
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noteplane/noteplane/internal/db/models"
)

// TenantRepository handles database operations for tenants
type TenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// CreateWithOwner creates a tenant and its founding OWNER membership in one
// transaction. The single-OWNER invariant is backed by a partial unique index,
// so a concurrent duplicate insert fails with a unique violation rather than
// producing two owners.
func (r *TenantRepository) CreateWithOwner(ctx context.Context, tenant *models.Tenant) (*models.Membership, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tenantQuery := `
		INSERT INTO tenants (name, slug, status, owner_id)
		VALUES ($1, $2, 'active', $3)
		RETURNING id, status, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, tenantQuery, tenant.Name, tenant.Slug, tenant.OwnerID).Scan(
		&tenant.ID, &tenant.Status, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	memberQuery := `
		INSERT INTO memberships (tenant_id, user_id, role)
		VALUES ($1, $2, 'owner')
		RETURNING id, tenant_id, user_id, role, is_suspended, invited_by, joined_at, updated_at
	`
	member := &models.Membership{}
	err = tx.QueryRowContext(ctx, memberQuery, tenant.ID, tenant.OwnerID).Scan(
		&member.ID, &member.TenantID, &member.UserID, &member.Role,
		&member.IsSuspended, &member.InvitedBy, &member.JoinedAt, &member.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tenant creation: %w", err)
	}

	return member, nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := `
		SELECT id, name, slug, status, owner_id, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	tenant := &models.Tenant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Status,
		&tenant.OwnerID, &tenant.CreatedAt, &tenant.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return tenant, nil
}

// GetBySlug retrieves a tenant by its URL-safe slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	query := `
		SELECT id, name, slug, status, owner_id, created_at, updated_at
		FROM tenants
		WHERE slug = $1
	`

	tenant := &models.Tenant{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Status,
		&tenant.OwnerID, &tenant.CreatedAt, &tenant.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant by slug: %w", err)
	}

	return tenant, nil
}

// Update updates a tenant's name
func (r *TenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, tenant.ID, tenant.Name)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	return nil
}

// SetStatus transitions a tenant's lifecycle status. Deletion is soft: the
// row is retained so membership invariants and audit history survive.
func (r *TenantRepository) SetStatus(ctx context.Context, id string, status models.TenantStatus) error {
	query := `
		UPDATE tenants
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to set tenant status: %w", err)
	}

	return nil
}

// TransferOwnership atomically demotes the current owner's membership to
// ADMIN, promotes the target membership to OWNER, and repoints the tenant's
// owner_id. The demote must run before the promote or the partial unique
// single-OWNER index rejects the intermediate state.
func (r *TenantRepository) TransferOwnership(ctx context.Context, tenantID, fromUserID, toUserID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	demote := `
		UPDATE memberships SET role = 'admin', updated_at = NOW()
		WHERE tenant_id = $1 AND user_id = $2 AND role = 'owner'
	`
	res, err := tx.ExecContext(ctx, demote, tenantID, fromUserID)
	if err != nil {
		return fmt.Errorf("failed to demote owner: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ownership transfer: %s is not the owner of %s", fromUserID, tenantID)
	}

	promote := `
		UPDATE memberships SET role = 'owner', updated_at = NOW()
		WHERE tenant_id = $1 AND user_id = $2
	`
	res, err = tx.ExecContext(ctx, promote, tenantID, toUserID)
	if err != nil {
		return fmt.Errorf("failed to promote new owner: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ownership transfer: %s has no membership in %s", toUserID, tenantID)
	}

	repoint := `UPDATE tenants SET owner_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, repoint, tenantID, toUserID); err != nil {
		return fmt.Errorf("failed to update tenant owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ownership transfer: %w", err)
	}

	return nil
}
