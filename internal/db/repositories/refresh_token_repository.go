// refresh_token_repository.go implements RefreshTokenRepository. Tokens are
// stored only as bcrypt hashes; the indexed plaintext prefix narrows a
// presented token to a handful of candidate rows for the bcrypt comparison.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noteplane/noteplane/internal/db/models"
)

// RefreshTokenRepository handles database operations for refresh tokens
type RefreshTokenRepository struct {
	db *sql.DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create inserts a new refresh token record
func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, prefix, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		token.UserID, token.TokenHash, token.Prefix, token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	return nil
}

// GetByPrefix retrieves unrevoked, unexpired candidate tokens sharing a
// prefix. Prefixes are not unique, so the caller bcrypt-compares the
// presented token against each candidate's hash.
func (r *RefreshTokenRepository) GetByPrefix(ctx context.Context, prefix string) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, prefix, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE prefix = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`

	rows, err := r.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh tokens by prefix: %w", err)
	}
	defer rows.Close()

	var tokens []*models.RefreshToken
	for rows.Next() {
		t := &models.RefreshToken{}
		err := rows.Scan(
			&t.ID, &t.UserID, &t.TokenHash, &t.Prefix,
			&t.ExpiresAt, &t.RevokedAt, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		tokens = append(tokens, t)
	}

	return tokens, rows.Err()
}

// Revoke marks a single token as revoked
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// RevokeAllForUser revokes every active token of a user, logging them out of
// all sessions.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens for user: %w", err)
	}

	return nil
}

// DeleteExpired removes tokens past expiry, keeping the table small. Run
// periodically from the maintenance job.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	return result.RowsAffected()
}
