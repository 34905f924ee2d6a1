// note_repository.go implements NoteRepository over sqlx. Every query is
// scoped by tenant_id in the WHERE clause, so a note ID from another tenant
// behaves exactly like a missing note.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noteplane/noteplane/internal/db/models"
)

// NoteRepository handles database operations for notes
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a new note
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (tenant_id, author_id, title, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		note.TenantID, note.AuthorID, note.Title, note.Body,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// Get retrieves a note by ID within a tenant
func (r *NoteRepository) Get(ctx context.Context, tenantID, id string) (*models.Note, error) {
	query := `
		SELECT id, tenant_id, author_id, title, body, created_at, updated_at
		FROM notes
		WHERE tenant_id = $1 AND id = $2
	`

	note := &models.Note{}
	err := r.db.GetContext(ctx, note, query, tenantID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// ListByTenant lists a tenant's notes, most recently updated first
func (r *NoteRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.Note, error) {
	query := `
		SELECT id, tenant_id, author_id, title, body, created_at, updated_at
		FROM notes
		WHERE tenant_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`

	var notes []*models.Note
	err := r.db.SelectContext(ctx, &notes, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	return notes, nil
}

// Update updates a note's title and body. Returns false when the note does
// not exist in the tenant.
func (r *NoteRepository) Update(ctx context.Context, note *models.Note) (bool, error) {
	query := `
		UPDATE notes
		SET title = $3, body = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, note.TenantID, note.ID, note.Title, note.Body)
	if err != nil {
		return false, fmt.Errorf("failed to update note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}

	return rows == 1, nil
}

// Delete removes a note. Attachments cascade via the schema.
func (r *NoteRepository) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	query := `DELETE FROM notes WHERE tenant_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return rows == 1, nil
}
