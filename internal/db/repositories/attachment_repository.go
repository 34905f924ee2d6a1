// attachment_repository.go implements AttachmentRepository over sqlx.
// Rows hold metadata only; the bytes live in a storage backend keyed by
// StoragePath.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noteplane/noteplane/internal/db/models"
)

// AttachmentRepository handles database operations for attachment metadata
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts attachment metadata after the blob has been written to
// storage.
func (r *AttachmentRepository) Create(ctx context.Context, att *models.Attachment) error {
	query := `
		INSERT INTO attachments (tenant_id, note_id, uploader_id, file_name, content_type, size_bytes, storage_path, checksum)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		att.TenantID, att.NoteID, att.UploaderID, att.FileName,
		att.ContentType, att.SizeBytes, att.StoragePath, att.Checksum,
	).Scan(&att.ID, &att.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	return nil
}

// Get retrieves an attachment by ID within a tenant
func (r *AttachmentRepository) Get(ctx context.Context, tenantID, id string) (*models.Attachment, error) {
	query := `
		SELECT id, tenant_id, note_id, uploader_id, file_name, content_type, size_bytes, storage_path, checksum, created_at
		FROM attachments
		WHERE tenant_id = $1 AND id = $2
	`

	att := &models.Attachment{}
	err := r.db.GetContext(ctx, att, query, tenantID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	return att, nil
}

// ListByNote lists the attachments of a note
func (r *AttachmentRepository) ListByNote(ctx context.Context, tenantID, noteID string) ([]*models.Attachment, error) {
	query := `
		SELECT id, tenant_id, note_id, uploader_id, file_name, content_type, size_bytes, storage_path, checksum, created_at
		FROM attachments
		WHERE tenant_id = $1 AND note_id = $2
		ORDER BY created_at ASC
	`

	var attachments []*models.Attachment
	err := r.db.SelectContext(ctx, &attachments, query, tenantID, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	return attachments, nil
}

// Delete removes attachment metadata. The caller deletes the blob from
// storage after the row is gone.
func (r *AttachmentRepository) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	query := `DELETE FROM attachments WHERE tenant_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete attachment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return rows == 1, nil
}
