// attachment.go defines the Attachment model: file metadata for a blob stored
// in one of the storage backends. The blob itself never touches the database.
package models

import "time"

// Attachment is a file attached to a note.
type Attachment struct {
	ID          string    `db:"id" json:"id"`
	TenantID    string    `db:"tenant_id" json:"tenant_id"`
	NoteID      string    `db:"note_id" json:"note_id"`
	UploaderID  string    `db:"uploader_id" json:"uploader_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	StoragePath string    `db:"storage_path" json:"-"`
	Checksum    string    `db:"checksum" json:"checksum"` // SHA256 from the storage backend
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
