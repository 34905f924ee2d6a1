// Package attachments implements the HTTP handlers for note attachments.
// Metadata lives in the database; the bytes go to the configured storage
// backend. Downloads redirect to a pre-signed URL when the backend can mint
// one, and stream through the API otherwise.
package attachments

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/middleware"
	"github.com/noteplane/noteplane/internal/storage"
	"github.com/noteplane/noteplane/internal/telemetry"
)

// downloadURLTTL bounds how long a minted direct download link stays valid.
const downloadURLTTL = 10 * time.Minute

// Handlers serves the tenant-scoped attachment endpoints.
type Handlers struct {
	attachments *repositories.AttachmentRepository
	notes       *repositories.NoteRepository
	store       storage.Storage
	backendName string
	maxSize     int64
}

// NewHandlers creates a new attachments Handlers instance
func NewHandlers(
	attachments *repositories.AttachmentRepository,
	notes *repositories.NoteRepository,
	store storage.Storage,
	backendName string,
	maxSize int64,
) *Handlers {
	return &Handlers{
		attachments: attachments,
		notes:       notes,
		store:       store,
		backendName: backendName,
		maxSize:     maxSize,
	}
}

// Upload stores a multipart file as an attachment of a note.
// POST /notes/:note_id/attachments, field name "file".
func (h *Handlers) Upload() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)
		member := middleware.CurrentMembership(c)
		noteID := c.Param("note_id")

		note, err := h.notes.Get(c.Request.Context(), tenant.ID, noteID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if note == nil {
			apierr.Respond(c, apierr.NotFound("note not found"))
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			apierr.Respond(c, apierr.Validation("multipart field 'file' is required"))
			return
		}
		if header.Size > h.maxSize {
			apierr.Respond(c, apierr.Validation(fmt.Sprintf("attachment exceeds the %d byte limit", h.maxSize)))
			return
		}

		file, err := header.Open()
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		defer file.Close()

		// Blob names are independent of the metadata row so a failed insert
		// never leaves a row pointing at nothing.
		path := fmt.Sprintf("%s/%s/%s", tenant.ID, noteID, uuid.New().String())
		result, err := h.store.Upload(c.Request.Context(), path, file, header.Size)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		att := &models.Attachment{
			TenantID:    tenant.ID,
			NoteID:      noteID,
			UploaderID:  member.UserID,
			FileName:    header.Filename,
			ContentType: contentType,
			SizeBytes:   result.Size,
			StoragePath: result.Path,
			Checksum:    result.Checksum,
		}
		if err := h.attachments.Create(c.Request.Context(), att); err != nil {
			// Orphaned blob cleanup is best effort.
			_ = h.store.Delete(c.Request.Context(), result.Path)
			apierr.Respond(c, err)
			return
		}

		telemetry.AttachmentUploadsTotal.WithLabelValues(h.backendName).Inc()

		c.JSON(http.StatusCreated, gin.H{
			"success":    true,
			"attachment": att,
		})
	}
}

// ListByNote returns a note's attachments.
func (h *Handlers) ListByNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		list, err := h.attachments.ListByNote(c.Request.Context(), tenant.ID, c.Param("note_id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"attachments": list,
		})
	}
}

// Download serves an attachment: a redirect to a pre-signed URL when the
// backend supports direct URLs, a proxied stream otherwise.
func (h *Handlers) Download() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		att, err := h.attachments.Get(c.Request.Context(), tenant.ID, c.Param("id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if att == nil {
			apierr.Respond(c, apierr.NotFound("attachment not found"))
			return
		}

		url, err := h.store.GetURL(c.Request.Context(), att.StoragePath, downloadURLTTL)
		if err == nil {
			telemetry.AttachmentDownloadsTotal.WithLabelValues(h.backendName).Inc()
			c.Redirect(http.StatusFound, url)
			return
		}
		if err != storage.ErrNoDirectURL {
			apierr.Respond(c, err)
			return
		}

		reader, err := h.store.Download(c.Request.Context(), att.StoragePath)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		defer reader.Close()

		telemetry.AttachmentDownloadsTotal.WithLabelValues(h.backendName).Inc()

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.FileName))
		c.Header("Content-Type", att.ContentType)
		c.Header("Content-Length", fmt.Sprintf("%d", att.SizeBytes))
		c.Status(http.StatusOK)
		_, _ = io.Copy(c.Writer, reader)
	}
}

// Delete removes an attachment's metadata row, then its blob.
func (h *Handlers) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		att, err := h.attachments.Get(c.Request.Context(), tenant.ID, c.Param("id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if att == nil {
			apierr.Respond(c, apierr.NotFound("attachment not found"))
			return
		}

		deleted, err := h.attachments.Delete(c.Request.Context(), tenant.ID, att.ID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if !deleted {
			apierr.Respond(c, apierr.NotFound("attachment not found"))
			return
		}

		// Row first, blob second: a blob delete failure leaves an orphaned
		// blob, never a dangling row.
		_ = h.store.Delete(c.Request.Context(), att.StoragePath)

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
