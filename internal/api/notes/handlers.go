// Package notes implements the HTTP handlers for tenant-scoped notes.
package notes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/middleware"
)

// Handlers serves the tenant-scoped /notes endpoints.
type Handlers struct {
	notes *repositories.NoteRepository
}

// NewHandlers creates a new notes Handlers instance
func NewHandlers(notes *repositories.NoteRepository) *Handlers {
	return &Handlers{notes: notes}
}

type noteRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

// Create inserts a note authored by the caller.
func (h *Handlers) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)
		member := middleware.CurrentMembership(c)

		var req noteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("title is required"))
			return
		}

		note := &models.Note{
			TenantID: tenant.ID,
			AuthorID: member.UserID,
			Title:    req.Title,
			Body:     req.Body,
		}
		if err := h.notes.Create(c.Request.Context(), note); err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"note":    note,
		})
	}
}

// List returns the workspace's notes, most recently updated first.
// GET /notes?page=1&per_page=20
func (h *Handlers) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		list, err := h.notes.ListByTenant(c.Request.Context(), tenant.ID, perPage, (page-1)*perPage)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"notes":   list,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
			},
		})
	}
}

// Get returns a single note. IDs from other tenants read as missing.
func (h *Handlers) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		note, err := h.notes.Get(c.Request.Context(), tenant.ID, c.Param("note_id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if note == nil {
			apierr.Respond(c, apierr.NotFound("note not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"note":    note,
		})
	}
}

// Update replaces a note's title and body.
func (h *Handlers) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		var req noteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("title is required"))
			return
		}

		note := &models.Note{
			ID:       c.Param("note_id"),
			TenantID: tenant.ID,
			Title:    req.Title,
			Body:     req.Body,
		}
		updated, err := h.notes.Update(c.Request.Context(), note)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if !updated {
			apierr.Respond(c, apierr.NotFound("note not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"note":    note,
		})
	}
}

// Delete removes a note; its attachment rows cascade via the schema. Blobs are
// left to the storage backend's retention.
func (h *Handlers) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		deleted, err := h.notes.Delete(c.Request.Context(), tenant.ID, c.Param("note_id"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if !deleted {
			apierr.Respond(c, apierr.NotFound("note not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
