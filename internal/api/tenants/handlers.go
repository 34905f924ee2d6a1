// Package tenants implements the HTTP handlers for workspace lifecycle:
// creation, listing, rename, soft delete, and ownership transfer.
package tenants

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/middleware"
	"github.com/noteplane/noteplane/internal/services"
)

// Handlers serves the /api/v1/tenants endpoints.
type Handlers struct {
	tenants *services.TenantService
}

// NewHandlers creates a new tenants Handlers instance
func NewHandlers(tenants *services.TenantService) *Handlers {
	return &Handlers{tenants: tenants}
}

type createRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// Create creates a workspace; the caller becomes its OWNER atomically.
func (h *Handlers) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("name and slug are required"))
			return
		}

		tenant, membership, err := h.tenants.Create(c.Request.Context(), user.ID, req.Name, req.Slug)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success":    true,
			"tenant":     tenant,
			"membership": membership,
		})
	}
}

// List returns the caller's workspaces with their role in each.
func (h *Handlers) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		tenants, err := h.tenants.ListForUser(c.Request.Context(), user.ID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"tenants": tenants,
		})
	}
}

// Get returns the resolved workspace.
func (h *Handlers) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"tenant":  middleware.CurrentTenant(c),
		})
	}
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename changes the workspace display name. The slug is permanent.
func (h *Handlers) Rename() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		var req renameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("name is required"))
			return
		}

		if err := h.tenants.Rename(c.Request.Context(), tenant, req.Name); err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"tenant":  tenant,
		})
	}
}

// Delete soft-deletes the workspace. The rows survive; resolution treats the
// workspace as nonexistent from now on.
func (h *Handlers) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		if err := h.tenants.SoftDelete(c.Request.Context(), tenant.ID); err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

type transferRequest struct {
	NewOwnerID string `json:"new_owner_id" binding:"required"`
}

// TransferOwnership demotes the current owner to ADMIN and promotes the
// target member to OWNER in one transaction.
func (h *Handlers) TransferOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)
		actor := middleware.CurrentMembership(c)

		var req transferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("new_owner_id is required"))
			return
		}

		if err := h.tenants.TransferOwnership(c.Request.Context(), tenant, actor, req.NewOwnerID); err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"tenant":  tenant,
		})
	}
}
