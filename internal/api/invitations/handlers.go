// Package invitations implements the HTTP handlers for the invitation
// lifecycle. Tenant-scoped routes (issue, list, revoke) sit behind the
// membership gate; token routes (preview, accept, decline) are addressed by
// the invitation's secret token and gated on the invitee's identity instead.
package invitations

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/middleware"
	"github.com/noteplane/noteplane/internal/services"
)

// Handlers serves the invitation endpoints.
type Handlers struct {
	invitations *services.InvitationService
}

// NewHandlers creates a new invitations Handlers instance
func NewHandlers(invitations *services.InvitationService) *Handlers {
	return &Handlers{invitations: invitations}
}

type issueRequest struct {
	Email string      `json:"email" binding:"required"`
	Role  models.Role `json:"role" binding:"required"`
}

// Issue creates a pending invitation for an email address.
func (h *Handlers) Issue() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.CurrentMembership(c)

		var req issueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("email and role are required"))
			return
		}

		inv, err := h.invitations.Issue(c.Request.Context(), actor, req.Email, req.Role)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		// The token is returned exactly once, here. Listings and previews
		// never include it, so the issuer must capture it from this response
		// to build the acceptance link.
		c.JSON(http.StatusCreated, gin.H{
			"success":    true,
			"invitation": inv,
			"token":      inv.Token,
		})
	}
}

// List returns the workspace's invitations, optionally filtered by status.
// Overdue pending invitations are transitioned to expired on the way out.
func (h *Handlers) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)
		status := models.InvitationStatus(c.Query("status"))

		list, err := h.invitations.List(c.Request.Context(), tenant.ID, status)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"invitations": list,
		})
	}
}

// Revoke withdraws a pending invitation.
func (h *Handlers) Revoke() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		if err := h.invitations.Revoke(c.Request.Context(), tenant.ID, c.Param("id")); err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// Preview returns the invitation behind a token so an acceptance page can show
// what is being offered before the user commits.
func (h *Handlers) Preview() gin.HandlerFunc {
	return func(c *gin.Context) {
		inv, err := h.invitations.Preview(c.Request.Context(), c.Param("token"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		// The secret token is only ever echoed back to its holder; the row's
		// other identifiers stay private.
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"invitation": gin.H{
				"tenant_id":  inv.TenantID,
				"email":      inv.Email,
				"role":       inv.Role,
				"status":     inv.Status,
				"expires_at": inv.ExpiresAt,
			},
		})
	}
}

// Accept resolves a pending invitation into a membership for the caller.
func (h *Handlers) Accept() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		member, err := h.invitations.Accept(c.Request.Context(), user, c.Param("token"))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success":    true,
			"membership": member,
		})
	}
}

// Decline resolves a pending invitation to rejected.
func (h *Handlers) Decline() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		if err := h.invitations.Decline(c.Request.Context(), user, c.Param("token")); err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
