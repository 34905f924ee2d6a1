// Package members implements the HTTP handlers for workspace membership
// management: listing, role changes, suspension, removal, and self-leave.
// The mutation rules live in the services layer; these handlers only bind
// requests and shape responses.
package members

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/middleware"
	"github.com/noteplane/noteplane/internal/services"
)

// Handlers serves the tenant-scoped /members endpoints.
type Handlers struct {
	members *services.MemberService
}

// NewHandlers creates a new members Handlers instance
func NewHandlers(members *services.MemberService) *Handlers {
	return &Handlers{members: members}
}

// List returns every member of the workspace with user details.
func (h *Handlers) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		list, err := h.members.List(c.Request.Context(), tenant.ID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"members": list,
		})
	}
}

type changeRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// ChangeRole sets a member's role, subject to the mutation rules.
func (h *Handlers) ChangeRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.CurrentMembership(c)

		var req changeRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("role is required"))
			return
		}

		member, err := h.members.ChangeRole(c.Request.Context(), actor, c.Param("user_id"), req.Role)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"member":  member,
		})
	}
}

// Suspend marks a member suspended; their requests are rejected until
// unsuspended but the membership row survives.
func (h *Handlers) Suspend() gin.HandlerFunc {
	return h.setSuspended(true)
}

// Unsuspend lifts a member's suspension.
func (h *Handlers) Unsuspend() gin.HandlerFunc {
	return h.setSuspended(false)
}

func (h *Handlers) setSuspended(suspended bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.CurrentMembership(c)

		member, err := h.members.SetSuspended(c.Request.Context(), actor, c.Param("user_id"), suspended)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"member":  member,
		})
	}
}

// Remove deletes another member's membership, subject to the mutation rules.
func (h *Handlers) Remove() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.CurrentMembership(c)

		if err := h.members.Remove(c.Request.Context(), actor, c.Param("user_id")); err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// Leave removes the caller's own membership. The OWNER cannot leave; they must
// transfer ownership or delete the workspace.
func (h *Handlers) Leave() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.CurrentMembership(c)

		if err := h.members.Leave(c.Request.Context(), actor); err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
