// Package accounts implements the HTTP handlers for registration and session
// management: register, login, token refresh, logout, profile, and tenant
// switching.
package accounts

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/config"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/middleware"
	"github.com/noteplane/noteplane/internal/services"
)

// Handlers serves the /api/v1/auth endpoints.
type Handlers struct {
	cfg         *config.Config
	accounts    *services.AccountService
	memberships *repositories.MembershipRepository
}

// NewHandlers creates a new accounts Handlers instance
func NewHandlers(cfg *config.Config, accounts *services.AccountService, memberships *repositories.MembershipRepository) *Handlers {
	return &Handlers{
		cfg:         cfg,
		accounts:    accounts,
		memberships: memberships,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Register a new account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      201  {object}  map[string]interface{}  "user"
// @Failure      400  {object}  map[string]interface{}  "Validation error"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /api/v1/auth/register [post]
func (h *Handlers) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.cfg.Auth.AllowPublicSignup {
			apierr.Respond(c, apierr.Forbidden("public signup is disabled"))
			return
		}

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("email, name, and password are required"))
			return
		}

		user, err := h.accounts.Register(c.Request.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"user":    user,
		})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Log in
// @Description  Verifies credentials and issues an access/refresh token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user, tokens"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Router       /api/v1/auth/login [post]
func (h *Handlers) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("email and password are required"))
			return
		}

		user, pair, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    user,
			"tokens":  pair,
		})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh rotates the presented refresh token and returns a fresh pair.
func (h *Handlers) Refresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Unauthorized("refresh token required"))
			return
		}

		pair, err := h.accounts.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"tokens":  pair,
		})
	}
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	// All revokes every session of the user instead of just the presented one
	All bool `json:"all"`
}

// Logout revokes the presented refresh token, or every token of the user when
// all=true. The access token remains valid until its own expiry.
func (h *Handlers) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		var req logoutRequest
		_ = c.ShouldBindJSON(&req)

		if req.All {
			if err := h.accounts.LogoutAll(c.Request.Context(), user.ID); err != nil {
				apierr.Respond(c, err)
				return
			}
		} else {
			if err := h.accounts.Logout(c.Request.Context(), req.RefreshToken); err != nil {
				apierr.Respond(c, err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// Me returns the authenticated user's profile and workspace memberships.
func (h *Handlers) Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		tenants, err := h.memberships.ListTenantsForUser(c.Request.Context(), user.ID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    user,
			"tenants": tenants,
		})
	}
}

type switchTenantRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
}

// SwitchTenant re-reads the caller's membership in the requested workspace and
// issues an access token scoped to it.
func (h *Handlers) SwitchTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		var req switchTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.Validation("tenant_id is required"))
			return
		}

		token, err := h.accounts.SwitchTenant(c.Request.Context(), user, req.TenantID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"access_token": token,
		})
	}
}
