// tenant.go provides Gin middleware for tenant resolution and membership
// enforcement. ResolveTenant decides WHICH workspace a request targets;
// RequireMember decides WHETHER the caller may touch it; RequireMinRole
// decides WHAT they may do inside it.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/auth"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/telemetry"
)

// Context keys set by the tenant middleware chain.
const (
	// TenantKey holds the resolved *models.Tenant.
	TenantKey = "tenant"
	// TenantIDKey holds the resolved tenant's ID string.
	TenantIDKey = "tenant_id"
	// MembershipKey holds the caller's *models.Membership in the resolved tenant.
	MembershipKey = "membership"
)

// ResolveTenant determines the tenant a request targets, in priority order:
//
//  1. the :tenant_id route parameter
//  2. the X-Tenant-ID request header
//  3. the tenant_id claim in the access token
//
// The token claim is only a routing hint for workspace-implicit endpoints; it
// carries no authorization weight because RequireMember re-reads the
// membership row regardless of source.
//
// Soft-deleted tenants resolve as NOT_FOUND, indistinguishable from tenants
// that never existed. A request with no resolvable tenant passes through
// unscoped; RequireTenant rejects it on routes that need one.
func ResolveTenant(tenants *repositories.TenantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.Param("tenant_id")
		if tenantID == "" {
			tenantID = c.GetHeader("X-Tenant-ID")
		}
		if tenantID == "" {
			if v, ok := c.Get(ClaimsKey); ok {
				if claims, ok := v.(*auth.Claims); ok {
					tenantID = claims.TenantID
				}
			}
		}
		if tenantID == "" {
			c.Next()
			return
		}

		tenant, err := tenants.GetByID(c.Request.Context(), tenantID)
		if err != nil {
			apierr.Abort(c, err)
			return
		}
		if tenant == nil || tenant.Status == models.TenantDeleted {
			apierr.Abort(c, apierr.NotFound("tenant not found"))
			return
		}

		c.Set(TenantKey, tenant)
		c.Set(TenantIDKey, tenant.ID)

		c.Next()
	}
}

// RequireTenant rejects requests that reached a tenant-scoped route without a
// resolvable tenant.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(TenantIDKey); !ok {
			telemetry.AuthFailuresTotal.WithLabelValues("tenant_required").Inc()
			apierr.Abort(c, apierr.TenantRequired("no workspace specified: provide a tenant in the URL or X-Tenant-ID header"))
			return
		}
		c.Next()
	}
}

// RequireMember verifies the authenticated user holds an active membership in
// the resolved tenant. Must run after AuthMiddleware and ResolveTenant.
//
// The membership row is read fresh on every request, so suspensions, removals,
// and role changes take effect immediately rather than at token expiry. A
// suspended member receives exactly the same FORBIDDEN as a non-member, so
// probing cannot distinguish "suspended" from "never belonged".
//
// Write requests into a suspended tenant are rejected for every member; reads
// stay available so data is not held hostage during a suspension.
func RequireMember(memberships *repositories.MembershipRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey)
		if userID == "" {
			abortUnauthorized(c, "authentication required")
			return
		}
		tenantID := c.GetString(TenantIDKey)
		if tenantID == "" {
			telemetry.AuthFailuresTotal.WithLabelValues("tenant_required").Inc()
			apierr.Abort(c, apierr.TenantRequired("no workspace specified: provide a tenant in the URL or X-Tenant-ID header"))
			return
		}

		member, err := memberships.Get(c.Request.Context(), tenantID, userID)
		if err != nil {
			apierr.Abort(c, err)
			return
		}
		if member == nil || member.IsSuspended {
			abortForbidden(c, "you do not have access to this workspace")
			return
		}

		if v, ok := c.Get(TenantKey); ok {
			if tenant, ok := v.(*models.Tenant); ok && tenant.Status == models.TenantSuspended && isWriteMethod(c.Request.Method) {
				abortForbidden(c, "workspace is suspended")
				return
			}
		}

		c.Set(MembershipKey, member)

		c.Next()
	}
}

// RequireMinRole rejects callers whose role in the resolved tenant is below
// min. Must run after RequireMember.
func RequireMinRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(MembershipKey)
		if !ok {
			abortForbidden(c, "you do not have access to this workspace")
			return
		}
		member, ok := v.(*models.Membership)
		if !ok || !member.Role.AtLeast(min) {
			abortForbidden(c, "this action requires the "+string(min)+" role or higher")
			return
		}
		c.Next()
	}
}

func isWriteMethod(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

func abortForbidden(c *gin.Context, msg string) {
	telemetry.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
	apierr.Abort(c, apierr.Forbidden(msg))
}
