// context.go provides typed accessors for the values the middleware chain
// stores on the request context. Handlers behind the corresponding middleware
// may assume the value is present; the boolean-returning forms are for
// handlers on optionally-authenticated routes.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noteplane/noteplane/internal/db/models"
)

// CurrentUser returns the authenticated user, or nil on anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentTenant returns the resolved tenant, or nil when none was resolved.
func CurrentTenant(c *gin.Context) *models.Tenant {
	if v, ok := c.Get(TenantKey); ok {
		if tenant, ok := v.(*models.Tenant); ok {
			return tenant
		}
	}
	return nil
}

// CurrentMembership returns the caller's membership in the resolved tenant.
// Only set behind RequireMember.
func CurrentMembership(c *gin.Context) *models.Membership {
	if v, ok := c.Get(MembershipKey); ok {
		if member, ok := v.(*models.Membership); ok {
			return member
		}
	}
	return nil
}
