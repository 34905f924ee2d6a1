// auth.go provides Gin middleware for bearer-token authentication. It verifies
// the JWT access token, loads the user it names, and stores both in the request
// context for downstream middleware and handlers.
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/noteplane/noteplane/internal/apierr"
	"github.com/noteplane/noteplane/internal/auth"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/telemetry"
)

// Context keys set by AuthMiddleware.
const (
	// UserKey holds the authenticated *models.User.
	UserKey = "user"
	// UserIDKey holds the authenticated user's ID string.
	UserIDKey = "user_id"
	// ClaimsKey holds the verified *auth.Claims from the access token.
	ClaimsKey = "claims"
)

// AuthMiddleware authenticates requests via the Authorization: Bearer header.
//
// The token is verified cryptographically and then the user row is loaded, so
// a deleted account is rejected even while its token is still time-valid. An
// expired token gets a distinct message so clients know to refresh rather
// than re-login. Tenant and role claims in the token are NOT trusted here;
// membership is re-read per request by RequireMember.
func AuthMiddleware(users *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abortUnauthorized(c, "authorization header with bearer token required")
			return
		}

		claims, err := auth.VerifyAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abortUnauthorized(c, "access token expired")
				return
			}
			abortUnauthorized(c, "invalid access token")
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			apierr.Abort(c, err)
			return
		}
		if user == nil {
			// Token outlived the account.
			abortUnauthorized(c, "invalid access token")
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// OptionalAuthMiddleware authenticates the request if a valid bearer token is
// present but lets anonymous requests through. Used on routes that behave
// differently for logged-in users (e.g. invitation preview).
func OptionalAuthMiddleware(users *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := auth.VerifyAccessToken(tokenString)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || user == nil {
			c.Next()
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// Returns "" when the header is absent or uses a different scheme.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, msg string) {
	telemetry.AuthFailuresTotal.WithLabelValues("unauthorized").Inc()
	apierr.Abort(c, apierr.Unauthorized(msg))
}
