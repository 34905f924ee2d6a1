// Package api wires together all HTTP routes for the Noteplane backend.
//
// Route grouping philosophy:
//   - /api/v1/auth carries session lifecycle (register, login, refresh,
//     logout). Only logout, me, and switch-tenant require a bearer token.
//   - /api/v1/invitations/:token routes are addressed by the invitation's
//     secret token; accept and decline additionally require the caller to be
//     logged in as the invited email.
//   - /api/v1/tenants/:tenant_id/... routes resolve the workspace from the
//     URL and pass through the full membership gate: authentication, tenant
//     resolution, membership check, then per-route role floors.
//   - /api/v1/workspace/... mirrors the tenant-scoped routes but resolves the
//     workspace from the X-Tenant-ID header or the access token's tenant
//     claim instead of the URL, for clients that pin a workspace per session.
package api

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/noteplane/noteplane/internal/api/accounts"
	"github.com/noteplane/noteplane/internal/api/attachments"
	"github.com/noteplane/noteplane/internal/api/invitations"
	"github.com/noteplane/noteplane/internal/api/members"
	"github.com/noteplane/noteplane/internal/api/notes"
	"github.com/noteplane/noteplane/internal/api/tenants"
	"github.com/noteplane/noteplane/internal/config"
	npdb "github.com/noteplane/noteplane/internal/db"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/middleware"
	"github.com/noteplane/noteplane/internal/services"
	"github.com/noteplane/noteplane/internal/storage"

	// Import storage backends to register them
	_ "github.com/noteplane/noteplane/internal/storage/local"
	_ "github.com/noteplane/noteplane/internal/storage/s3"
)

// BackgroundServices holds references to background goroutines and resources
// that must be stopped during graceful shutdown. The caller (cmd/server) is
// responsible for calling Shutdown() when the process receives a termination
// signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize storage backend
	storageBackend, err := storage.NewStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}
	log.Printf("Initialized storage backend: %s", cfg.Storage.DefaultBackend)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	tenantRepo := repositories.NewTenantRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	invitationRepo := repositories.NewInvitationRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Wrap *sql.DB with sqlx for the content repositories
	sqlxDB := npdb.Wrap(db)
	noteRepo := repositories.NewNoteRepository(sqlxDB)
	attachmentRepo := repositories.NewAttachmentRepository(sqlxDB)

	// Initialize services
	accountService := services.NewAccountService(
		userRepo, refreshTokenRepo, membershipRepo,
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL,
	)
	tenantService := services.NewTenantService(tenantRepo, membershipRepo)
	memberService := services.NewMemberService(membershipRepo)
	invitationService := services.NewInvitationService(
		invitationRepo, membershipRepo, userRepo, cfg.Auth.InvitationTTL,
	)

	// Initialize handlers
	accountHandlers := accounts.NewHandlers(cfg, accountService, membershipRepo)
	tenantHandlers := tenants.NewHandlers(tenantService)
	memberHandlers := members.NewHandlers(memberService)
	invitationHandlers := invitations.NewHandlers(invitationService)
	noteHandlers := notes.NewHandlers(noteRepo)
	attachmentHandlers := attachments.NewHandlers(
		attachmentRepo, noteRepo, storageBackend,
		cfg.Storage.DefaultBackend, cfg.Uploads.MaxSizeBytes,
	)

	// Initialize rate limiters
	generalLimiter, authLimiter, uploadLimiter, stoppers := buildRateLimiters(cfg)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint (includes storage backend probe)
	router.GET("/ready", readinessHandler(db, storageBackend))

	// API version
	router.GET("/version", versionHandler())

	auth := middleware.AuthMiddleware(userRepo)
	member := middleware.RequireMember(membershipRepo)

	apiV1 := router.Group("/api/v1")
	{
		// Session lifecycle endpoints, rate limited harder than the rest of
		// the API because login and refresh are the credential-stuffing
		// surface.
		authGroup := apiV1.Group("/auth")
		if cfg.Security.RateLimiting.Enabled {
			authGroup.Use(middleware.RateLimitMiddleware(authLimiter))
		}
		{
			authGroup.POST("/register", accountHandlers.Register())
			authGroup.POST("/login", accountHandlers.Login())
			authGroup.POST("/refresh", accountHandlers.Refresh())

			authGroup.POST("/logout", auth, accountHandlers.Logout())
			authGroup.GET("/me", auth, accountHandlers.Me())
			authGroup.POST("/switch-tenant", auth, accountHandlers.SwitchTenant())
		}

		// Invitation token endpoints. Preview works logged out so an
		// acceptance page can render before the user signs in; accept and
		// decline need the invitee's identity.
		inviteGroup := apiV1.Group("/invitations/:token")
		if cfg.Security.RateLimiting.Enabled {
			inviteGroup.Use(middleware.RateLimitMiddleware(generalLimiter))
		}
		{
			inviteGroup.GET("", middleware.OptionalAuthMiddleware(userRepo), invitationHandlers.Preview())
			inviteGroup.POST("/accept", auth, invitationHandlers.Accept())
			inviteGroup.POST("/decline", auth, invitationHandlers.Decline())
		}

		// Workspace creation and listing are tenant-less: they only need an
		// authenticated user.
		tenantsGroup := apiV1.Group("/tenants")
		tenantsGroup.Use(auth)
		if cfg.Security.RateLimiting.Enabled {
			tenantsGroup.Use(middleware.RateLimitMiddleware(generalLimiter))
		}
		{
			tenantsGroup.POST("", tenantHandlers.Create())
			tenantsGroup.GET("", tenantHandlers.List())
		}

		// Everything below is scoped to one workspace and passes the full
		// gate: auth, tenant resolution, membership, then per-route role
		// floors. The membership row is re-read on every request, so a
		// role change or suspension takes effect immediately.
		scoped := apiV1.Group("/tenants/:tenant_id")
		scoped.Use(auth)
		scoped.Use(middleware.ResolveTenant(tenantRepo))
		scoped.Use(middleware.RequireTenant())
		scoped.Use(member)
		if cfg.Security.RateLimiting.Enabled {
			scoped.Use(middleware.RateLimitMiddleware(generalLimiter))
		}
		if cfg.Audit.Enabled {
			scoped.Use(middleware.AuditMiddleware(auditRepo, &cfg.Audit))
		}
		registerWorkspaceRoutes(scoped, cfg, tenantHandlers, memberHandlers, invitationHandlers, noteHandlers, attachmentHandlers, uploadLimiter)

		// The same routes again, with the workspace resolved from the
		// X-Tenant-ID header or the token's tenant claim instead of the URL.
		// Clients that pin a workspace via switch-tenant use these.
		workspace := apiV1.Group("/workspace")
		workspace.Use(auth)
		workspace.Use(middleware.ResolveTenant(tenantRepo))
		workspace.Use(middleware.RequireTenant())
		workspace.Use(member)
		if cfg.Security.RateLimiting.Enabled {
			workspace.Use(middleware.RateLimitMiddleware(generalLimiter))
		}
		if cfg.Audit.Enabled {
			workspace.Use(middleware.AuditMiddleware(auditRepo, &cfg.Audit))
		}
		registerWorkspaceRoutes(workspace, cfg, tenantHandlers, memberHandlers, invitationHandlers, noteHandlers, attachmentHandlers, uploadLimiter)
	}

	bg := &BackgroundServices{rateLimiters: stoppers}

	return router, bg
}

// registerWorkspaceRoutes mounts the workspace-scoped endpoints on g. The
// group must already carry the auth, tenant resolution, and membership
// middleware; only the per-route role floors are added here.
func registerWorkspaceRoutes(
	g *gin.RouterGroup,
	cfg *config.Config,
	tenantHandlers *tenants.Handlers,
	memberHandlers *members.Handlers,
	invitationHandlers *invitations.Handlers,
	noteHandlers *notes.Handlers,
	attachmentHandlers *attachments.Handlers,
	uploadLimiter middleware.KeyLimiter,
) {
	editor := middleware.RequireMinRole(models.RoleEditor)
	admin := middleware.RequireMinRole(models.RoleAdmin)
	owner := middleware.RequireMinRole(models.RoleOwner)

	// Workspace lifecycle
	g.GET("", tenantHandlers.Get())
	g.PUT("", admin, tenantHandlers.Rename())
	g.DELETE("", owner, tenantHandlers.Delete())
	g.POST("/transfer-ownership", owner, tenantHandlers.TransferOwnership())

	// Membership management. Listing is open to every member; mutations
	// require ADMIN and are further constrained by the mutation rules in the
	// services layer (no self-targeting, no peer-or-above targeting, OWNER
	// role unassignable).
	g.GET("/members", memberHandlers.List())
	g.PUT("/members/:user_id/role", admin, memberHandlers.ChangeRole())
	g.POST("/members/:user_id/suspend", admin, memberHandlers.Suspend())
	g.POST("/members/:user_id/unsuspend", admin, memberHandlers.Unsuspend())
	g.DELETE("/members/:user_id", admin, memberHandlers.Remove())
	g.POST("/members/leave", memberHandlers.Leave())

	// Invitation management (the token-addressed accept/decline routes live
	// outside the workspace scope)
	g.POST("/invitations", admin, invitationHandlers.Issue())
	g.GET("/invitations", admin, invitationHandlers.List())
	g.DELETE("/invitations/:id", admin, invitationHandlers.Revoke())

	// Notes
	g.GET("/notes", noteHandlers.List())
	g.GET("/notes/:note_id", noteHandlers.Get())
	g.POST("/notes", editor, noteHandlers.Create())
	g.PUT("/notes/:note_id", editor, noteHandlers.Update())
	g.DELETE("/notes/:note_id", editor, noteHandlers.Delete())

	// Attachments. Uploads get a stricter rate limit on top of the general
	// one.
	uploadHandlers := []gin.HandlerFunc{editor}
	if cfg.Security.RateLimiting.Enabled {
		uploadHandlers = append(uploadHandlers, middleware.RateLimitMiddleware(uploadLimiter))
	}
	uploadHandlers = append(uploadHandlers, attachmentHandlers.Upload())
	g.POST("/notes/:note_id/attachments", uploadHandlers...)
	g.GET("/notes/:note_id/attachments", attachmentHandlers.ListByNote())
	g.GET("/attachments/:id/download", attachmentHandlers.Download())
	g.DELETE("/attachments/:id", editor, attachmentHandlers.Delete())
}

// buildRateLimiters constructs the three limiter tiers from config. With
// security.rate_limiting.redis_url set the budgets are shared across replicas
// through Redis; otherwise each process keeps in-memory buckets, returned as
// stoppers so their cleanup goroutines can be shut down.
func buildRateLimiters(cfg *config.Config) (general, auth, upload middleware.KeyLimiter, stoppers []*middleware.RateLimiter) {
	generalCfg := middleware.DefaultRateLimitConfig()
	if cfg.Security.RateLimiting.RequestsPerMinute > 0 {
		generalCfg.RequestsPerMinute = cfg.Security.RateLimiting.RequestsPerMinute
	}
	if cfg.Security.RateLimiting.Burst > 0 {
		generalCfg.BurstSize = cfg.Security.RateLimiting.Burst
	}

	authCfg := middleware.AuthRateLimitConfig()
	if cfg.Security.RateLimiting.AuthRequestsPerMinute > 0 {
		authCfg.RequestsPerMinute = cfg.Security.RateLimiting.AuthRequestsPerMinute
	}

	uploadCfg := middleware.UploadRateLimitConfig()

	if cfg.Security.RateLimiting.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Security.RateLimiting.RedisURL)
		if err != nil {
			log.Fatalf("Invalid security.rate_limiting.redis_url: %v", err)
		}
		client := redis.NewClient(opt)
		slog.Info("rate limiting backed by redis", "addr", opt.Addr)
		return middleware.NewRedisRateLimiter(client, generalCfg),
			middleware.NewRedisRateLimiter(client, authCfg),
			middleware.NewRedisRateLimiter(client, uploadCfg),
			nil
	}

	g := middleware.NewRateLimiter(generalCfg)
	a := middleware.NewRateLimiter(authCfg)
	u := middleware.NewRateLimiter(uploadCfg)
	return g, a, u, []*middleware.RateLimiter{g, a, u}
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks database and storage connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "ready: false, error: database not ready"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service.
// Unlike the liveness probe (/health), this also checks the storage backend so
// that a Kubernetes readiness gate fails when uploads/downloads would error.
func readinessHandler(db *sql.DB, storageBackend storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		// Check database connection
		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		// Check storage backend — probe with a known-absent sentinel path.
		// Exists() exercises authentication and network connectivity without
		// creating any state.
		if _, err := storageBackend.Exists(c.Request.Context(), ".readiness-probe"); err != nil {
			checks["storage"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "storage backend not ready",
			})
			return
		}
		checks["storage"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		// Log the request
		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", requestIDString(requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the global
	// handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

func requestIDString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Tenant-ID")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
