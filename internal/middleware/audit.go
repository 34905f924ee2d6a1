// audit.go provides Gin middleware that records authenticated write operations
// to the audit log table, asynchronously so the response is never delayed by
// the audit write.
package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/noteplane/noteplane/internal/config"
	"github.com/noteplane/noteplane/internal/db/models"
	"github.com/noteplane/noteplane/internal/db/repositories"
	"github.com/noteplane/noteplane/internal/safego"
)

// AuditMiddleware logs requests to the audit_logs table after the handler has
// run. By default only successful write operations are recorded; the audit
// config can widen that to reads and failed requests.
//
// The write happens in a goroutine with its own 5 second deadline, so a slow
// or failing audit insert costs the client nothing. A lost audit row is
// logged and tolerated; audit here is an operational trail, not a ledger.
func AuditMiddleware(auditRepo *repositories.AuditRepository, auditCfg *config.AuditConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request first
		c.Next()

		if c.Request.Method == "OPTIONS" {
			return
		}

		logReadOps := auditCfg != nil && auditCfg.LogReadOperations
		logFailedReqs := auditCfg != nil && auditCfg.LogFailedRequests

		isReadOp := c.Request.Method == "GET"
		isFailed := c.Writer.Status() >= 400

		if isReadOp && !logReadOps {
			return
		}
		if isFailed && !logFailedReqs {
			return
		}

		userID, _ := c.Get(UserIDKey)
		tenantID, _ := c.Get(TenantIDKey)

		path := c.Request.URL.Path
		resourceType, action := classifyRequest(path, c.Request.Method)
		ipAddress := c.ClientIP()

		auditLog := &models.AuditLog{
			Action:    action,
			IPAddress: &ipAddress,
			CreatedAt: time.Now(),
		}
		if resourceType != "" {
			auditLog.ResourceType = &resourceType
		}
		if uid, ok := userID.(string); ok && uid != "" {
			auditLog.UserID = &uid
		}
		if tid, ok := tenantID.(string); ok && tid != "" {
			auditLog.TenantID = &tid
		}

		metadata := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        path,
			"status_code": c.Writer.Status(),
		}
		if requestID, ok := c.Get(RequestIDKey); ok {
			metadata["request_id"] = requestID
		}
		auditLog.Metadata = metadata

		// Async log creation (non-blocking)
		safego.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := auditRepo.CreateAuditLog(ctx, auditLog); err != nil {
				slog.Error("failed to write audit log", "action", auditLog.Action, "error", err)
			}
		})
	}
}

// classifyRequest infers the resource type and a dotted action name from the
// request path and method. Falls back to "METHOD /path" when the path does not
// match a known resource.
func classifyRequest(path, method string) (resourceType, action string) {
	switch {
	case strings.Contains(path, "/invitations"):
		resourceType = "invitation"
		switch {
		case strings.HasSuffix(path, "/accept"):
			action = "invitation.accept"
		case strings.HasSuffix(path, "/decline"):
			action = "invitation.decline"
		case method == "POST":
			action = "invitation.create"
		case method == "DELETE":
			action = "invitation.revoke"
		}
	case strings.Contains(path, "/members"):
		resourceType = "membership"
		switch {
		case strings.HasSuffix(path, "/role"):
			action = "member.role_change"
		case strings.HasSuffix(path, "/suspend"):
			action = "member.suspend"
		case strings.HasSuffix(path, "/unsuspend"):
			action = "member.unsuspend"
		case strings.HasSuffix(path, "/leave"):
			action = "member.leave"
		case method == "DELETE":
			action = "member.remove"
		}
	case strings.Contains(path, "/attachments"):
		resourceType = "attachment"
	case strings.Contains(path, "/notes"):
		resourceType = "note"
	case strings.Contains(path, "/tenants") || strings.Contains(path, "/workspace"):
		resourceType = "tenant"
		if strings.HasSuffix(path, "/transfer-ownership") {
			action = "tenant.transfer_ownership"
		}
	case strings.Contains(path, "/auth"):
		resourceType = "session"
	}

	if action == "" {
		action = method + " " + path
	}
	return resourceType, action
}
