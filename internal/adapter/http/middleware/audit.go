package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	method string
	path   string
}

type auditTarget struct {
	action       domain.AuditAction
	resourceType string
}

// auditedRoutes maps route patterns (gin FullPath) to audit actions.
var auditedRoutes = map[auditRoute]auditTarget{
	{http.MethodPost, "/api/v1/auth/challenge"}:                           {domain.AuditActionChallenge, "session"},
	{http.MethodPost, "/api/v1/auth/login"}:                               {domain.AuditActionLogin, "session"},
	{http.MethodPost, "/api/v1/wallets"}:                                  {domain.AuditActionCreateWallet, "wallet"},
	{http.MethodPost, "/api/v1/wallets/:handle/transactions"}:             {domain.AuditActionSubmit, "transaction"},
	{http.MethodPost, "/api/v1/wallets/:handle/governance"}:               {domain.AuditActionSubmitGovernance, "transaction"},
	{http.MethodPost, "/api/v1/wallets/:handle/transactions/:id/confirm"}: {domain.AuditActionConfirm, "transaction"},
	{http.MethodPost, "/api/v1/wallets/:handle/transactions/:id/revoke"}:  {domain.AuditActionRevoke, "transaction"},
	{http.MethodPost, "/api/v1/wallets/:handle/transactions/:id/execute"}: {domain.AuditActionExecute, "transaction"},
}

// AuditLog creates an audit middleware that logs successful write operations.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}

		target, ok := auditedRoutes[auditRoute{c.Request.Method, c.FullPath()}]
		if !ok {
			return
		}

		var member *domain.Member
		if m, ok := Member(c); ok {
			member = &m
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			Member:       member,
			Action:       target.action,
			ResourceType: target.resourceType,
			ResourceID:   resourceID(c),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

// resourceID prefers an id the handler recorded, then the route params.
func resourceID(c *gin.Context) string {
	if id := c.GetString(CtxResourceID); id != "" {
		return id
	}
	id := c.Param("handle")
	if tx := c.Param("id"); tx != "" {
		id += "/" + tx
	}
	return id
}
