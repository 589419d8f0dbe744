package middleware

import (
	"corebank/internal/core/domain"
	"corebank/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that records successful write
// operations. It maps HTTP methods and paths to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		action, resourceType := mapPathToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var userID *uuid.UUID
		if uid, exists := c.Get(CtxUserID); exists {
			if id, ok := uid.(uuid.UUID); ok {
				userID = &id
			}
		}

		details := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}

		auditSvc.Log(c.Request.Context(), ports.AuditEntry{
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("id"),
			Details:      details,
			IPAddress:    c.ClientIP(),
		})
	}
}

func mapPathToAction(route, method string) (domain.AuditAction, string) {
	switch {
	case route == "/api/v1/auth/register" && method == "POST":
		return domain.AuditActionRegister, "user"
	case route == "/api/v1/auth/login" && method == "POST":
		return domain.AuditActionLogin, "session"
	case route == "/api/v1/accounts" && method == "POST":
		return domain.AuditActionOpenAccount, "account"
	case route == "/api/v1/deposits" && method == "POST":
		return domain.AuditActionDeposit, "transaction"
	case route == "/api/v1/withdrawals" && method == "POST":
		return domain.AuditActionWithdrawal, "transaction"
	case route == "/api/v1/transfers" && method == "POST":
		return domain.AuditActionTransfer, "transfer"
	case route == "/api/v1/transactions/:id/reverse" && method == "POST":
		return domain.AuditActionReversal, "transaction"
	case route == "/api/v1/cards" && method == "POST":
		return domain.AuditActionIssueCard, "card"
	case route == "/api/v1/admin/users/:id/adjust-balance" && method == "POST":
		return domain.AuditActionAdminAdjust, "account"
	case route == "/api/v1/admin/users/:id/verify" && method == "POST":
		return domain.AuditActionVerifyUser, "user"
	case route == "/api/v1/admin/users/:id/lock" && method == "POST":
		return domain.AuditActionLockUser, "user"
	case route == "/api/v1/admin/users/:id/unlock" && method == "POST":
		return domain.AuditActionUnlockUser, "user"
	case route == "/api/v1/admin/users/:id/kyc" && method == "PATCH":
		return domain.AuditActionKYCUpdate, "user"
	case route == "/api/v1/admin/accounts/:id/status" && method == "PATCH":
		return domain.AuditActionUpdateStatus, "account"
	case route == "/api/v1/admin/rotate-keys" && method == "POST":
		return domain.AuditActionRotateKeys, "keyring"
	}
	return "", ""
}
