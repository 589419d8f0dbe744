package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister     AuditAction = "REGISTER"
	AuditActionLogin        AuditAction = "LOGIN"
	AuditActionOpenAccount  AuditAction = "OPEN_ACCOUNT"
	AuditActionDeposit      AuditAction = "DEPOSIT"
	AuditActionWithdrawal   AuditAction = "WITHDRAWAL"
	AuditActionTransfer     AuditAction = "TRANSFER"
	AuditActionReversal     AuditAction = "REVERSAL"
	AuditActionIssueCard    AuditAction = "ISSUE_CARD"
	AuditActionAdminAdjust  AuditAction = "ADMIN_ADJUST"
	AuditActionVerifyUser   AuditAction = "VERIFY_USER"
	AuditActionLockUser     AuditAction = "LOCK_USER"
	AuditActionUnlockUser   AuditAction = "UNLOCK_USER"
	AuditActionKYCUpdate    AuditAction = "KYC_UPDATE"
	AuditActionRotateKeys   AuditAction = "ROTATE_KEYS"
	AuditActionUpdateStatus AuditAction = "UPDATE_ACCOUNT_STATUS"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	UserID       *uuid.UUID  `json:"user_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
