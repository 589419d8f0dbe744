package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a ledger event from the account holder's
// point of view.
type NotificationType string

const (
	NotificationDeposit     NotificationType = "deposit"
	NotificationWithdrawal  NotificationType = "withdrawal"
	NotificationTransferIn  NotificationType = "transfer_in"
	NotificationTransferOut NotificationType = "transfer_out"
)

// Notification is a durable record of a committed ledger event,
// produced after commit and never in the same store transaction as the
// money movement it describes.
type Notification struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"user_id"`
	AccountID    uuid.UUID        `json:"account_id"`
	Type         NotificationType `json:"type"`
	Amount       int64            `json:"amount"`
	BalanceAfter int64            `json:"balance_after"`
	Description  string           `json:"description"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"created_at"`
}
