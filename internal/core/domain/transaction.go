package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeFee         TransactionType = "fee"
	TransactionTypeInterest    TransactionType = "interest"
)

// IsCredit returns true for types that increase the account balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeTransferIn, TransactionTypeInterest:
		return true
	}
	return false
}

// Offset returns the type of the offsetting entry used to reverse
// a committed transaction of this type.
func (t TransactionType) Offset() TransactionType {
	switch t {
	case TransactionTypeDeposit:
		return TransactionTypeWithdrawal
	case TransactionTypeWithdrawal:
		return TransactionTypeDeposit
	case TransactionTypeTransferIn:
		return TransactionTypeTransferOut
	case TransactionTypeTransferOut:
		return TransactionTypeTransferIn
	case TransactionTypeFee:
		return TransactionTypeInterest
	case TransactionTypeInterest:
		return TransactionTypeFee
	}
	return t
}

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// Transaction categories used for non-customer-initiated entries.
const (
	CategoryGeneral         = "general"
	CategoryTransfer        = "transfer"
	CategoryInitialDeposit  = "initial_deposit"
	CategoryAdminAdjustment = "admin_adjustment"
	CategoryReversal        = "reversal"
)

// Transaction represents an immutable, append-only ledger entry.
// Amount is always positive; the type determines the sign applied to
// the account balance. Committed rows are never edited — corrections
// are new offsetting entries referencing the original.
type Transaction struct {
	ID                    uuid.UUID         `json:"id"`
	AccountID             uuid.UUID         `json:"account_id"`
	TransactionType       TransactionType   `json:"transaction_type"`
	Amount                int64             `json:"amount"` // cents, > 0
	Description           string            `json:"description"`
	Category              string            `json:"category"`
	CounterpartyAccountID *uuid.UUID        `json:"counterparty_account_id,omitempty"`
	TransferID            *uuid.UUID        `json:"transfer_id,omitempty"`
	OriginalTransactionID *uuid.UUID        `json:"original_transaction_id,omitempty"`
	Status                TransactionStatus `json:"status"`
	CreatedAt             time.Time         `json:"created_at"`
	ProcessedAt           *time.Time        `json:"processed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted ||
		t.Status == TransactionStatusFailed ||
		t.Status == TransactionStatusReversed
}

// IsReversible returns true if this entry can be offset by a reversal.
func (t *Transaction) IsReversible() bool {
	return t.Status == TransactionStatusCompleted && t.OriginalTransactionID == nil
}
