package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountType represents the kind of deposit account.
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusFrozen    AccountStatus = "frozen"
	AccountStatusClosed    AccountStatus = "closed"
)

// Account represents a monetary ledger owned by exactly one user.
// Balance is in the smallest currency unit (cents) and is only ever
// mutated together with a transaction append inside one store transaction.
type Account struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	AccountNumber string        `json:"account_number"`
	RoutingNumber string        `json:"routing_number"`
	AccountType   AccountType   `json:"account_type"`
	Balance       int64         `json:"balance"` // cents
	Currency      string        `json:"currency"`
	Status        AccountStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CanTransact returns true if money may move in or out of the account.
func (a *Account) CanTransact() bool {
	return a.Status == AccountStatusActive
}

// CanReceive returns true if the account may be credited. Suspended
// accounts still accept incoming funds; frozen and closed ones do not.
func (a *Account) CanReceive() bool {
	return a.Status == AccountStatusActive || a.Status == AccountStatusSuspended
}
