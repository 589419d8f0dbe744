package domain

import (
	"time"

	"github.com/google/uuid"
)

// CardStatus represents the lifecycle state of a card.
type CardStatus string

const (
	CardStatusActive   CardStatus = "active"
	CardStatusInactive CardStatus = "inactive"
	CardStatusBlocked  CardStatus = "blocked"
)

// Card represents a payment card linked to an account. The PAN is held
// only as a keyring ciphertext plus a deterministic keyed fingerprint
// used for the uniqueness check; Last4 exists for masked display.
type Card struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	AccountID       uuid.UUID  `json:"account_id"`
	NumberEncrypted string     `json:"-"`
	Fingerprint     string     `json:"-"`
	Last4           string     `json:"last4"`
	Status          CardStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsUsable returns true if the card may be used for payments.
func (c *Card) IsUsable() bool {
	return c.Status == CardStatusActive
}
