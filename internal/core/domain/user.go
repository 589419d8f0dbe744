package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// KYCStatus represents the state of a user's identity verification.
type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusInReview KYCStatus = "in_review"
	KYCStatusApproved KYCStatus = "approved"
	KYCStatusRejected KYCStatus = "rejected"
)

// EncryptedPII holds the independently encrypted PII fields of a user.
// Each field is an opaque keyring token, never plaintext. Empty string
// means the field was never supplied.
type EncryptedPII struct {
	Phone       string `json:"-"`
	SSN         string `json:"-"`
	DateOfBirth string `json:"-"`
	Street      string `json:"-"`
	City        string `json:"-"`
	State       string `json:"-"`
	Zip         string `json:"-"`
}

// User represents a registered customer or administrator.
type User struct {
	ID             uuid.UUID    `json:"id"`
	MemberNumber   int64        `json:"member_number"`
	Email          string       `json:"email"`
	DisplayName    string       `json:"display_name"`
	PasswordHash   string       `json:"-"` // Never expose
	Role           Role         `json:"role"`
	EmailVerified  bool         `json:"email_verified"`
	Verified       bool         `json:"verified"` // Banking unlocked by admin
	Locked         bool         `json:"locked"`
	LockReason     string       `json:"lock_reason,omitempty"`
	KYCStatus      KYCStatus    `json:"kyc_status"`
	MarketingOptIn bool         `json:"marketing_opt_in"`
	PII            EncryptedPII `json:"-"`
	SSNFingerprint string       `json:"-"` // Deterministic keyed digest for duplicate detection
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanBank returns true if the user may hold accounts and move money.
func (u *User) CanBank() bool {
	return u.Verified && !u.Locked
}

// kycTransitions lists the legal KYC state machine edges.
var kycTransitions = map[KYCStatus][]KYCStatus{
	KYCStatusPending:  {KYCStatusInReview},
	KYCStatusInReview: {KYCStatusApproved, KYCStatusRejected},
	KYCStatusRejected: {KYCStatusInReview},
}

// CanTransitionKYC reports whether the KYC status may move to target.
func (u *User) CanTransitionKYC(target KYCStatus) bool {
	for _, next := range kycTransitions[u.KYCStatus] {
		if next == target {
			return true
		}
	}
	return false
}
