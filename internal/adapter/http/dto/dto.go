package dto

// RegisterRequest is the request body for customer registration.
type RegisterRequest struct {
	Email          string `json:"email" binding:"required,email,max=254"`
	Password       string `json:"password" binding:"required,min=8,max=128"`
	DisplayName    string `json:"display_name" binding:"required,min=1,max=100"`
	Phone          string `json:"phone,omitempty" binding:"omitempty,max=20"`
	SSN            string `json:"ssn,omitempty" binding:"omitempty,max=11"`
	DateOfBirth    string `json:"date_of_birth,omitempty" binding:"omitempty,max=10"`
	Street         string `json:"street,omitempty" binding:"omitempty,max=200"`
	City           string `json:"city,omitempty" binding:"omitempty,max=100"`
	State          string `json:"state,omitempty" binding:"omitempty,max=50"`
	Zip            string `json:"zip,omitempty" binding:"omitempty,max=10"`
	MarketingOptIn bool   `json:"marketing_opt_in,omitempty"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// OpenAccountRequest is the request body for opening an account.
type OpenAccountRequest struct {
	AccountType    string `json:"account_type" binding:"required,oneof=checking savings"`
	InitialDeposit int64  `json:"initial_deposit,omitempty" binding:"omitempty,gte=0"`
}

// MutationRequest is the request body for deposits and withdrawals.
type MutationRequest struct {
	AccountID   string `json:"account_id" binding:"required,uuid"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description,omitempty" binding:"omitempty,max=200"`
}

// TransferRequest is the request body for transfers between accounts.
type TransferRequest struct {
	FromAccountID  string `json:"from_account_id" binding:"required,uuid"`
	ToAccountID    string `json:"to_account_id" binding:"required,uuid"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	Description    string `json:"description,omitempty" binding:"omitempty,max=200"`
	IdempotencyKey string `json:"idempotency_key,omitempty" binding:"omitempty,safe_id,max=64"`
}

// IssueCardRequest is the request body for issuing a card.
type IssueCardRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
}

// UpdateCardStatusRequest is the request body for card status changes.
type UpdateCardStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive blocked"`
}

// LockUserRequest is the request body for locking a user.
type LockUserRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=200"`
}

// UpdateKYCRequest is the request body for KYC transitions.
type UpdateKYCRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in_review approved rejected"`
}

// AdjustBalanceRequest is the request body for admin balance edits.
// Amount is signed: positive credits, negative debits.
type AdjustBalanceRequest struct {
	AccountID   string `json:"account_id" binding:"required,uuid"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description" binding:"required,min=1,max=200"`
}

// UpdateAccountStatusRequest is the request body for admin account
// status changes.
type UpdateAccountStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended frozen closed"`
}

// RotateKeyRequest is the request body for keyring rotation.
type RotateKeyRequest struct {
	KeyID string `json:"key_id" binding:"required,safe_id,max=32"`
}

// AdminStatsResponse is the response body for the admin dashboard
// aggregates. Monetary totals are in cents.
type AdminStatsResponse struct {
	TotalUsers         int64            `json:"total_users"`
	VerifiedUsers      int64            `json:"verified_users"`
	LockedUsers        int64            `json:"locked_users"`
	TotalAccounts      int64            `json:"total_accounts"`
	TotalBalance       int64            `json:"total_balance"`
	TotalTransactions  int64            `json:"total_transactions"`
	TransactionVolume  int64            `json:"transaction_volume"`
	TransactionsByType map[string]int64 `json:"transactions_by_type"`
}

// AccountResponse is the response body for account data.
type AccountResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
	AccountType   string `json:"account_type"`
	Balance       int64  `json:"balance"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// TransactionResponse is the response body for ledger entries.
type TransactionResponse struct {
	ID                    string  `json:"id"`
	AccountID             string  `json:"account_id"`
	TransactionType       string  `json:"transaction_type"`
	Amount                int64   `json:"amount"`
	Description           string  `json:"description,omitempty"`
	Category              string  `json:"category"`
	CounterpartyAccountID *string `json:"counterparty_account_id,omitempty"`
	TransferID            *string `json:"transfer_id,omitempty"`
	OriginalTransactionID *string `json:"original_transaction_id,omitempty"`
	Status                string  `json:"status"`
	CreatedAt             string  `json:"created_at"`
	ProcessedAt           *string `json:"processed_at,omitempty"`
}

// TransferResponse is the response body for a completed transfer.
type TransferResponse struct {
	TransferID    string              `json:"transfer_id"`
	DebitEntry    TransactionResponse `json:"debit_entry"`
	CreditEntry   TransactionResponse `json:"credit_entry"`
	FromAccount   AccountResponse     `json:"from_account"`
	ToAccount     AccountResponse     `json:"to_account"`
	IdempotentHit bool                `json:"idempotent_hit,omitempty"`
}

// CardResponse is the response body for card data. The number is
// always masked.
type CardResponse struct {
	ID           string `json:"id"`
	AccountID    string `json:"account_id"`
	MaskedNumber string `json:"masked_number"`
	Last4        string `json:"last4"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// IssueCardResponse additionally carries the plaintext card number,
// shown exactly once at issuance.
type IssueCardResponse struct {
	Card       CardResponse `json:"card"`
	CardNumber string       `json:"card_number"`
}

// ProfileResponse is the response body for the caller's profile with
// masked PII.
type ProfileResponse struct {
	ID           string `json:"id"`
	MemberNumber int64  `json:"member_number"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	Verified     bool   `json:"verified"`
	KYCStatus    string `json:"kyc_status"`
	MaskedPhone  string `json:"masked_phone,omitempty"`
	MaskedSSN    string `json:"masked_ssn,omitempty"`
	MaskedDOB    string `json:"masked_dob,omitempty"`
	MaskedAddr   string `json:"masked_address,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// NotificationResponse is the response body for notifications.
type NotificationResponse struct {
	ID           string `json:"id"`
	AccountID    string `json:"account_id"`
	Type         string `json:"type"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	Description  string `json:"description,omitempty"`
	Read         bool   `json:"read"`
	CreatedAt    string `json:"created_at"`
}

// ListResponse wraps a paginated collection.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}
