package ports

import (
	"context"
	"time"

	"corebank/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM field encryption with a
// rotating keyring. Tokens embed the key ID so older ciphertexts stay
// decryptable after rotation.
type EncryptionService interface {
	// Encrypt seals plaintext under the active key. Optional AAD is
	// bound into the authentication tag; Decrypt must be given the
	// same AAD or it fails authentication.
	Encrypt(plaintext string, aad ...string) (string, error)
	Decrypt(token string, aad ...string) (string, error)
	// RotateKey installs a new active key derived for keyID. Subsequent
	// Encrypt calls use it; Decrypt still honors every prior key.
	RotateKey(keyID string) error
	ActiveKeyID() string
}

// FingerprintService produces deterministic keyed digests of sensitive
// values (SSNs, card PANs) for equality checks without plaintext storage.
type FingerprintService interface {
	Fingerprint(value string) string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// IdentifierService generates banking identifiers.
type IdentifierService interface {
	// AccountNumber derives the deterministic account number for a
	// member and account type. Same inputs, same output.
	AccountNumber(memberNumber int64, accountType domain.AccountType) string
	RoutingNumber() string
	// CardNumber generates a Luhn-valid PAN unused by any existing
	// card, retrying a bounded number of times before giving up.
	CardNumber(ctx context.Context) (string, error)
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// LedgerService appends entries to the ledger and mutates balances,
// always atomically and always in the same store transaction.
type LedgerService interface {
	Deposit(ctx context.Context, req MutationRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req MutationRequest) (*domain.Transaction, error)
	Reverse(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListUserTransactions(ctx context.Context, userID uuid.UUID, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// MutationRequest holds validated input for a single-account mutation.
type MutationRequest struct {
	UserID      uuid.UUID
	AccountID   uuid.UUID
	Amount      int64
	Description string
	Category    string
	// AsAdmin bypasses the ownership check; the entry is tagged with
	// the admin adjustment category. There is no direct balance write.
	AsAdmin bool
}

// TransferService moves money between two accounts atomically.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// TransferRequest holds validated input for a transfer.
type TransferRequest struct {
	UserID         uuid.UUID
	FromAccountID  uuid.UUID
	ToAccountID    uuid.UUID
	Amount         int64
	Description    string
	IdempotencyKey string // Optional client-supplied retry key
}

// TransferResult holds both post-transfer account snapshots.
type TransferResult struct {
	TransferID    uuid.UUID
	DebitEntry    *domain.Transaction
	CreditEntry   *domain.Transaction
	FromAccount   *domain.Account
	ToAccount     *domain.Account
	IdempotentHit bool // True when replayed from a stored result
}

// LedgerEvent describes a committed ledger change for dispatch.
type LedgerEvent struct {
	UserID       uuid.UUID
	AccountID    uuid.UUID
	Type         domain.NotificationType
	Amount       int64
	BalanceAfter int64
	Description  string
}

// NotificationDispatcher records committed ledger events, best effort.
// Dispatch runs after the owning store transaction commits and never
// fails the money movement.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, event LedgerEvent)
	ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Notification, int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AccountService manages account lifecycle.
type AccountService interface {
	OpenAccount(ctx context.Context, req OpenAccountRequest) (*domain.Account, error)
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
}

// OpenAccountRequest holds input for opening an account.
type OpenAccountRequest struct {
	UserID         uuid.UUID
	AccountType    domain.AccountType
	InitialDeposit int64 // cents, may be zero
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, time.Time, *domain.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// RegisterRequest holds input for user registration. PII fields arrive
// in plaintext and are encrypted before they touch the store.
type RegisterRequest struct {
	Email          string
	Password       string
	DisplayName    string
	Phone          string
	SSN            string
	DateOfBirth    string
	Street         string
	City           string
	State          string
	Zip            string
	MarketingOptIn bool
}

// Profile is a user with PII decrypted and masked for display.
type Profile struct {
	User        *domain.User
	MaskedPhone string
	MaskedSSN   string
	MaskedDOB   string
	MaskedAddr  string
}

// CardService manages card issuance and lifecycle.
type CardService interface {
	IssueCard(ctx context.Context, userID, accountID uuid.UUID) (*domain.Card, string, error) // card, plaintext PAN shown once
	ListCards(ctx context.Context, userID uuid.UUID) ([]CardView, error)
	UpdateStatus(ctx context.Context, userID, cardID uuid.UUID, status domain.CardStatus) error
}

// CardView is a card with its masked PAN for display.
type CardView struct {
	Card         domain.Card
	MaskedNumber string
}

// AdminService defines administrative operations.
type AdminService interface {
	ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*Profile, error)
	VerifyUser(ctx context.Context, userID uuid.UUID) error
	LockUser(ctx context.Context, userID uuid.UUID, reason string) error
	UnlockUser(ctx context.Context, userID uuid.UUID) error
	UpdateKYC(ctx context.Context, userID uuid.UUID, status domain.KYCStatus) error
	AdjustBalance(ctx context.Context, adminID uuid.UUID, req MutationRequest) (*domain.Transaction, error)
	SetAccountStatus(ctx context.Context, accountID uuid.UUID, status domain.AccountStatus) error
	RotateEncryptionKey(ctx context.Context, keyID string) error
	Stats(ctx context.Context) (*AdminStats, error)
}

// AdminStats aggregates platform-wide counts for the admin dashboard.
type AdminStats struct {
	Users        UserStats
	Accounts     AccountStats
	Transactions TransactionStats
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry AuditEntry)
}

// AuditEntry holds input for one audit record.
type AuditEntry struct {
	UserID       *uuid.UUID
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	Details      any // Marshaled to JSON
	IPAddress    string
}
