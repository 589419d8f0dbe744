package ports

import (
	"context"

	"corebank/internal/core/domain"

	"github.com/google/uuid"
)

// Tx is an in-flight store transaction. It is opaque to services:
// the postgres backend hands out pgx transactions, the in-memory
// backend its own staged-write transaction. Repositories of a backend
// only accept transactions minted by that backend's DBTransactor.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBTransactor provides store transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetBySSNFingerprint(ctx context.Context, fingerprint string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	Stats(ctx context.Context) (*UserStats, error)
}

// UserStats summarizes the user population for the admin dashboard.
type UserStats struct {
	Total    int64
	Verified int64
	Locked   int64
}

// AccountRepository defines persistence operations for accounts.
// Methods accepting Tx run inside transaction blocks; GetByIDForUpdate
// takes a pessimistic row lock for the lifetime of the transaction.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id uuid.UUID) (*domain.Account, error)
	// CreditBalance unconditionally adds amount to the account balance.
	CreditBalance(ctx context.Context, tx Tx, id uuid.UUID, amount int64) error
	// DebitBalance subtracts amount only if the resulting balance stays
	// non-negative. Returns apperror.ErrInsufficientFunds otherwise.
	DebitBalance(ctx context.Context, tx Tx, id uuid.UUID, amount int64) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error
	Stats(ctx context.Context) (*AccountStats, error)
}

// AccountStats summarizes accounts under management.
type AccountStats struct {
	Total        int64
	TotalBalance int64
}

// TransactionRepository defines persistence for ledger entries.
// Entries are append-only: there is no update or delete beyond the
// status flip used by reversals.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx Tx, id uuid.UUID, status domain.TransactionStatus) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context) (*TransactionStats, error)
}

// TransactionStats summarizes ledger volume by entry type.
type TransactionStats struct {
	TotalCount  int64
	TotalVolume int64
	CountByType map[domain.TransactionType]int64
}

// TransactionListParams holds filter + pagination for listing
// transactions. Exactly one of AccountID or UserID scopes the listing;
// a set UserID spans all of the user's accounts.
type TransactionListParams struct {
	AccountID uuid.UUID
	UserID    uuid.UUID
	Type      *domain.TransactionType
	Status    *domain.TransactionStatus
	From      *int64 // Unix timestamp
	To        *int64 // Unix timestamp
	Page      int
	PageSize  int
}

// CardRepository defines persistence operations for cards.
type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Card, error)
	// FingerprintExists reports whether any card carries the given
	// deterministic PAN fingerprint.
	FingerprintExists(ctx context.Context, fingerprint string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CardStatus) error
}

// NotificationRepository defines persistence for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByUserID(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository defines persistence for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
