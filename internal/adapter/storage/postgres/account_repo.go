package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, user_id, account_number, routing_number, account_type,
	balance, currency, status, created_at, updated_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, user_id, account_number, routing_number, account_type,
		balance, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.UserID, a.AccountNumber, a.RoutingNumber, a.AccountType,
		a.Balance, a.Currency, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateAccountNumber()
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by UUID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, accountColumns)
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetByNumber fetches an account by its public account number.
func (r *AccountRepo) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE account_number = $1`, accountColumns)
	return scanAccount(r.pool.QueryRow(ctx, query, accountNumber))
}

// GetByUserID fetches all accounts belonging to a user.
func (r *AccountRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE user_id = $1 ORDER BY created_at`, accountColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a := domain.Account{}
		if err := scanAccountInto(rows, &a); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

// GetByIDForUpdate fetches an account with a pessimistic row lock,
// held until the enclosing transaction commits or rolls back.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx ports.Tx, id uuid.UUID) (*domain.Account, error) {
	ptx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1 FOR UPDATE`, accountColumns)
	return scanAccount(ptx.QueryRow(ctx, query, id))
}

// CreditBalance adds amount to the account balance within a transaction.
func (r *AccountRepo) CreditBalance(ctx context.Context, tx ports.Tx, id uuid.UUID, amount int64) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE accounts SET balance = balance + $1, updated_at = $2 WHERE id = $3`

	tag, err := ptx.Exec(ctx, query, amount, time.Now(), id)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrAccountNotFound()
	}
	return nil
}

// DebitBalance subtracts amount from the account balance within a
// transaction. The update is conditional on sufficient funds so the
// balance can never go negative even under concurrent debits.
func (r *AccountRepo) DebitBalance(ctx context.Context, tx ports.Tx, id uuid.UUID, amount int64) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE accounts SET balance = balance - $1, updated_at = $2
		WHERE id = $3 AND balance >= $1`

	tag, err := ptx.Exec(ctx, query, amount, time.Now(), id)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrInsufficientFunds()
	}
	return nil
}

// UpdateStatus changes an account's lifecycle status.
func (r *AccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrAccountNotFound()
	}
	return nil
}

// Stats counts accounts and sums balances across the platform.
func (r *AccountRepo) Stats(ctx context.Context) (*ports.AccountStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(balance), 0) FROM accounts`

	s := &ports.AccountStats{}
	if err := r.pool.QueryRow(ctx, query).Scan(&s.Total, &s.TotalBalance); err != nil {
		return nil, fmt.Errorf("account stats: %w", err)
	}
	return s, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	if err := scanAccountInto(row, a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

func scanAccountInto(row pgx.Row, a *domain.Account) error {
	return row.Scan(
		&a.ID, &a.UserID, &a.AccountNumber, &a.RoutingNumber, &a.AccountType,
		&a.Balance, &a.Currency, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
}
