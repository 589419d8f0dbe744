package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, account_id, transaction_type, amount, description, category,
	counterparty_account_id, transfer_id, original_transaction_id, status, created_at, processed_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new ledger entry within a database transaction.
// Rows are append-only; there is no update path for amounts.
func (r *TransactionRepo) Create(ctx context.Context, tx ports.Tx, t *domain.Transaction) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}
	query := `INSERT INTO transactions (id, account_id, transaction_type, amount, description, category,
		counterparty_account_id, transfer_id, original_transaction_id, status, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = ptx.Exec(ctx, query,
		t.ID, t.AccountID, t.TransactionType, t.Amount, t.Description, t.Category,
		t.CounterpartyAccountID, t.TransferID, t.OriginalTransactionID,
		t.Status, t.CreatedAt, t.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a ledger entry by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// UpdateStatus updates a ledger entry's status within a database
// transaction. Only the status and processed_at columns ever change;
// the monetary fields are immutable.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx ports.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE transactions SET status = $1, processed_at = $2 WHERE id = $3`

	tag, err := ptx.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// List fetches ledger entries with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.AccountID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", argIdx))
		args = append(args, params.AccountID)
	} else {
		conditions = append(conditions, fmt.Sprintf("account_id IN (SELECT id FROM accounts WHERE user_id = $%d)", argIdx))
		args = append(args, params.UserID)
	}
	argIdx++

	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		if err := scanTransactionInto(rows, &t); err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// GetStats aggregates ledger entry counts and volume grouped by type.
func (r *TransactionRepo) GetStats(ctx context.Context) (*ports.TransactionStats, error) {
	query := `SELECT transaction_type, COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions GROUP BY transaction_type`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("transaction stats: %w", err)
	}
	defer rows.Close()

	stats := &ports.TransactionStats{CountByType: make(map[domain.TransactionType]int64)}
	for rows.Next() {
		var (
			txType domain.TransactionType
			count  int64
			volume int64
		)
		if err := rows.Scan(&txType, &count, &volume); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats.CountByType[txType] = count
		stats.TotalCount += count
		stats.TotalVolume += volume
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}
	return stats, nil
}

func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	if err := scanTransactionInto(row, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func scanTransactionInto(row pgx.Row, t *domain.Transaction) error {
	return row.Scan(
		&t.ID, &t.AccountID, &t.TransactionType, &t.Amount, &t.Description, &t.Category,
		&t.CounterpartyAccountID, &t.TransferID, &t.OriginalTransactionID,
		&t.Status, &t.CreatedAt, &t.ProcessedAt,
	)
}
