package memory

import (
	"context"
	"fmt"
	"sort"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"

	"github.com/google/uuid"
)

// TransactionRepo implements ports.TransactionRepository over the
// in-memory store.
type TransactionRepo struct {
	store *Store
}

// NewTransactionRepo creates a memory-backed TransactionRepo.
func NewTransactionRepo(store *Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

// Create stages a new ledger entry for commit.
func (r *TransactionRepo) Create(ctx context.Context, tx ports.Tx, txn *domain.Transaction) error {
	t, err := txnOf(tx)
	if err != nil {
		return err
	}
	cp := *txn
	t.staged.transactions = append(t.staged.transactions, &cp)
	return nil
}

// GetByID fetches a committed ledger entry by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *txn
	return &cp, nil
}

// UpdateStatus stages a status change for an existing ledger entry.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx ports.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	t, err := txnOf(tx)
	if err != nil {
		return err
	}
	r.store.mu.RLock()
	_, ok := r.store.transactions[id]
	r.store.mu.RUnlock()
	if !ok {
		return fmt.Errorf("transaction not found: %s", id)
	}
	t.staged.statusEdits[id] = status
	return nil
}

// List fetches ledger entries with filtering and pagination, newest
// first.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var userAccounts map[uuid.UUID]bool
	if params.AccountID == uuid.Nil {
		userAccounts = make(map[uuid.UUID]bool)
		for _, a := range r.store.accounts {
			if a.UserID == params.UserID {
				userAccounts[a.ID] = true
			}
		}
	}

	var matched []domain.Transaction
	for _, id := range r.store.transactionOrder {
		txn := r.store.transactions[id]
		if params.AccountID != uuid.Nil {
			if txn.AccountID != params.AccountID {
				continue
			}
		} else if !userAccounts[txn.AccountID] {
			continue
		}
		if params.Type != nil && txn.TransactionType != *params.Type {
			continue
		}
		if params.Status != nil && txn.Status != *params.Status {
			continue
		}
		if params.From != nil && txn.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && txn.CreatedAt.Unix() > *params.To {
			continue
		}
		matched = append(matched, *txn)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// GetStats aggregates ledger entry counts and volume grouped by type.
func (r *TransactionRepo) GetStats(ctx context.Context) (*ports.TransactionStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stats := &ports.TransactionStats{CountByType: make(map[domain.TransactionType]int64)}
	for _, txn := range r.store.transactions {
		stats.CountByType[txn.TransactionType]++
		stats.TotalCount++
		stats.TotalVolume += txn.Amount
	}
	return stats, nil
}
