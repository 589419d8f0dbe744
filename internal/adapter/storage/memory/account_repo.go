package memory

import (
	"context"
	"sort"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
)

// AccountRepo implements ports.AccountRepository over the in-memory
// store. Balance mutations go through the staged transaction state so
// they only become visible on commit.
type AccountRepo struct {
	store *Store
}

// NewAccountRepo creates a memory-backed AccountRepo.
func NewAccountRepo(store *Store) *AccountRepo {
	return &AccountRepo{store: store}
}

// Create inserts an account, enforcing account number uniqueness.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.AccountNumber == a.AccountNumber {
			return apperror.ErrDuplicateAccountNumber()
		}
	}
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

// GetByID fetches an account by UUID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// GetByNumber fetches an account by its public account number.
func (r *AccountRepo) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, a := range r.store.accounts {
		if a.AccountNumber == accountNumber {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByUserID fetches all accounts belonging to a user, oldest first.
func (r *AccountRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var accounts []domain.Account
	for _, a := range r.store.accounts {
		if a.UserID == userID {
			accounts = append(accounts, *a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// GetByIDForUpdate fetches the transaction-local view of an account.
// The store transaction already excludes concurrent writers, so the
// staged copy plays the role of a locked row.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx ports.Tx, id uuid.UUID) (*domain.Account, error) {
	t, err := txnOf(tx)
	if err != nil {
		return nil, err
	}
	acc := t.stagedAccount(id)
	if acc == nil {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

// CreditBalance adds amount to the staged account balance.
func (r *AccountRepo) CreditBalance(ctx context.Context, tx ports.Tx, id uuid.UUID, amount int64) error {
	t, err := txnOf(tx)
	if err != nil {
		return err
	}
	acc := t.stagedAccount(id)
	if acc == nil {
		return apperror.ErrAccountNotFound()
	}
	acc.Balance += amount
	acc.UpdatedAt = timeNow()
	return nil
}

// DebitBalance subtracts amount from the staged account balance,
// failing without mutation if funds are insufficient.
func (r *AccountRepo) DebitBalance(ctx context.Context, tx ports.Tx, id uuid.UUID, amount int64) error {
	t, err := txnOf(tx)
	if err != nil {
		return err
	}
	acc := t.stagedAccount(id)
	if acc == nil {
		return apperror.ErrAccountNotFound()
	}
	if acc.Balance < amount {
		return apperror.ErrInsufficientFunds()
	}
	acc.Balance -= amount
	acc.UpdatedAt = timeNow()
	return nil
}

// UpdateStatus changes an account's lifecycle status.
func (r *AccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return apperror.ErrAccountNotFound()
	}
	cp := *a
	cp.Status = status
	cp.UpdatedAt = timeNow()
	r.store.accounts[id] = &cp
	return nil
}

// Stats counts accounts and sums balances.
func (r *AccountRepo) Stats(ctx context.Context) (*ports.AccountStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s := &ports.AccountStats{}
	for _, a := range r.store.accounts {
		s.Total++
		s.TotalBalance += a.Balance
	}
	return s, nil
}
