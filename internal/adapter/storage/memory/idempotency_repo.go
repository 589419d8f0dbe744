package memory

import (
	"context"
	"fmt"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
)

// IdempotencyRepo implements ports.IdempotencyRepository over the
// in-memory store.
type IdempotencyRepo struct {
	store *Store
}

// NewIdempotencyRepo creates a memory-backed IdempotencyRepo.
func NewIdempotencyRepo(store *Store) *IdempotencyRepo {
	return &IdempotencyRepo{store: store}
}

// Create stages an idempotency log for commit alongside the transfer
// it records.
func (r *IdempotencyRepo) Create(ctx context.Context, tx ports.Tx, log *domain.IdempotencyLog) error {
	t, err := txnOf(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	_, exists := r.store.idempotency[log.Key]
	r.store.mu.RUnlock()
	if exists {
		return fmt.Errorf("insert idempotency log: duplicate key %q", log.Key)
	}

	cp := *log
	t.staged.idempotency[log.Key] = &cp
	return nil
}

// Get fetches a committed idempotency log by key.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	log, ok := r.store.idempotency[key]
	if !ok {
		return nil, nil
	}
	cp := *log
	return &cp, nil
}
