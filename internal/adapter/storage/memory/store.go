// Package memory provides an in-process implementation of the storage
// ports. It backs local development and integration tests where a
// PostgreSQL instance is not available. Transactions are serialized:
// only one store transaction is open at a time, which gives the same
// isolation the SQL backend gets from row locks without modelling
// MVCC.
package memory

import (
	"context"
	"sync"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"

	"github.com/google/uuid"
)

// Store holds all banking state in maps guarded by a single RWMutex.
type Store struct {
	txMu sync.Mutex // serializes open transactions

	mu               sync.RWMutex
	users            map[uuid.UUID]*domain.User
	accounts         map[uuid.UUID]*domain.Account
	transactions     map[uuid.UUID]*domain.Transaction
	transactionOrder []uuid.UUID
	cards            map[uuid.UUID]*domain.Card
	notifications    map[uuid.UUID]*domain.Notification
	idempotency      map[string]*domain.IdempotencyLog
	auditLogs        []*domain.AuditLog
	nextMemberNumber int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:            make(map[uuid.UUID]*domain.User),
		accounts:         make(map[uuid.UUID]*domain.Account),
		transactions:     make(map[uuid.UUID]*domain.Transaction),
		cards:            make(map[uuid.UUID]*domain.Card),
		notifications:    make(map[uuid.UUID]*domain.Notification),
		idempotency:      make(map[string]*domain.IdempotencyLog),
		nextMemberNumber: 1,
	}
}

// Begin opens a store transaction. Writes made through the returned Tx
// are staged and only become visible on Commit. The store transaction
// lock is held until Commit or Rollback, so concurrent transfers run
// one at a time, as they would under conflicting row locks.
func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	return &Txn{store: s, staged: newStagedState()}, nil
}

var _ ports.DBTransactor = (*Store)(nil)

// stagedState accumulates the writes of one open transaction.
type stagedState struct {
	accounts     map[uuid.UUID]*domain.Account
	transactions []*domain.Transaction
	statusEdits  map[uuid.UUID]domain.TransactionStatus
	idempotency  map[string]*domain.IdempotencyLog
}

func newStagedState() *stagedState {
	return &stagedState{
		accounts:    make(map[uuid.UUID]*domain.Account),
		statusEdits: make(map[uuid.UUID]domain.TransactionStatus),
		idempotency: make(map[string]*domain.IdempotencyLog),
	}
}

// Txn implements ports.Tx over staged writes.
type Txn struct {
	store  *Store
	staged *stagedState
	done   bool
}

// Commit publishes the staged writes and releases the transaction lock.
func (t *Txn) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	for id, acc := range t.staged.accounts {
		s.accounts[id] = acc
	}
	for _, txn := range t.staged.transactions {
		s.transactions[txn.ID] = txn
		s.transactionOrder = append(s.transactionOrder, txn.ID)
	}
	for id, status := range t.staged.statusEdits {
		if existing, ok := s.transactions[id]; ok {
			cp := *existing
			cp.Status = status
			now := timeNow()
			cp.ProcessedAt = &now
			s.transactions[id] = &cp
		}
	}
	for key, log := range t.staged.idempotency {
		s.idempotency[key] = log
	}
	s.mu.Unlock()

	s.txMu.Unlock()
	return nil
}

// Rollback discards staged writes and releases the transaction lock.
// Safe to call after Commit, matching pgx.Tx semantics.
func (t *Txn) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

// txnOf unwraps a ports.Tx created by this store.
func txnOf(tx ports.Tx) (*Txn, error) {
	t, ok := tx.(*Txn)
	if !ok {
		return nil, errForeignTx
	}
	return t, nil
}

// stagedAccount returns the transaction-local copy of an account,
// creating one from committed state on first access.
func (t *Txn) stagedAccount(id uuid.UUID) *domain.Account {
	if acc, ok := t.staged.accounts[id]; ok {
		return acc
	}
	t.store.mu.RLock()
	committed, ok := t.store.accounts[id]
	t.store.mu.RUnlock()
	if !ok {
		return nil
	}
	cp := *committed
	t.staged.accounts[id] = &cp
	return &cp
}
