package memory

import (
	"context"
	"fmt"
	"sort"

	"corebank/internal/core/domain"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
)

// CardRepo implements ports.CardRepository over the in-memory store.
type CardRepo struct {
	store *Store
}

// NewCardRepo creates a memory-backed CardRepo.
func NewCardRepo(store *Store) *CardRepo {
	return &CardRepo{store: store}
}

// Create inserts a card, enforcing fingerprint uniqueness.
func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.cards {
		if existing.Fingerprint == c.Fingerprint {
			return apperror.ErrDuplicateCardNumber()
		}
	}
	cp := *c
	s.cards[c.ID] = &cp
	return nil
}

// GetByID fetches a card by UUID.
func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.cards[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// GetByUserID fetches all cards belonging to a user, oldest first.
func (r *CardRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Card, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var cards []domain.Card
	for _, c := range r.store.cards {
		if c.UserID == userID {
			cards = append(cards, *c)
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].CreatedAt.Before(cards[j].CreatedAt)
	})
	return cards, nil
}

// FingerprintExists reports whether a card with this fingerprint
// already exists.
func (r *CardRepo) FingerprintExists(ctx context.Context, fingerprint string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.cards {
		if c.Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

// UpdateStatus changes a card's status.
func (r *CardRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CardStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.cards[id]
	if !ok {
		return fmt.Errorf("card not found: %s", id)
	}
	cp := *c
	cp.Status = status
	cp.UpdatedAt = timeNow()
	r.store.cards[id] = &cp
	return nil
}
