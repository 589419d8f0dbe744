package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
)

var errForeignTx = errors.New("memory: transaction not created by this store")

func timeNow() time.Time {
	return time.Now().UTC()
}

// UserRepo implements ports.UserRepository over the in-memory store.
type UserRepo struct {
	store *Store
}

// NewUserRepo creates a memory-backed UserRepo.
func NewUserRepo(store *Store) *UserRepo {
	return &UserRepo{store: store}
}

// Create inserts a user and assigns the next member number.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperror.ErrEmailExists()
		}
	}
	u.MemberNumber = s.nextMemberNumber
	s.nextMemberNumber++

	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// GetByID fetches a user by UUID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// GetByEmail fetches a user by email address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetBySSNFingerprint fetches a user by SSN fingerprint.
func (r *UserRepo) GetBySSNFingerprint(ctx context.Context, fingerprint string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.SSNFingerprint != "" && u.SSNFingerprint == fingerprint {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Update persists mutable user fields.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[u.ID]; !ok {
		return apperror.ErrUserNotFound()
	}
	cp := *u
	r.store.users[u.ID] = &cp
	return nil
}

// List fetches users with pagination, newest first.
func (r *UserRepo) List(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	all := make([]domain.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// Stats counts total, banking-verified and locked users.
func (r *UserRepo) Stats(ctx context.Context) (*ports.UserStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s := &ports.UserStats{}
	for _, u := range r.store.users {
		s.Total++
		if u.Verified {
			s.Verified++
		}
		if u.Locked {
			s.Locked++
		}
	}
	return s, nil
}
