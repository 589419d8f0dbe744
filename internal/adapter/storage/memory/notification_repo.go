package memory

import (
	"context"
	"fmt"
	"sort"

	"corebank/internal/core/domain"

	"github.com/google/uuid"
)

// NotificationRepo implements ports.NotificationRepository over the
// in-memory store.
type NotificationRepo struct {
	store *Store
}

// NewNotificationRepo creates a memory-backed NotificationRepo.
func NewNotificationRepo(store *Store) *NotificationRepo {
	return &NotificationRepo{store: store}
}

// Create inserts a notification.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *n
	r.store.notifications[n.ID] = &cp
	return nil
}

// GetByUserID fetches a user's notifications, newest first.
func (r *NotificationRepo) GetByUserID(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Notification, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []domain.Notification
	for _, n := range r.store.notifications {
		if n.UserID == userID {
			matched = append(matched, *n)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// MarkRead marks one of the user's notifications as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n, ok := r.store.notifications[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("notification not found: %s", id)
	}
	cp := *n
	cp.Read = true
	r.store.notifications[id] = &cp
	return nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, n := range r.store.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}
