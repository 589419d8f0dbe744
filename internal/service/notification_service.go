package service

import (
	"context"
	"fmt"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NotificationDispatcherImpl implements ports.NotificationDispatcher.
// Dispatch is called post-commit and is strictly best-effort: a failed
// insert is logged and dropped, it never propagates to the caller.
type NotificationDispatcherImpl struct {
	repo ports.NotificationRepository
	log  zerolog.Logger
}

// NewNotificationDispatcher creates a new NotificationDispatcherImpl.
func NewNotificationDispatcher(repo ports.NotificationRepository, log zerolog.Logger) *NotificationDispatcherImpl {
	return &NotificationDispatcherImpl{
		repo: repo,
		log:  log.With().Str("component", "notifications").Logger(),
	}
}

// Dispatch records one committed ledger event.
func (s *NotificationDispatcherImpl) Dispatch(ctx context.Context, event ports.LedgerEvent) {
	n := &domain.Notification{
		ID:           uuid.New(),
		UserID:       event.UserID,
		AccountID:    event.AccountID,
		Type:         event.Type,
		Amount:       event.Amount,
		BalanceAfter: event.BalanceAfter,
		Description:  event.Description,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error().Err(err).
			Str("user_id", event.UserID.String()).
			Str("type", string(event.Type)).
			Msg("failed to record notification")
		return
	}
	s.log.Debug().
		Str("notification_id", n.ID.String()).
		Str("type", string(event.Type)).
		Msg("notification recorded")
}

// ListForUser returns a page of the user's notifications, newest first.
func (s *NotificationDispatcherImpl) ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	items, total, err := s.repo.GetByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list notifications: %w", err))
	}
	return items, total, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationDispatcherImpl) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, notificationID, userID); err != nil {
		return err
	}
	return nil
}

// CountUnread returns the user's unread notification count.
func (s *NotificationDispatcherImpl) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("count unread: %w", err))
	}
	return count, nil
}
