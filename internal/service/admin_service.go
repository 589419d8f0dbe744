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

// AdminServiceImpl implements ports.AdminService. Balance corrections
// go through the ledger service as admin adjustments; there is no code
// path that writes a balance without appending a transaction.
type AdminServiceImpl struct {
	userRepo    ports.UserRepository
	accountRepo ports.AccountRepository
	txnRepo     ports.TransactionRepository
	ledger      ports.LedgerService
	accounts    ports.AccountService
	encSvc      ports.EncryptionService
	profiles    ports.AuthService
	audit       ports.AuditService
	log         zerolog.Logger
}

// NewAdminService creates a new AdminServiceImpl.
func NewAdminService(
	userRepo ports.UserRepository,
	accountRepo ports.AccountRepository,
	txnRepo ports.TransactionRepository,
	ledger ports.LedgerService,
	accounts ports.AccountService,
	encSvc ports.EncryptionService,
	profiles ports.AuthService,
	audit ports.AuditService,
	log zerolog.Logger,
) *AdminServiceImpl {
	return &AdminServiceImpl{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		ledger:      ledger,
		accounts:    accounts,
		encSvc:      encSvc,
		profiles:    profiles,
		audit:       audit,
		log:         log,
	}
}

// ListUsers returns a page of users.
func (s *AdminServiceImpl) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	users, total, err := s.userRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list users: %w", err))
	}
	return users, total, nil
}

// GetUser returns one user's profile with masked PII.
func (s *AdminServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*ports.Profile, error) {
	return s.profiles.GetProfile(ctx, userID)
}

// VerifyUser unlocks banking for a user. First-time verification also
// opens the user's default checking account.
func (s *AdminServiceImpl) VerifyUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Verified = true
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update user: %w", err))
	}

	existing, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("list accounts: %w", err))
	}
	if len(existing) == 0 {
		if _, err := s.accounts.OpenAccount(ctx, ports.OpenAccountRequest{
			UserID:      userID,
			AccountType: domain.AccountTypeChecking,
		}); err != nil {
			return err
		}
		s.log.Info().Str("user_id", userID.String()).Msg("default checking account opened")
	}
	return nil
}

// LockUser blocks a user from logging in.
func (s *AdminServiceImpl) LockUser(ctx context.Context, userID uuid.UUID, reason string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Locked = true
	user.LockReason = reason
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update user: %w", err))
	}
	s.log.Warn().Str("user_id", userID.String()).Str("reason", reason).Msg("user locked")
	return nil
}

// UnlockUser restores a locked user.
func (s *AdminServiceImpl) UnlockUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Locked = false
	user.LockReason = ""
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update user: %w", err))
	}
	return nil
}

// UpdateKYC moves a user's KYC status along the legal transitions.
func (s *AdminServiceImpl) UpdateKYC(ctx context.Context, userID uuid.UUID, status domain.KYCStatus) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CanTransitionKYC(status) {
		return apperror.ErrInvalidKYCTransition(string(user.KYCStatus), string(status))
	}
	user.KYCStatus = status
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update user: %w", err))
	}
	return nil
}

// AdjustBalance corrects an account balance by appending an admin
// adjustment entry. Positive amounts deposit, negative ones withdraw.
func (s *AdminServiceImpl) AdjustBalance(ctx context.Context, adminID uuid.UUID, req ports.MutationRequest) (*domain.Transaction, error) {
	if req.Amount == 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	req.AsAdmin = true
	var txn *domain.Transaction
	var err error
	if req.Amount > 0 {
		txn, err = s.ledger.Deposit(ctx, req)
	} else {
		req.Amount = -req.Amount
		txn, err = s.ledger.Withdraw(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, ports.AuditEntry{
		UserID:       &adminID,
		Action:       domain.AuditActionAdminAdjust,
		ResourceType: "account",
		ResourceID:   req.AccountID.String(),
		Details:      map[string]any{"transaction_id": txn.ID, "amount": txn.Amount, "type": txn.TransactionType},
	})
	return txn, nil
}

// SetAccountStatus changes an account's lifecycle state.
func (s *AdminServiceImpl) SetAccountStatus(ctx context.Context, accountID uuid.UUID, status domain.AccountStatus) error {
	switch status {
	case domain.AccountStatusActive, domain.AccountStatusSuspended, domain.AccountStatusFrozen, domain.AccountStatusClosed:
	default:
		return apperror.Validation("unknown account status")
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return apperror.ErrAccountNotFound()
	}
	if status == domain.AccountStatusClosed && account.Balance != 0 {
		return apperror.Validation("account balance must be zero before closing")
	}

	if err := s.accountRepo.UpdateStatus(ctx, accountID, status); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update account status: %w", err))
	}
	return nil
}

// RotateEncryptionKey installs a new active PII encryption key.
func (s *AdminServiceImpl) RotateEncryptionKey(ctx context.Context, keyID string) error {
	if err := s.encSvc.RotateKey(keyID); err != nil {
		return err
	}
	s.audit.Log(ctx, ports.AuditEntry{
		Action:       domain.AuditActionRotateKeys,
		ResourceType: "encryption_key",
		ResourceID:   keyID,
	})
	s.log.Info().Str("key_id", keyID).Msg("encryption key rotated")
	return nil
}

// Stats aggregates platform-wide counts for the admin dashboard.
func (s *AdminServiceImpl) Stats(ctx context.Context) (*ports.AdminStats, error) {
	users, err := s.userRepo.Stats(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("user stats: %w", err))
	}
	accounts, err := s.accountRepo.Stats(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("account stats: %w", err))
	}
	txns, err := s.txnRepo.GetStats(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("transaction stats: %w", err))
	}
	return &ports.AdminStats{Users: *users, Accounts: *accounts, Transactions: *txns}, nil
}

func (s *AdminServiceImpl) getUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}
	return user, nil
}
