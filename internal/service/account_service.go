package service

import (
	"context"
	"fmt"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	accountRepo ports.AccountRepository
	userRepo    ports.UserRepository
	idSvc       ports.IdentifierService
	ledger      ports.LedgerService
	metrics     *metrics.Metrics
	currency    string
	log         zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	accountRepo ports.AccountRepository,
	userRepo ports.UserRepository,
	idSvc ports.IdentifierService,
	ledger ports.LedgerService,
	m *metrics.Metrics,
	currency string,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		idSvc:       idSvc,
		ledger:      ledger,
		metrics:     m,
		currency:    currency,
		log:         log,
	}
}

// OpenAccount opens a deposit account for a verified user. The account
// number is derived from the member number, so a second account of the
// same type collides on the unique constraint and maps to ACC_002.
func (s *AccountServiceImpl) OpenAccount(ctx context.Context, req ports.OpenAccountRequest) (*domain.Account, error) {
	if req.AccountType != domain.AccountTypeChecking && req.AccountType != domain.AccountTypeSavings {
		return nil, apperror.Validation("account type must be checking or savings")
	}
	if req.InitialDeposit < 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}
	if !user.CanBank() {
		return nil, apperror.ErrUserNotVerified()
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            uuid.New(),
		UserID:        user.ID,
		AccountNumber: s.idSvc.AccountNumber(user.MemberNumber, req.AccountType),
		RoutingNumber: s.idSvc.RoutingNumber(),
		AccountType:   req.AccountType,
		Balance:       0,
		Currency:      s.currency,
		Status:        domain.AccountStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.metrics.AccountsOpened.Inc()

	// The opening balance goes through the ledger like any other
	// credit, so even day-one money has a transaction behind it.
	if req.InitialDeposit > 0 {
		if _, err := s.ledger.Deposit(ctx, ports.MutationRequest{
			UserID:      user.ID,
			AccountID:   account.ID,
			Amount:      req.InitialDeposit,
			Description: "Initial deposit",
			Category:    domain.CategoryInitialDeposit,
		}); err != nil {
			return nil, err
		}
		account.Balance = req.InitialDeposit
	}

	s.log.Info().
		Str("account_id", account.ID.String()).
		Str("account_number", account.AccountNumber).
		Str("type", string(req.AccountType)).
		Msg("account opened")

	return account, nil
}

// GetAccount returns one account, enforcing ownership.
func (s *AccountServiceImpl) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if account.UserID != userID {
		return nil, apperror.ErrForbidden()
	}
	return account, nil
}

// ListAccounts returns all accounts owned by the user.
func (s *AccountServiceImpl) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list accounts: %w", err))
	}
	return accounts, nil
}
