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

// LedgerServiceImpl implements ports.LedgerService. The ledger is
// append-only: every balance change is a new transaction row written
// in the same store transaction as the balance mutation, under a
// pessimistic lock on the account.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	transactor  ports.DBTransactor
	notifier    ports.NotificationDispatcher
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	notifier ports.NotificationDispatcher,
	m *metrics.Metrics,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		transactor:  transactor,
		notifier:    notifier,
		metrics:     m,
		log:         log,
	}
}

// Deposit appends a credit entry and raises the balance atomically.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, req ports.MutationRequest) (*domain.Transaction, error) {
	return s.mutate(ctx, req, domain.TransactionTypeDeposit)
}

// Withdraw appends a debit entry and lowers the balance atomically.
// Fails with ACC_003 when the balance would go negative.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, req ports.MutationRequest) (*domain.Transaction, error) {
	return s.mutate(ctx, req, domain.TransactionTypeWithdrawal)
}

func (s *LedgerServiceImpl) mutate(ctx context.Context, req ports.MutationRequest, txType domain.TransactionType) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	account, err := s.accountRepo.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if !req.AsAdmin && account.UserID != req.UserID {
		return nil, apperror.ErrForbidden()
	}
	if txType.IsCredit() {
		if !account.CanReceive() {
			return nil, apperror.ErrAccountNotActive()
		}
	} else if !account.CanTransact() {
		return nil, apperror.ErrAccountNotActive()
	}

	category := req.Category
	if category == "" {
		category = domain.CategoryGeneral
	}
	if req.AsAdmin {
		category = domain.CategoryAdminAdjustment
	}

	// Begin database transaction
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock the account row; re-read state under the lock.
	locked, err := s.accountRepo.GetByIDForUpdate(ctx, dbTx, req.AccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock account: %w", err))
	}
	if locked == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	if txType.IsCredit() {
		err = s.accountRepo.CreditBalance(ctx, dbTx, locked.ID, req.Amount)
	} else {
		err = s.accountRepo.DebitBalance(ctx, dbTx, locked.ID, req.Amount)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:              uuid.New(),
		AccountID:       locked.ID,
		TransactionType: txType,
		Amount:          req.Amount,
		Description:     req.Description,
		Category:        category,
		Status:          domain.TransactionStatusCompleted,
		CreatedAt:       now,
		ProcessedAt:     &now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit: metrics and notification, never on the money path.
	s.metrics.TransactionsAppended.WithLabelValues(string(txType)).Inc()

	balanceAfter := locked.Balance + req.Amount
	notifType := domain.NotificationDeposit
	if !txType.IsCredit() {
		balanceAfter = locked.Balance - req.Amount
		notifType = domain.NotificationWithdrawal
	}
	s.notifier.Dispatch(ctx, ports.LedgerEvent{
		UserID:       locked.UserID,
		AccountID:    locked.ID,
		Type:         notifType,
		Amount:       req.Amount,
		BalanceAfter: balanceAfter,
		Description:  req.Description,
	})

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("account_id", locked.ID.String()).
		Str("type", string(txType)).
		Int64("amount", req.Amount).
		Str("category", category).
		Msg("ledger entry appended")

	return txn, nil
}

// Reverse appends an offsetting entry for a completed transaction and
// flips the original's status to reversed. The original row itself is
// never edited beyond the status change.
func (s *LedgerServiceImpl) Reverse(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Transaction, error) {
	orig, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get transaction: %w", err))
	}
	if orig == nil {
		return nil, apperror.ErrTransactionNotFound()
	}

	account, err := s.accountRepo.GetByID(ctx, orig.AccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if account.UserID != userID {
		return nil, apperror.ErrForbidden()
	}
	if !orig.IsReversible() {
		return nil, apperror.ErrTransactionNotReversible()
	}

	offsetType := orig.TransactionType.Offset()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.accountRepo.GetByIDForUpdate(ctx, dbTx, orig.AccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock account: %w", err))
	}
	if locked == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	// Undoing a credit debits the account, which can itself fail on
	// insufficient funds if the money has since been spent.
	if offsetType.IsCredit() {
		err = s.accountRepo.CreditBalance(ctx, dbTx, locked.ID, orig.Amount)
	} else {
		err = s.accountRepo.DebitBalance(ctx, dbTx, locked.ID, orig.Amount)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reversal := &domain.Transaction{
		ID:                    uuid.New(),
		AccountID:             locked.ID,
		TransactionType:       offsetType,
		Amount:                orig.Amount,
		Description:           "Reversal of " + orig.ID.String(),
		Category:              domain.CategoryReversal,
		OriginalTransactionID: &orig.ID,
		Status:                domain.TransactionStatusCompleted,
		CreatedAt:             now,
		ProcessedAt:           &now,
	}
	if err := s.txRepo.Create(ctx, dbTx, reversal); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create reversal: %w", err))
	}
	if err := s.txRepo.UpdateStatus(ctx, dbTx, orig.ID, domain.TransactionStatusReversed); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mark original reversed: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.metrics.TransactionsAppended.WithLabelValues(string(offsetType)).Inc()

	balanceAfter := locked.Balance - orig.Amount
	notifType := domain.NotificationWithdrawal
	if offsetType.IsCredit() {
		balanceAfter = locked.Balance + orig.Amount
		notifType = domain.NotificationDeposit
	}
	s.notifier.Dispatch(ctx, ports.LedgerEvent{
		UserID:       locked.UserID,
		AccountID:    locked.ID,
		Type:         notifType,
		Amount:       orig.Amount,
		BalanceAfter: balanceAfter,
		Description:  reversal.Description,
	})

	s.log.Info().
		Str("reversal_id", reversal.ID.String()).
		Str("original_id", orig.ID.String()).
		Int64("amount", orig.Amount).
		Msg("transaction reversed")

	return reversal, nil
}

// GetTransaction returns one ledger entry, enforcing ownership.
func (s *LedgerServiceImpl) GetTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	account, err := s.accountRepo.GetByID(ctx, txn.AccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	if account == nil || account.UserID != userID {
		return nil, apperror.ErrForbidden()
	}
	return txn, nil
}

// ListTransactions returns a page of ledger entries for an account the
// user owns, newest first.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, userID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	account, err := s.accountRepo.GetByID(ctx, params.AccountID)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, 0, apperror.ErrAccountNotFound()
	}
	if account.UserID != userID {
		return nil, 0, apperror.ErrForbidden()
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	entries, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list transactions: %w", err))
	}
	return entries, total, nil
}

// ListUserTransactions returns a page of ledger entries across all of
// the user's accounts, newest first.
func (s *LedgerServiceImpl) ListUserTransactions(ctx context.Context, userID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	params.AccountID = uuid.Nil
	params.UserID = userID
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	entries, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list user transactions: %w", err))
	}
	return entries, total, nil
}
