package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const transferIdempotencyTTL = 24 * time.Hour

// TransferServiceImpl implements ports.TransferService. A transfer is
// two ledger entries (transfer_out, transfer_in) sharing a transfer ID,
// written with both balance mutations in one store transaction. Either
// everything commits or nothing does.
type TransferServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	idempRepo   ports.IdempotencyRepository
	idempCache  ports.IdempotencyCache
	transactor  ports.DBTransactor
	notifier    ports.NotificationDispatcher
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	notifier ports.NotificationDispatcher,
	m *metrics.Metrics,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		idempRepo:   idempRepo,
		idempCache:  idempCache,
		transactor:  transactor,
		notifier:    notifier,
		metrics:     m,
		log:         log,
	}
}

// transferRecord is the shape cached for idempotent replays.
type transferRecord struct {
	TransferID  uuid.UUID          `json:"transfer_id"`
	DebitEntry  domain.Transaction `json:"debit_entry"`
	CreditEntry domain.Transaction `json:"credit_entry"`
	FromBalance int64              `json:"from_balance"`
	ToBalance   int64              `json:"to_balance"`
}

// Transfer moves money between two accounts atomically.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if req.Amount <= 0 {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrInvalidAmount()
	}
	if req.FromAccountID == req.ToAccountID {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrSameAccountTransfer()
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildTransferIdempotencyKey(req.UserID, req.IdempotencyKey)

		// Layer 1: Redis idempotency check
		cached, err := s.idempCache.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return s.replayCachedTransfer(ctx, cached)
		}

		// Layer 2: DB idempotency check
		idempLog, err := s.idempRepo.Get(ctx, idempKey)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("db idempotency check: %w", err))
		}
		if idempLog != nil {
			return s.replayCachedTransfer(ctx, idempLog.ResponseJSON)
		}
	}

	// Pre-checks outside the transaction keep obvious rejections off
	// the locking path. Everything is re-validated under the locks.
	from, err := s.accountRepo.GetByID(ctx, req.FromAccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get source account: %w", err))
	}
	if from == nil {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrAccountNotFound()
	}
	if from.UserID != req.UserID {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrForbidden()
	}
	if !from.CanTransact() {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrAccountNotActive()
	}
	if from.Balance < req.Amount {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrInsufficientFunds()
	}

	to, err := s.accountRepo.GetByID(ctx, req.ToAccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get destination account: %w", err))
	}
	if to == nil {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrAccountNotFound()
	}
	if !to.CanReceive() {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrAccountNotActive()
	}

	// Begin database transaction
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock both accounts in ascending ID order so two opposing
	// transfers cannot deadlock each other.
	firstID, secondID := req.FromAccountID, req.ToAccountID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}
	lockedFirst, err := s.accountRepo.GetByIDForUpdate(ctx, dbTx, firstID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock account: %w", err))
	}
	lockedSecond, err := s.accountRepo.GetByIDForUpdate(ctx, dbTx, secondID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock account: %w", err))
	}
	if lockedFirst == nil || lockedSecond == nil {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrAccountNotFound()
	}

	lockedFrom, lockedTo := lockedFirst, lockedSecond
	if lockedFrom.ID != req.FromAccountID {
		lockedFrom, lockedTo = lockedSecond, lockedFirst
	}

	// Status re-check under the locks; it may have changed since the
	// pre-check.
	if !lockedFrom.CanTransact() || !lockedTo.CanReceive() {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrAccountNotActive()
	}

	// Debit is conditional on funds; the lock makes the check stable.
	if err := s.accountRepo.DebitBalance(ctx, dbTx, lockedFrom.ID, req.Amount); err != nil {
		s.metrics.TransfersFailed.Inc()
		return nil, err
	}
	if err := s.accountRepo.CreditBalance(ctx, dbTx, lockedTo.ID, req.Amount); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("credit destination: %w", err))
	}

	now := time.Now().UTC()
	transferID := uuid.New()

	debit := &domain.Transaction{
		ID:                    uuid.New(),
		AccountID:             lockedFrom.ID,
		TransactionType:       domain.TransactionTypeTransferOut,
		Amount:                req.Amount,
		Description:           req.Description,
		Category:              domain.CategoryTransfer,
		CounterpartyAccountID: &lockedTo.ID,
		TransferID:            &transferID,
		Status:                domain.TransactionStatusCompleted,
		CreatedAt:             now,
		ProcessedAt:           &now,
	}
	credit := &domain.Transaction{
		ID:                    uuid.New(),
		AccountID:             lockedTo.ID,
		TransactionType:       domain.TransactionTypeTransferIn,
		Amount:                req.Amount,
		Description:           req.Description,
		Category:              domain.CategoryTransfer,
		CounterpartyAccountID: &lockedFrom.ID,
		TransferID:            &transferID,
		Status:                domain.TransactionStatusCompleted,
		CreatedAt:             now,
		ProcessedAt:           &now,
	}
	if err := s.txRepo.Create(ctx, dbTx, debit); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create debit entry: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, credit); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create credit entry: %w", err))
	}

	fromBalance := lockedFrom.Balance - req.Amount
	toBalance := lockedTo.Balance + req.Amount

	var respJSON []byte
	if idempKey != "" {
		record := transferRecord{
			TransferID:  transferID,
			DebitEntry:  *debit,
			CreditEntry: *credit,
			FromBalance: fromBalance,
			ToBalance:   toBalance,
		}
		respJSON, err = json.Marshal(record)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("marshal transfer record: %w", err))
		}
		idempLogEntry := &domain.IdempotencyLog{
			Key:          idempKey,
			TransferID:   transferID,
			ResponseJSON: respJSON,
			CreatedAt:    now,
		}
		if err := s.idempRepo.Create(ctx, dbTx, idempLogEntry); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		s.metrics.TransfersFailed.Inc()
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit: cache, metrics, notifications. All best-effort —
	// the transfer is already durable.
	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, transferIdempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.metrics.TransfersCompleted.Inc()
	s.metrics.AmountMoved.Add(float64(req.Amount))
	s.metrics.TransactionsAppended.WithLabelValues(string(domain.TransactionTypeTransferOut)).Inc()
	s.metrics.TransactionsAppended.WithLabelValues(string(domain.TransactionTypeTransferIn)).Inc()

	s.notifier.Dispatch(ctx, ports.LedgerEvent{
		UserID:       lockedFrom.UserID,
		AccountID:    lockedFrom.ID,
		Type:         domain.NotificationTransferOut,
		Amount:       req.Amount,
		BalanceAfter: fromBalance,
		Description:  req.Description,
	})
	s.notifier.Dispatch(ctx, ports.LedgerEvent{
		UserID:       lockedTo.UserID,
		AccountID:    lockedTo.ID,
		Type:         domain.NotificationTransferIn,
		Amount:       req.Amount,
		BalanceAfter: toBalance,
		Description:  req.Description,
	})

	s.log.Info().
		Str("transfer_id", transferID.String()).
		Str("from_account", lockedFrom.ID.String()).
		Str("to_account", lockedTo.ID.String()).
		Int64("amount", req.Amount).
		Msg("transfer completed")

	fromSnap := *lockedFrom
	fromSnap.Balance = fromBalance
	toSnap := *lockedTo
	toSnap.Balance = toBalance

	return &ports.TransferResult{
		TransferID:  transferID,
		DebitEntry:  debit,
		CreditEntry: credit,
		FromAccount: &fromSnap,
		ToAccount:   &toSnap,
	}, nil
}

// replayCachedTransfer rebuilds a TransferResult from a stored record,
// fetching fresh account snapshots for the response.
func (s *TransferServiceImpl) replayCachedTransfer(ctx context.Context, data []byte) (*ports.TransferResult, error) {
	var record transferRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transfer: %w", err))
	}

	from, err := s.accountRepo.GetByID(ctx, record.DebitEntry.AccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get source account: %w", err))
	}
	to, err := s.accountRepo.GetByID(ctx, record.CreditEntry.AccountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get destination account: %w", err))
	}

	s.log.Info().
		Str("transfer_id", record.TransferID.String()).
		Msg("transfer replayed from idempotency record")

	return &ports.TransferResult{
		TransferID:    record.TransferID,
		DebitEntry:    &record.DebitEntry,
		CreditEntry:   &record.CreditEntry,
		FromAccount:   from,
		ToAccount:     to,
		IdempotentHit: true,
	}, nil
}
