package service

import (
	"context"
	"encoding/json"
	"testing"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/internal/core/ports/mocks"
	"corebank/pkg/apperror"
	"corebank/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type transferTestDeps struct {
	svc         *TransferServiceImpl
	accountRepo *mocks.MockAccountRepository
	txRepo      *mocks.MockTransactionRepository
	idempRepo   *mocks.MockIdempotencyRepository
	idempCache  *mocks.MockIdempotencyCache
	transactor  *mocks.MockDBTransactor
	notifier    *mocks.MockNotificationDispatcher
	dbTx        *mocks.MockTx
	ctrl        *gomock.Controller
}

func setupTransferService(t *testing.T) *transferTestDeps {
	ctrl := gomock.NewController(t)
	d := &transferTestDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		idempRepo:   mocks.NewMockIdempotencyRepository(ctrl),
		idempCache:  mocks.NewMockIdempotencyCache(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		notifier:    mocks.NewMockNotificationDispatcher(ctrl),
		dbTx:        mocks.NewMockTx(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewTransferService(
		d.accountRepo, d.txRepo, d.idempRepo, d.idempCache,
		d.transactor, d.notifier, metrics.NewForTest(), zerolog.Nop(),
	)
	return d
}

func transferParties(balance int64) (uuid.UUID, *domain.Account, *domain.Account) {
	userID := uuid.New()
	from := activeAccount(userID, balance)
	to := activeAccount(uuid.New(), 0)
	return userID, from, to
}

func (d *transferTestDeps) expectLockBoth(from, to *domain.Account) {
	d.transactor.EXPECT().Begin(gomock.Any()).Return(d.dbTx, nil)
	d.dbTx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	d.accountRepo.EXPECT().GetByIDForUpdate(gomock.Any(), d.dbTx, from.ID).Return(from, nil)
	d.accountRepo.EXPECT().GetByIDForUpdate(gomock.Any(), d.dbTx, to.ID).Return(to, nil)
}

func TestTransferService_Success(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	userID, from, to := transferParties(10_000)

	d.accountRepo.EXPECT().GetByID(gomock.Any(), from.ID).Return(from, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), to.ID).Return(to, nil)
	d.expectLockBoth(from, to)
	d.accountRepo.EXPECT().DebitBalance(gomock.Any(), d.dbTx, from.ID, int64(2500)).Return(nil)
	d.accountRepo.EXPECT().CreditBalance(gomock.Any(), d.dbTx, to.ID, int64(2500)).Return(nil)

	var sawOut, sawIn bool
	d.txRepo.EXPECT().Create(gomock.Any(), d.dbTx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ ports.Tx, txn *domain.Transaction) error {
			require.NotNil(t, txn.TransferID)
			require.NotNil(t, txn.CounterpartyAccountID)
			switch txn.TransactionType {
			case domain.TransactionTypeTransferOut:
				sawOut = true
				assert.Equal(t, from.ID, txn.AccountID)
				assert.Equal(t, to.ID, *txn.CounterpartyAccountID)
			case domain.TransactionTypeTransferIn:
				sawIn = true
				assert.Equal(t, to.ID, txn.AccountID)
				assert.Equal(t, from.ID, *txn.CounterpartyAccountID)
			}
			return nil
		}).Times(2)
	d.dbTx.EXPECT().Commit(gomock.Any()).Return(nil)
	d.notifier.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(2)

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:        userID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        2500,
	})
	require.NoError(t, err)
	assert.True(t, sawOut)
	assert.True(t, sawIn)
	assert.False(t, result.IdempotentHit)
	assert.Equal(t, *result.DebitEntry.TransferID, *result.CreditEntry.TransferID)
	assert.Equal(t, int64(7500), result.FromAccount.Balance)
	assert.Equal(t, int64(2500), result.ToAccount.Balance)
}

func TestTransferService_InvalidAmount(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	for _, amount := range []int64{0, -50} {
		_, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
			UserID:        uuid.New(),
			FromAccountID: uuid.New(),
			ToAccountID:   uuid.New(),
			Amount:        amount,
		})
		require.Error(t, err)
		appErr, ok := apperror.GetAppError(err)
		require.True(t, ok)
		assert.Equal(t, "VAL_002", appErr.Code)
	}
}

func TestTransferService_SameAccount(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	id := uuid.New()
	_, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:        uuid.New(),
		FromAccountID: id,
		ToAccountID:   id,
		Amount:        100,
	})
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VAL_003", appErr.Code)
}

func TestTransferService_NotOwner(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	_, from, to := transferParties(10_000)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), from.ID).Return(from, nil)

	_, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:        uuid.New(), // not the source owner
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        100,
	})
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "AUTH_004", appErr.Code)
}

func TestTransferService_InsufficientFunds_PreCheck(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	userID, from, to := transferParties(100)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), from.ID).Return(from, nil)

	_, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:        userID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        5000,
	})
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "ACC_003", appErr.Code)
}

func TestTransferService_InsufficientFunds_UnderLock(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	userID, from, to := transferParties(10_000)

	d.accountRepo.EXPECT().GetByID(gomock.Any(), from.ID).Return(from, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), to.ID).Return(to, nil)
	d.expectLockBoth(from, to)
	// A concurrent writer drained the account between pre-check and lock.
	d.accountRepo.EXPECT().DebitBalance(gomock.Any(), d.dbTx, from.ID, int64(2500)).
		Return(apperror.ErrInsufficientFunds())

	_, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:        userID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        2500,
	})
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "ACC_003", appErr.Code)
}

func TestTransferService_FrozenDestination(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	userID, from, to := transferParties(10_000)
	to.Status = domain.AccountStatusFrozen

	d.accountRepo.EXPECT().GetByID(gomock.Any(), from.ID).Return(from, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), to.ID).Return(to, nil)

	_, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:        userID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        100,
	})
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "ACC_004", appErr.Code)
}

func TestTransferService_IdempotentReplay_Redis(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	userID, from, to := transferParties(10_000)
	transferID := uuid.New()
	record := transferRecord{
		TransferID:  transferID,
		DebitEntry:  domain.Transaction{ID: uuid.New(), AccountID: from.ID, Amount: 2500},
		CreditEntry: domain.Transaction{ID: uuid.New(), AccountID: to.ID, Amount: 2500},
	}
	cached, err := json.Marshal(record)
	require.NoError(t, err)

	key := domain.BuildTransferIdempotencyKey(userID, "retry-1")
	d.idempCache.EXPECT().Get(gomock.Any(), key).Return(cached, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), from.ID).Return(from, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), to.ID).Return(to, nil)

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:         userID,
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         2500,
		IdempotencyKey: "retry-1",
	})
	require.NoError(t, err)
	assert.True(t, result.IdempotentHit)
	assert.Equal(t, transferID, result.TransferID)
}

func TestTransferService_IdempotentReplay_DBFallback(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	userID, from, to := transferParties(10_000)
	transferID := uuid.New()
	record := transferRecord{
		TransferID:  transferID,
		DebitEntry:  domain.Transaction{ID: uuid.New(), AccountID: from.ID},
		CreditEntry: domain.Transaction{ID: uuid.New(), AccountID: to.ID},
	}
	cached, err := json.Marshal(record)
	require.NoError(t, err)

	key := domain.BuildTransferIdempotencyKey(userID, "retry-2")
	d.idempCache.EXPECT().Get(gomock.Any(), key).Return(nil, assert.AnError) // redis down
	d.idempRepo.EXPECT().Get(gomock.Any(), key).Return(&domain.IdempotencyLog{
		Key:          key,
		TransferID:   transferID,
		ResponseJSON: cached,
	}, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), from.ID).Return(from, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), to.ID).Return(to, nil)

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:         userID,
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         2500,
		IdempotencyKey: "retry-2",
	})
	require.NoError(t, err)
	assert.True(t, result.IdempotentHit)
}

func TestTransferService_IdempotencyKey_StoredInTx(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	userID, from, to := transferParties(10_000)
	key := domain.BuildTransferIdempotencyKey(userID, "first-run")

	d.idempCache.EXPECT().Get(gomock.Any(), key).Return(nil, nil)
	d.idempRepo.EXPECT().Get(gomock.Any(), key).Return(nil, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), from.ID).Return(from, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), to.ID).Return(to, nil)
	d.expectLockBoth(from, to)
	d.accountRepo.EXPECT().DebitBalance(gomock.Any(), d.dbTx, from.ID, int64(100)).Return(nil)
	d.accountRepo.EXPECT().CreditBalance(gomock.Any(), d.dbTx, to.ID, int64(100)).Return(nil)
	d.txRepo.EXPECT().Create(gomock.Any(), d.dbTx, gomock.Any()).Return(nil).Times(2)
	d.idempRepo.EXPECT().Create(gomock.Any(), d.dbTx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ ports.Tx, log *domain.IdempotencyLog) error {
			assert.Equal(t, key, log.Key)
			return nil
		})
	d.dbTx.EXPECT().Commit(gomock.Any()).Return(nil)
	d.idempCache.EXPECT().Set(gomock.Any(), key, gomock.Any(), transferIdempotencyTTL).Return(nil)
	d.notifier.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(2)

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:         userID,
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         100,
		IdempotencyKey: "first-run",
	})
	require.NoError(t, err)
	assert.False(t, result.IdempotentHit)
}

func TestTransferService_CommitFailure(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	userID, from, to := transferParties(10_000)

	d.accountRepo.EXPECT().GetByID(gomock.Any(), from.ID).Return(from, nil)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), to.ID).Return(to, nil)
	d.expectLockBoth(from, to)
	d.accountRepo.EXPECT().DebitBalance(gomock.Any(), d.dbTx, from.ID, int64(100)).Return(nil)
	d.accountRepo.EXPECT().CreditBalance(gomock.Any(), d.dbTx, to.ID, int64(100)).Return(nil)
	d.txRepo.EXPECT().Create(gomock.Any(), d.dbTx, gomock.Any()).Return(nil).Times(2)
	d.dbTx.EXPECT().Commit(gomock.Any()).Return(assert.AnError)

	_, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:        userID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        100,
	})
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "SYS_002", appErr.Code)
}
