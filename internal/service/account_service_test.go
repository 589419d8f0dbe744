package service

import (
	"context"
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

type accountTestDeps struct {
	svc         *AccountServiceImpl
	accountRepo *mocks.MockAccountRepository
	userRepo    *mocks.MockUserRepository
	idSvc       *mocks.MockIdentifierService
	ledger      *mocks.MockLedgerService
	ctrl        *gomock.Controller
}

func setupAccountService(t *testing.T) *accountTestDeps {
	ctrl := gomock.NewController(t)
	d := &accountTestDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		userRepo:    mocks.NewMockUserRepository(ctrl),
		idSvc:       mocks.NewMockIdentifierService(ctrl),
		ledger:      mocks.NewMockLedgerService(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewAccountService(
		d.accountRepo, d.userRepo, d.idSvc, d.ledger,
		metrics.NewForTest(), "USD", zerolog.Nop(),
	)
	return d
}

func verifiedUser() *domain.User {
	return &domain.User{
		ID:           uuid.New(),
		MemberNumber: 43,
		Verified:     true,
	}
}

func TestAccountService_OpenAccount_Success(t *testing.T) {
	d := setupAccountService(t)
	defer d.ctrl.Finish()

	user := verifiedUser()
	d.userRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	d.idSvc.EXPECT().AccountNumber(int64(43), domain.AccountTypeChecking).Return("0000004310")
	d.idSvc.EXPECT().RoutingNumber().Return("021000021")
	d.accountRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, account *domain.Account) error {
			assert.Equal(t, "0000004310", account.AccountNumber)
			assert.Equal(t, int64(0), account.Balance)
			assert.Equal(t, domain.AccountStatusActive, account.Status)
			assert.Equal(t, "USD", account.Currency)
			return nil
		})

	account, err := d.svc.OpenAccount(context.Background(), ports.OpenAccountRequest{
		UserID:      user.ID,
		AccountType: domain.AccountTypeChecking,
	})
	require.NoError(t, err)
	assert.Equal(t, "021000021", account.RoutingNumber)
}

func TestAccountService_OpenAccount_InitialDepositGoesThroughLedger(t *testing.T) {
	d := setupAccountService(t)
	defer d.ctrl.Finish()

	user := verifiedUser()
	d.userRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	d.idSvc.EXPECT().AccountNumber(int64(43), domain.AccountTypeSavings).Return("0000004320")
	d.idSvc.EXPECT().RoutingNumber().Return("021000021")
	d.accountRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	d.ledger.EXPECT().Deposit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.MutationRequest) (*domain.Transaction, error) {
			assert.Equal(t, int64(10_000), req.Amount)
			assert.Equal(t, domain.CategoryInitialDeposit, req.Category)
			return &domain.Transaction{ID: uuid.New(), Amount: req.Amount}, nil
		})

	account, err := d.svc.OpenAccount(context.Background(), ports.OpenAccountRequest{
		UserID:         user.ID,
		AccountType:    domain.AccountTypeSavings,
		InitialDeposit: 10_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), account.Balance)
}

func TestAccountService_OpenAccount_UnverifiedUser(t *testing.T) {
	d := setupAccountService(t)
	defer d.ctrl.Finish()

	user := verifiedUser()
	user.Verified = false
	d.userRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

	_, err := d.svc.OpenAccount(context.Background(), ports.OpenAccountRequest{
		UserID:      user.ID,
		AccountType: domain.AccountTypeChecking,
	})
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "ADM_003", appErr.Code)
}

func TestAccountService_OpenAccount_BadType(t *testing.T) {
	d := setupAccountService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.OpenAccount(context.Background(), ports.OpenAccountRequest{
		UserID:      uuid.New(),
		AccountType: domain.AccountType("money_market"),
	})
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VAL_001", appErr.Code)
}

func TestAccountService_OpenAccount_DuplicatePropagates(t *testing.T) {
	d := setupAccountService(t)
	defer d.ctrl.Finish()

	user := verifiedUser()
	d.userRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	d.idSvc.EXPECT().AccountNumber(int64(43), domain.AccountTypeChecking).Return("0000004310")
	d.idSvc.EXPECT().RoutingNumber().Return("021000021")
	d.accountRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(apperror.ErrDuplicateAccountNumber())

	_, err := d.svc.OpenAccount(context.Background(), ports.OpenAccountRequest{
		UserID:      user.ID,
		AccountType: domain.AccountTypeChecking,
	})
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "ACC_002", appErr.Code)
}

func TestAccountService_GetAccount_EnforcesOwnership(t *testing.T) {
	d := setupAccountService(t)
	defer d.ctrl.Finish()

	account := activeAccount(uuid.New(), 100)
	d.accountRepo.EXPECT().GetByID(gomock.Any(), account.ID).Return(account, nil)

	_, err := d.svc.GetAccount(context.Background(), uuid.New(), account.ID)
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "AUTH_004", appErr.Code)
}
