package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "corebank/internal/adapter/http/handler"
	memStorage "corebank/internal/adapter/storage/memory"
	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/internal/service"
	"corebank/pkg/logger"
	"corebank/pkg/metrics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack on the in-memory backend.
// It exercises the real HTTP layer, middleware, handlers, services, and
// the transactional store end-to-end.
type testApp struct {
	server   *httptest.Server
	userRepo ports.UserRepository
	adminSvc ports.AdminService
	encSvc   ports.EncryptionService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	log := logger.NewWithWriter("error", nil)
	m := metrics.NewForTest()

	store := memStorage.NewStore()
	userRepo := memStorage.NewUserRepo(store)
	accountRepo := memStorage.NewAccountRepo(store)
	txRepo := memStorage.NewTransactionRepo(store)
	cardRepo := memStorage.NewCardRepo(store)
	notificationRepo := memStorage.NewNotificationRepo(store)
	idempotencyRepo := memStorage.NewIdempotencyRepo(store)
	auditRepo := memStorage.NewAuditRepository(store)
	idempotencyCache := memStorage.NewIdempotencyCache()

	encSvc, err := service.NewKeyringEncryptionService("integration-test-master-secret", "k1")
	require.NoError(t, err)
	fingerprintSvc := service.NewHMACFingerprintService("integration-test-master-secret")
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	auditSvc := service.NewAuditService(auditRepo, log)
	notifier := service.NewNotificationDispatcher(notificationRepo, log)
	idSvc := service.NewIdentifierService("021000021", "453201", cardRepo, fingerprintSvc, log)
	ledgerSvc := service.NewLedgerService(accountRepo, txRepo, store, notifier, m, log)
	authSvc := service.NewAuthService(userRepo, hashSvc, encSvc, fingerprintSvc, tokenSvc, log)
	accountSvc := service.NewAccountService(accountRepo, userRepo, idSvc, ledgerSvc, m, "USD", log)
	transferSvc := service.NewTransferService(accountRepo, txRepo, idempotencyRepo, idempotencyCache, store, notifier, m, log)
	cardSvc := service.NewCardService(cardRepo, accountRepo, idSvc, encSvc, fingerprintSvc, log)
	adminSvc := service.NewAdminService(userRepo, accountRepo, txRepo, ledgerSvc, accountSvc, encSvc, authSvc, auditSvc, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		AccountSvc:      accountSvc,
		LedgerSvc:       ledgerSvc,
		TransferSvc:     transferSvc,
		CardSvc:         cardSvc,
		AdminSvc:        adminSvc,
		NotificationSvc: notifier,
		TokenSvc:        tokenSvc,
		AuditSvc:        auditSvc,
		Logger:          log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{
		server:   server,
		userRepo: userRepo,
		adminSvc: adminSvc,
		encSvc:   encSvc,
	}
}

// do issues a JSON request against the test server and decodes the body.
func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, map[string]interface{}) {
	t.Helper()
	status, decoded, err := a.doRaw(method, path, token, body)
	require.NoError(t, err)
	return status, decoded
}

// doRaw is the goroutine-safe request helper for concurrency tests;
// it never calls FailNow.
func (a *testApp) doRaw(method, path, token string, body any) (int, map[string]interface{}, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, decoded, nil
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "no data object in response: %v", body)
	return d
}

func dataItems(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()
	items, ok := body["data"].([]interface{})
	require.True(t, ok, "no data array in response: %v", body)
	return items
}

// signupVerified registers a user, verifies them (which opens the
// default checking account), and returns a login token plus the user ID.
func signupVerified(t *testing.T, app *testApp, email string) (string, uuid.UUID) {
	t.Helper()

	status, body := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":        email,
		"password":     "StrongPass123!",
		"display_name": "Test User",
		"phone":        "555-123-4567",
		"ssn":          fmt.Sprintf("%09d", time.Now().UnixNano()%1_000_000_000),
	})
	require.Equal(t, http.StatusCreated, status, "register: %v", body)
	userID := uuid.MustParse(data(t, body)["id"].(string))

	require.NoError(t, app.adminSvc.VerifyUser(t.Context(), userID))

	status, body = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusOK, status, "login: %v", body)
	return data(t, body)["token"].(string), userID
}

// checkingAccountID returns the user's only account, opened at
// verification time.
func checkingAccountID(t *testing.T, app *testApp, token string) string {
	t.Helper()
	status, body := app.do(t, http.MethodGet, "/api/v1/accounts", token, nil)
	require.Equal(t, http.StatusOK, status)
	items := dataItems(t, body)
	require.Len(t, items, 1)
	return items[0].(map[string]interface{})["id"].(string)
}

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_RegisterLoginProfile(t *testing.T) {
	app := newTestApp(t)

	status, body := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":        "alice@example.com",
		"password":     "StrongPass123!",
		"display_name": "Alice",
		"ssn":          "123456789",
		"phone":        "555-123-4567",
	})
	require.Equal(t, http.StatusCreated, status)
	d := data(t, body)
	assert.NotEmpty(t, d["id"])
	assert.GreaterOrEqual(t, d["member_number"].(float64), float64(1))
	assert.Equal(t, "pending", d["kyc_status"])

	// Duplicate email is rejected.
	status, body = app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":        "alice@example.com",
		"password":     "OtherPass456!",
		"display_name": "Imposter",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "AUTH_002", body["error_code"])

	// So is one differing only in case.
	status, body = app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":        "Alice@Example.COM",
		"password":     "OtherPass456!",
		"display_name": "Imposter",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "AUTH_002", body["error_code"])

	// Login and fetch the profile: PII must come back masked.
	status, body = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusOK, status)
	token := data(t, body)["token"].(string)

	status, body = app.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	profile := data(t, body)
	assert.Equal(t, "alice@example.com", profile["email"])
	assert.Equal(t, "***-**-6789", profile["masked_ssn"])
	assert.NotContains(t, fmt.Sprint(profile), "123456789")
}

func TestIntegration_UnverifiedUserCannotBank(t *testing.T) {
	app := newTestApp(t)

	status, body := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":        "pending@example.com",
		"password":     "StrongPass123!",
		"display_name": "Pending",
	})
	require.Equal(t, http.StatusCreated, status, "register: %v", body)

	status, body = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "pending@example.com",
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusOK, status)
	token := data(t, body)["token"].(string)

	status, body = app.do(t, http.MethodPost, "/api/v1/accounts", token, map[string]any{
		"account_type": "savings",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ADM_003", body["error_code"])
}

func TestIntegration_DepositWithdrawLifecycle(t *testing.T) {
	app := newTestApp(t)
	token, _ := signupVerified(t, app, "saver@example.com")
	accountID := checkingAccountID(t, app, token)

	status, body := app.do(t, http.MethodPost, "/api/v1/deposits", token, map[string]any{
		"account_id":  accountID,
		"amount":      10000,
		"description": "payroll",
	})
	require.Equal(t, http.StatusCreated, status, "deposit: %v", body)
	deposit := data(t, body)
	assert.Equal(t, "deposit", deposit["transaction_type"])
	assert.Equal(t, "completed", deposit["status"])

	status, body = app.do(t, http.MethodPost, "/api/v1/withdrawals", token, map[string]any{
		"account_id": accountID,
		"amount":     4000,
	})
	require.Equal(t, http.StatusCreated, status)

	// Overdrawing is refused and leaves the balance untouched.
	status, body = app.do(t, http.MethodPost, "/api/v1/withdrawals", token, map[string]any{
		"account_id": accountID,
		"amount":     999999,
	})
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "ACC_003", body["error_code"])

	status, body = app.do(t, http.MethodGet, "/api/v1/accounts/"+accountID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(6000), data(t, body)["balance"])

	// Both mutations produced notifications.
	status, body = app.do(t, http.MethodGet, "/api/v1/notifications/unread-count", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), data(t, body)["unread"])
}

func TestIntegration_TransferAndIdempotentReplay(t *testing.T) {
	app := newTestApp(t)
	token, _ := signupVerified(t, app, "mover@example.com")
	fromID := checkingAccountID(t, app, token)

	status, body := app.do(t, http.MethodPost, "/api/v1/accounts", token, map[string]any{
		"account_type": "savings",
	})
	require.Equal(t, http.StatusCreated, status, "open savings: %v", body)
	toID := data(t, body)["id"].(string)

	status, _ = app.do(t, http.MethodPost, "/api/v1/deposits", token, map[string]any{
		"account_id": fromID,
		"amount":     10000,
	})
	require.Equal(t, http.StatusCreated, status)

	transferReq := map[string]any{
		"from_account_id": fromID,
		"to_account_id":   toID,
		"amount":          2500,
		"idempotency_key": "rent-2026-08",
	}
	status, body = app.do(t, http.MethodPost, "/api/v1/transfers", token, transferReq)
	require.Equal(t, http.StatusCreated, status, "transfer: %v", body)
	first := data(t, body)
	transferID := first["transfer_id"].(string)
	assert.Equal(t, float64(7500), first["from_account"].(map[string]interface{})["balance"])
	assert.Equal(t, float64(2500), first["to_account"].(map[string]interface{})["balance"])

	// Replaying the same key returns the stored result and moves no
	// more money.
	status, body = app.do(t, http.MethodPost, "/api/v1/transfers", token, transferReq)
	require.Equal(t, http.StatusOK, status)
	replay := data(t, body)
	assert.Equal(t, transferID, replay["transfer_id"])
	assert.Equal(t, true, replay["idempotent_hit"])

	status, body = app.do(t, http.MethodGet, "/api/v1/accounts/"+fromID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(7500), data(t, body)["balance"])

	// Both legs are visible in the source account's history.
	status, body = app.do(t, http.MethodGet, "/api/v1/accounts/"+fromID+"/transactions?type=transfer_out", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), data(t, body)["total"])

	// The cross-account listing spans both of the user's accounts:
	// deposit, transfer_out and transfer_in in one page.
	status, body = app.do(t, http.MethodGet, "/api/v1/transactions", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), data(t, body)["total"])
}

func TestIntegration_ReversalAppendsOffsettingEntry(t *testing.T) {
	app := newTestApp(t)
	token, _ := signupVerified(t, app, "oops@example.com")
	accountID := checkingAccountID(t, app, token)

	status, body := app.do(t, http.MethodPost, "/api/v1/deposits", token, map[string]any{
		"account_id": accountID,
		"amount":     5000,
	})
	require.Equal(t, http.StatusCreated, status)
	originalID := data(t, body)["id"].(string)

	status, body = app.do(t, http.MethodPost, "/api/v1/transactions/"+originalID+"/reverse", token, nil)
	require.Equal(t, http.StatusCreated, status, "reverse: %v", body)
	reversal := data(t, body)
	assert.Equal(t, "reversal", reversal["category"])
	assert.Equal(t, "withdrawal", reversal["transaction_type"])
	assert.Equal(t, originalID, reversal["original_transaction_id"])

	status, body = app.do(t, http.MethodGet, "/api/v1/accounts/"+accountID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), data(t, body)["balance"])

	// A reversal cannot itself be reversed twice over; reversing the
	// original again is refused.
	status, body = app.do(t, http.MethodPost, "/api/v1/transactions/"+originalID+"/reverse", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "second reverse: %v", body)
	assert.Equal(t, "ACC_006", body["error_code"])
}

func TestIntegration_DuplicateCheckingAccountRejected(t *testing.T) {
	app := newTestApp(t)
	token, _ := signupVerified(t, app, "dup@example.com")

	// The deterministic account number collides with the default
	// checking account opened at verification.
	status, body := app.do(t, http.MethodPost, "/api/v1/accounts", token, map[string]any{
		"account_type": "checking",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ACC_002", body["error_code"])
}

func TestIntegration_CardIssueAndList(t *testing.T) {
	app := newTestApp(t)
	token, _ := signupVerified(t, app, "carder@example.com")
	accountID := checkingAccountID(t, app, token)

	status, body := app.do(t, http.MethodPost, "/api/v1/cards", token, map[string]any{
		"account_id": accountID,
	})
	require.Equal(t, http.StatusCreated, status, "issue card: %v", body)
	issued := data(t, body)
	pan := issued["card_number"].(string)
	assert.Len(t, pan, 16)
	assert.True(t, service.LuhnValid(pan), "issued PAN must be Luhn-valid")

	// Listing shows only the masked number.
	status, body = app.do(t, http.MethodGet, "/api/v1/cards", token, nil)
	require.Equal(t, http.StatusOK, status)
	items := dataItems(t, body)
	require.Len(t, items, 1)
	card := items[0].(map[string]interface{})
	assert.Equal(t, "****-****-****-"+pan[12:], card["masked_number"])
	assert.NotContains(t, fmt.Sprint(card), pan)

	cardID := card["id"].(string)
	status, _ = app.do(t, http.MethodPatch, "/api/v1/cards/"+cardID+"/status", token, map[string]any{
		"status": "blocked",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestIntegration_AdminWorkflows(t *testing.T) {
	app := newTestApp(t)

	adminToken, adminID := signupVerified(t, app, "admin@example.com")
	promote(t, app, adminID)
	// Re-login so the token carries the admin role.
	status, body := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "admin@example.com",
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusOK, status)
	adminToken = data(t, body)["token"].(string)

	userToken, userID := signupVerified(t, app, "member@example.com")
	accountID := checkingAccountID(t, app, userToken)

	// Non-admin tokens are rejected on admin routes.
	status, _ = app.do(t, http.MethodGet, "/api/v1/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = app.do(t, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.GreaterOrEqual(t, data(t, body)["total"].(float64), float64(2))

	// KYC moves only along legal transitions.
	status, body = app.do(t, http.MethodPatch, "/api/v1/admin/users/"+userID.String()+"/kyc", adminToken, map[string]any{
		"status": "approved",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ADM_002", body["error_code"])

	status, _ = app.do(t, http.MethodPatch, "/api/v1/admin/users/"+userID.String()+"/kyc", adminToken, map[string]any{
		"status": "in_review",
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = app.do(t, http.MethodPatch, "/api/v1/admin/users/"+userID.String()+"/kyc", adminToken, map[string]any{
		"status": "approved",
	})
	require.Equal(t, http.StatusOK, status)

	// Balance corrections go through the ledger as signed adjustments.
	status, body = app.do(t, http.MethodPost, "/api/v1/admin/users/"+userID.String()+"/adjust-balance", adminToken, map[string]any{
		"account_id":  accountID,
		"amount":      1500,
		"description": "goodwill credit",
	})
	require.Equal(t, http.StatusCreated, status, "adjust: %v", body)
	assert.Equal(t, "admin_adjustment", data(t, body)["category"])

	status, body = app.do(t, http.MethodGet, "/api/v1/accounts/"+accountID, userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1500), data(t, body)["balance"])

	// Locking blocks login.
	status, _ = app.do(t, http.MethodPost, "/api/v1/admin/users/"+userID.String()+"/lock", adminToken, map[string]any{
		"reason": "fraud review",
	})
	require.Equal(t, http.StatusOK, status)
	status, body = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "member@example.com",
		"password": "StrongPass123!",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "AUTH_005", body["error_code"])

	status, _ = app.do(t, http.MethodPost, "/api/v1/admin/users/"+userID.String()+"/unlock", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "member@example.com",
		"password": "StrongPass123!",
	})
	assert.Equal(t, http.StatusOK, status)

	// Dashboard aggregates reflect the ledger: one admin adjustment of
	// 1500 is the only money movement so far.
	status, body = app.do(t, http.MethodGet, "/api/v1/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	stats := data(t, body)
	assert.GreaterOrEqual(t, stats["total_users"], float64(2))
	assert.Equal(t, float64(1500), stats["total_balance"])
	assert.Equal(t, float64(1500), stats["transaction_volume"])
	byType := stats["transactions_by_type"].(map[string]interface{})
	assert.Equal(t, float64(1), byType["deposit"])
}

func TestIntegration_KeyRotationKeepsOldPIIReadable(t *testing.T) {
	app := newTestApp(t)

	adminToken, adminID := signupVerified(t, app, "rotator@example.com")
	promote(t, app, adminID)
	status, body := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "rotator@example.com",
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusOK, status)
	adminToken = data(t, body)["token"].(string)

	userToken, _ := signupVerified(t, app, "oldkey@example.com")

	status, body = app.do(t, http.MethodPost, "/api/v1/admin/rotate-keys", adminToken, map[string]any{
		"key_id": "k2",
	})
	require.Equal(t, http.StatusOK, status, "rotate: %v", body)
	assert.Equal(t, "k2", app.encSvc.ActiveKeyID())

	// PII written under k1 still decrypts for display.
	status, body = app.do(t, http.MethodGet, "/api/v1/profile", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "***-***-4567", data(t, body)["masked_phone"])
}

// promote flips a user to the admin role directly in the store.
func promote(t *testing.T, app *testApp, userID uuid.UUID) {
	t.Helper()
	user, err := app.userRepo.GetByID(t.Context(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	user.Role = domain.RoleAdmin
	require.NoError(t, app.userRepo.Update(t.Context(), user))
}
