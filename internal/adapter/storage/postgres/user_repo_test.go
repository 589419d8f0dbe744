package postgres

import (
	"context"
	"testing"
	"time"

	"corebank/internal/core/domain"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:             uuid.New(),
		MemberNumber:   43,
		Email:          "alice@example.com",
		DisplayName:    "Alice",
		PasswordHash:   "$argon2id$...",
		Role:           domain.RoleUser,
		Verified:       true,
		KYCStatus:      domain.KYCStatusApproved,
		PII:            domain.EncryptedPII{Phone: "v1:k1:enc-phone", SSN: "v1:k1:enc-ssn"},
		SSNFingerprint: "abc123",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func userCols() []string {
	return []string{"id", "member_number", "email", "display_name", "password_hash", "role",
		"email_verified", "verified", "locked", "lock_reason", "kyc_status", "marketing_opt_in",
		"pii_phone", "pii_ssn", "pii_dob", "pii_street", "pii_city", "pii_state", "pii_zip",
		"ssn_fingerprint", "created_at", "updated_at"}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userCols()).AddRow(
		u.ID, u.MemberNumber, u.Email, u.DisplayName, u.PasswordHash, u.Role,
		u.EmailVerified, u.Verified, u.Locked, u.LockReason, u.KYCStatus, u.MarketingOptIn,
		u.PII.Phone, u.PII.SSN, u.PII.DateOfBirth, u.PII.Street, u.PII.City, u.PII.State, u.PII.Zip,
		u.SSNFingerprint, u.CreatedAt, u.UpdatedAt,
	)
}

func TestUserRepo_Create_AssignsMemberNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()
	u.MemberNumber = 0

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(
			u.ID, u.Email, u.DisplayName, u.PasswordHash, u.Role,
			u.EmailVerified, u.Verified, u.Locked, u.LockReason, u.KYCStatus, u.MarketingOptIn,
			u.PII.Phone, u.PII.SSN, u.PII.DateOfBirth, u.PII.Street, u.PII.City, u.PII.State, u.PII.Zip,
			u.SSNFingerprint, u.CreatedAt, u.UpdatedAt,
		).
		WillReturnRows(pgxmock.NewRows([]string{"member_number"}).AddRow(int64(43)))

	err = repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(43), u.MemberNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(
			u.ID, u.Email, u.DisplayName, u.PasswordHash, u.Role,
			u.EmailVerified, u.Verified, u.Locked, u.LockReason, u.KYCStatus, u.MarketingOptIn,
			u.PII.Phone, u.PII.SSN, u.PII.DateOfBirth, u.PII.Street, u.PII.City, u.PII.State, u.PII.Zip,
			u.SSNFingerprint, u.CreatedAt, u.UpdatedAt,
		).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err = repo.Create(context.Background(), u)
	require.Error(t, err)
	appErr, ok := apperror.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "AUTH_002", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE LOWER").
		WithArgs(u.Email).
		WillReturnRows(userRow(u))

	result, err := repo.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, u.ID, result.ID)
	assert.Equal(t, u.PII.SSN, result.PII.SSN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE LOWER").
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows(userCols()))

	result, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetBySSNFingerprint(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE ssn_fingerprint").
		WithArgs(u.SSNFingerprint).
		WillReturnRows(userRow(u))

	result, err := repo.GetBySSNFingerprint(context.Background(), u.SSNFingerprint)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, u.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()
	u.Locked = true
	u.LockReason = "fraud review"

	mock.ExpectExec("UPDATE users SET").
		WithArgs(
			u.Email, u.DisplayName, u.PasswordHash, u.Role,
			u.EmailVerified, u.Verified, u.Locked, u.LockReason, u.KYCStatus,
			u.MarketingOptIn, u.PII.Phone, u.PII.SSN, u.PII.DateOfBirth, u.PII.Street,
			u.PII.City, u.PII.State, u.PII.Zip, u.SSNFingerprint, u.UpdatedAt,
			u.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.Update(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM users ORDER BY created_at").
		WithArgs(20, 0).
		WillReturnRows(userRow(u))

	users, total, err := repo.List(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, u.Email, users[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Stats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count", "verified", "locked"}).
			AddRow(int64(10), int64(7), int64(2)))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Total)
	assert.Equal(t, int64(7), stats.Verified)
	assert.Equal(t, int64(2), stats.Locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
