package postgres

import (
	"context"
	"errors"
	"fmt"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, member_number, email, display_name, password_hash, role,
	email_verified, verified, locked, lock_reason, kyc_status, marketing_opt_in,
	pii_phone, pii_ssn, pii_dob, pii_street, pii_city, pii_state, pii_zip,
	ssn_fingerprint, created_at, updated_at`

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts a new user. The member number is assigned by the
// database sequence and written back to the struct.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, email, display_name, password_hash, role,
		email_verified, verified, locked, lock_reason, kyc_status, marketing_opt_in,
		pii_phone, pii_ssn, pii_dob, pii_street, pii_city, pii_state, pii_zip,
		ssn_fingerprint, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING member_number`

	err := r.pool.QueryRow(ctx, query,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.Role,
		u.EmailVerified, u.Verified, u.Locked, u.LockReason, u.KYCStatus, u.MarketingOptIn,
		u.PII.Phone, u.PII.SSN, u.PII.DateOfBirth, u.PII.Street, u.PII.City, u.PII.State, u.PII.Zip,
		u.SSNFingerprint, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.MemberNumber)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrEmailExists()
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by UUID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail fetches a user by email address, case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1)`, userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetBySSNFingerprint fetches a user by SSN fingerprint. Used for
// duplicate-identity detection at registration.
func (r *UserRepo) GetBySSNFingerprint(ctx context.Context, fingerprint string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE ssn_fingerprint = $1`, userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, query, fingerprint))
}

// Update persists mutable user fields, including re-encrypted PII
// after a key rotation.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET email = $1, display_name = $2, password_hash = $3, role = $4,
		email_verified = $5, verified = $6, locked = $7, lock_reason = $8, kyc_status = $9,
		marketing_opt_in = $10, pii_phone = $11, pii_ssn = $12, pii_dob = $13, pii_street = $14,
		pii_city = $15, pii_state = $16, pii_zip = $17, ssn_fingerprint = $18, updated_at = $19
		WHERE id = $20`

	tag, err := r.pool.Exec(ctx, query,
		u.Email, u.DisplayName, u.PasswordHash, u.Role,
		u.EmailVerified, u.Verified, u.Locked, u.LockReason, u.KYCStatus,
		u.MarketingOptIn, u.PII.Phone, u.PII.SSN, u.PII.DateOfBirth, u.PII.Street,
		u.PII.City, u.PII.State, u.PII.Zip, u.SSNFingerprint, u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", u.ID)
	}
	return nil
}

// List fetches users with pagination, newest first.
func (r *UserRepo) List(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, userColumns)

	rows, err := r.pool.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u := domain.User{}
		if err := scanUserInto(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, total, nil
}

// Stats counts total, banking-verified and locked users in one scan.
func (r *UserRepo) Stats(ctx context.Context) (*ports.UserStats, error) {
	query := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE verified),
		COUNT(*) FILTER (WHERE locked)
		FROM users`

	s := &ports.UserStats{}
	if err := r.pool.QueryRow(ctx, query).Scan(&s.Total, &s.Verified, &s.Locked); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return s, nil
}

func (r *UserRepo) scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	if err := scanUserInto(row, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func scanUserInto(row pgx.Row, u *domain.User) error {
	return row.Scan(
		&u.ID, &u.MemberNumber, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role,
		&u.EmailVerified, &u.Verified, &u.Locked, &u.LockReason, &u.KYCStatus, &u.MarketingOptIn,
		&u.PII.Phone, &u.PII.SSN, &u.PII.DateOfBirth, &u.PII.Street, &u.PII.City, &u.PII.State, &u.PII.Zip,
		&u.SSNFingerprint, &u.CreatedAt, &u.UpdatedAt,
	)
}
