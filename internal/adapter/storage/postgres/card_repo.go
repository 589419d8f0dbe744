package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"corebank/internal/core/domain"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const cardColumns = `id, user_id, account_id, number_encrypted, fingerprint, last4,
	status, created_at, updated_at`

// CardRepo implements ports.CardRepository.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

// Create inserts a new card. The fingerprint column carries a unique
// index, so a concurrent issuance of the same number fails here.
func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	query := `INSERT INTO cards (id, user_id, account_id, number_encrypted, fingerprint, last4,
		status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.UserID, c.AccountID, c.NumberEncrypted, c.Fingerprint, c.Last4,
		c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateCardNumber()
		}
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// GetByID fetches a card by UUID.
func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM cards WHERE id = $1`, cardColumns)

	c := &domain.Card{}
	err := scanCardInto(r.pool.QueryRow(ctx, query, id), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan card: %w", err)
	}
	return c, nil
}

// GetByUserID fetches all cards belonging to a user.
func (r *CardRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM cards WHERE user_id = $1 ORDER BY created_at`, cardColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c := domain.Card{}
		if err := scanCardInto(rows, &c); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card rows: %w", err)
	}
	return cards, nil
}

// FingerprintExists reports whether a card with this number fingerprint
// has already been issued.
func (r *CardRepo) FingerprintExists(ctx context.Context, fingerprint string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM cards WHERE fingerprint = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, fingerprint).Scan(&exists); err != nil {
		return false, fmt.Errorf("check card fingerprint: %w", err)
	}
	return exists, nil
}

// UpdateStatus changes a card's status.
func (r *CardRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CardStatus) error {
	query := `UPDATE cards SET status = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update card status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %s", id)
	}
	return nil
}

func scanCardInto(row pgx.Row, c *domain.Card) error {
	return row.Scan(
		&c.ID, &c.UserID, &c.AccountID, &c.NumberEncrypted, &c.Fingerprint, &c.Last4,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
}
