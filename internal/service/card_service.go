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

// CardServiceImpl implements ports.CardService.
type CardServiceImpl struct {
	cardRepo      ports.CardRepository
	accountRepo   ports.AccountRepository
	idSvc         ports.IdentifierService
	encSvc        ports.EncryptionService
	fingerprinter ports.FingerprintService
	log           zerolog.Logger
}

// NewCardService creates a new CardServiceImpl.
func NewCardService(
	cardRepo ports.CardRepository,
	accountRepo ports.AccountRepository,
	idSvc ports.IdentifierService,
	encSvc ports.EncryptionService,
	fingerprinter ports.FingerprintService,
	log zerolog.Logger,
) *CardServiceImpl {
	return &CardServiceImpl{
		cardRepo:      cardRepo,
		accountRepo:   accountRepo,
		idSvc:         idSvc,
		encSvc:        encSvc,
		fingerprinter: fingerprinter,
		log:           log,
	}
}

// IssueCard mints a card against one of the user's accounts. The
// plaintext PAN is returned exactly once; only its ciphertext and
// fingerprint are stored.
func (s *CardServiceImpl) IssueCard(ctx context.Context, userID, accountID uuid.UUID) (*domain.Card, string, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, "", apperror.ErrDatabaseError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, "", apperror.ErrAccountNotFound()
	}
	if account.UserID != userID {
		return nil, "", apperror.ErrForbidden()
	}
	if !account.CanTransact() {
		return nil, "", apperror.ErrAccountNotActive()
	}

	pan, err := s.idSvc.CardNumber(ctx)
	if err != nil {
		return nil, "", err
	}

	// The PAN ciphertext is bound to the owning user so a leaked row
	// cannot be replayed under another account.
	encrypted, err := s.encSvc.Encrypt(pan, userID.String())
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	card := &domain.Card{
		ID:              uuid.New(),
		UserID:          userID,
		AccountID:       accountID,
		NumberEncrypted: encrypted,
		Fingerprint:     s.fingerprinter.Fingerprint(pan),
		Last4:           pan[len(pan)-4:],
		Status:          domain.CardStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, "", err
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Str("account_id", accountID.String()).
		Str("last4", card.Last4).
		Msg("card issued")

	return card, pan, nil
}

// ListCards returns the user's cards with masked PANs.
func (s *CardServiceImpl) ListCards(ctx context.Context, userID uuid.UUID) ([]ports.CardView, error) {
	cards, err := s.cardRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list cards: %w", err))
	}
	views := make([]ports.CardView, 0, len(cards))
	for _, card := range cards {
		pan, err := s.encSvc.Decrypt(card.NumberEncrypted, card.UserID.String())
		if err != nil {
			return nil, err
		}
		views = append(views, ports.CardView{
			Card:         card,
			MaskedNumber: MaskCardNumber(pan),
		})
	}
	return views, nil
}

// UpdateStatus changes a card's lifecycle state, enforcing ownership.
func (s *CardServiceImpl) UpdateStatus(ctx context.Context, userID, cardID uuid.UUID, status domain.CardStatus) error {
	switch status {
	case domain.CardStatusActive, domain.CardStatusInactive, domain.CardStatusBlocked:
	default:
		return apperror.Validation("unknown card status")
	}

	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("get card: %w", err))
	}
	if card == nil {
		return apperror.Validation("card not found")
	}
	if card.UserID != userID {
		return apperror.ErrForbidden()
	}

	if err := s.cardRepo.UpdateStatus(ctx, cardID, status); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update card status: %w", err))
	}
	return nil
}
