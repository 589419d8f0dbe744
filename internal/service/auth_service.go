package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo      ports.UserRepository
	hashSvc       ports.HashService
	encSvc        ports.EncryptionService
	fingerprinter ports.FingerprintService
	tokenSvc      ports.TokenService
	log           zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	hashSvc ports.HashService,
	encSvc ports.EncryptionService,
	fingerprinter ports.FingerprintService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:      userRepo,
		hashSvc:       hashSvc,
		encSvc:        encSvc,
		fingerprinter: fingerprinter,
		tokenSvc:      tokenSvc,
		log:           log,
	}
}

// Register creates a new user. PII fields are encrypted field by field
// before anything is persisted; the SSN additionally gets a keyed
// fingerprint so duplicate registrations are caught without plaintext
// comparison.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.User, error) {
	// Email uniqueness is case-insensitive; store the canonical form.
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	var ssnFingerprint string
	if req.SSN != "" {
		ssnFingerprint = s.fingerprinter.Fingerprint(req.SSN)
		dup, err := s.userRepo.GetBySSNFingerprint(ctx, ssnFingerprint)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("check ssn: %w", err))
		}
		if dup != nil {
			return nil, apperror.Validation("identity already registered")
		}
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	pii, err := s.encryptPII(req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uuid.New(),
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		PasswordHash:   passwordHash,
		Role:           domain.RoleUser,
		KYCStatus:      domain.KYCStatusPending,
		MarketingOptIn: req.MarketingOptIn,
		PII:            pii,
		SSNFingerprint: ssnFingerprint,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create user: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Int64("member_number", user.MemberNumber).
		Msg("user registered")

	return user, nil
}

// Login validates credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", time.Time{}, nil, apperror.ErrDatabaseError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, nil, apperror.ErrInvalidCredentials()
	}

	if user.Locked {
		return "", time.Time{}, nil, apperror.ErrAccountLocked(user.LockReason)
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID, user.Role)
	if err != nil {
		return "", time.Time{}, nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, user, nil
}

// GetProfile returns the user with PII decrypted and masked. Plaintext
// PII never leaves this method.
func (s *AuthServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*ports.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}
	return s.buildProfile(user)
}

func (s *AuthServiceImpl) buildProfile(user *domain.User) (*ports.Profile, error) {
	profile := &ports.Profile{User: user}

	decrypt := func(token string) (string, error) {
		if token == "" {
			return "", nil
		}
		return s.encSvc.Decrypt(token)
	}

	phone, err := decrypt(user.PII.Phone)
	if err != nil {
		return nil, err
	}
	ssn, err := decrypt(user.PII.SSN)
	if err != nil {
		return nil, err
	}
	dob, err := decrypt(user.PII.DateOfBirth)
	if err != nil {
		return nil, err
	}
	city, err := decrypt(user.PII.City)
	if err != nil {
		return nil, err
	}
	state, err := decrypt(user.PII.State)
	if err != nil {
		return nil, err
	}

	if phone != "" {
		profile.MaskedPhone = MaskPhoneNumber(phone)
	}
	if ssn != "" {
		profile.MaskedSSN = MaskSSN(ssn)
	}
	if dob != "" {
		profile.MaskedDOB = MaskDateOfBirth(dob)
	}
	if city != "" || state != "" {
		profile.MaskedAddr = MaskAddress(city, state)
	}
	return profile, nil
}

func (s *AuthServiceImpl) encryptPII(req ports.RegisterRequest) (domain.EncryptedPII, error) {
	var pii domain.EncryptedPII

	encrypt := func(dst *string, plaintext string) error {
		if plaintext == "" {
			return nil
		}
		token, err := s.encSvc.Encrypt(plaintext)
		if err != nil {
			return err
		}
		*dst = token
		return nil
	}

	if err := encrypt(&pii.Phone, req.Phone); err != nil {
		return pii, err
	}
	if err := encrypt(&pii.SSN, req.SSN); err != nil {
		return pii, err
	}
	if err := encrypt(&pii.DateOfBirth, req.DateOfBirth); err != nil {
		return pii, err
	}
	if err := encrypt(&pii.Street, req.Street); err != nil {
		return pii, err
	}
	if err := encrypt(&pii.City, req.City); err != nil {
		return pii, err
	}
	if err := encrypt(&pii.State, req.State); err != nil {
		return pii, err
	}
	if err := encrypt(&pii.Zip, req.Zip); err != nil {
		return pii, err
	}
	return pii, nil
}
