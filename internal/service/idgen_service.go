package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"

	"github.com/rs/zerolog"
)

// cardNumberMaxAttempts bounds the uniqueness retry loop. With a 9-digit
// random body the collision odds per attempt are negligible, so hitting
// the bound signals a broken RNG or fingerprint store rather than bad luck.
const cardNumberMaxAttempts = 10

// accountTypeCodes are the two-digit suffixes appended to the member
// number when deriving account numbers.
var accountTypeCodes = map[domain.AccountType]string{
	domain.AccountTypeChecking: "10",
	domain.AccountTypeSavings:  "20",
}

// IdentifierServiceImpl implements ports.IdentifierService.
type IdentifierServiceImpl struct {
	routingNumber string
	cardBIN       string
	cardRepo      ports.CardRepository
	fingerprinter ports.FingerprintService
	logger        zerolog.Logger
}

// NewIdentifierService creates the identifier generator. routingNumber
// must be a valid 9-digit ABA number; cardBIN a 6-digit issuer prefix.
func NewIdentifierService(
	routingNumber string,
	cardBIN string,
	cardRepo ports.CardRepository,
	fingerprinter ports.FingerprintService,
	logger zerolog.Logger,
) *IdentifierServiceImpl {
	return &IdentifierServiceImpl{
		routingNumber: routingNumber,
		cardBIN:       cardBIN,
		cardRepo:      cardRepo,
		fingerprinter: fingerprinter,
		logger:        logger.With().Str("component", "idgen").Logger(),
	}
}

// AccountNumber derives the deterministic ten-digit account number:
// the member number zero-padded to eight digits plus a two-digit type
// code. Same member and type always yield the same number, so opening
// a duplicate account of one type collides on the unique constraint
// instead of minting a second number.
func (s *IdentifierServiceImpl) AccountNumber(memberNumber int64, accountType domain.AccountType) string {
	code, ok := accountTypeCodes[accountType]
	if !ok {
		code = "99"
	}
	return fmt.Sprintf("%08d%s", memberNumber, code)
}

// RoutingNumber returns the institution's ABA routing number.
func (s *IdentifierServiceImpl) RoutingNumber() string {
	return s.routingNumber
}

// CardNumber generates a sixteen-digit Luhn-valid PAN: configured BIN,
// nine random digits, check digit. Each candidate is checked against
// existing card fingerprints; after cardNumberMaxAttempts collisions
// the loop gives up with GEN_001 rather than spinning forever.
func (s *IdentifierServiceImpl) CardNumber(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= cardNumberMaxAttempts; attempt++ {
		body, err := randomDigits(9)
		if err != nil {
			return "", apperror.InternalError(err)
		}
		partial := s.cardBIN + body
		pan := partial + luhnCheckDigit(partial)

		exists, err := s.cardRepo.FingerprintExists(ctx, s.fingerprinter.Fingerprint(pan))
		if err != nil {
			return "", apperror.ErrDatabaseError(err)
		}
		if !exists {
			return pan, nil
		}
		s.logger.Warn().Int("attempt", attempt).Msg("generated card number collided, retrying")
	}
	return "", apperror.ErrExhaustedRetries("card number")
}

// randomDigits returns n cryptographically random decimal digits.
func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + v.Int64())
	}
	return string(buf), nil
}

// luhnCheckDigit computes the digit that makes partial pass the Luhn
// checksum.
func luhnCheckDigit(partial string) string {
	sum := 0
	double := true
	for i := len(partial) - 1; i >= 0; i-- {
		d := int(partial[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return fmt.Sprintf("%d", (10-sum%10)%10)
}

// LuhnValid reports whether a numeric string passes the Luhn checksum.
func LuhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return len(number) > 0 && sum%10 == 0
}
