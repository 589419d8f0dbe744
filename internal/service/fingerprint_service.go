package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HMACFingerprintService implements ports.FingerprintService using
// HMAC-SHA256 with a dedicated key. Fingerprints are deterministic so
// they support equality lookups (duplicate SSNs, duplicate PANs)
// without storing plaintext; the key keeps them non-invertible by
// brute force over the small input space.
type HMACFingerprintService struct {
	key []byte
}

// NewHMACFingerprintService creates a fingerprint service keyed with
// the given secret.
func NewHMACFingerprintService(secret string) *HMACFingerprintService {
	return &HMACFingerprintService{key: []byte(secret)}
}

// Fingerprint computes the keyed digest of value. Non-digit formatting
// is stripped first so "123-45-6789" and "123456789" collide as they
// should.
func (s *HMACFingerprintService) Fingerprint(value string) string {
	normalized := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
	if normalized == "" {
		normalized = strings.TrimSpace(strings.ToLower(value))
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}
