package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"strings"
	"sync"

	"corebank/pkg/apperror"

	"golang.org/x/crypto/pbkdf2"
)

const (
	tokenVersion = "v1"

	// PBKDF2 work factor for deriving per-key-ID data keys from the
	// master secret. OWASP's current floor for PBKDF2-HMAC-SHA256.
	derivationIterations = 210_000
)

// KeyringEncryptionService implements ports.EncryptionService using
// AES-256-GCM under a rotating keyring. Each 32-byte data key is
// derived from the master secret and a key ID; tokens carry the key ID
// so ciphertexts written under retired keys stay readable:
//
//	v1:<key_id>:<base64(nonce || ciphertext)>
type KeyringEncryptionService struct {
	masterSecret []byte

	mu       sync.RWMutex
	keys     map[string]cipher.AEAD
	activeID string
}

// NewKeyringEncryptionService creates a keyring seeded with one active
// key derived for initialKeyID.
func NewKeyringEncryptionService(masterSecret, initialKeyID string) (*KeyringEncryptionService, error) {
	s := &KeyringEncryptionService{
		masterSecret: []byte(masterSecret),
		keys:         make(map[string]cipher.AEAD),
	}
	if err := s.RotateKey(initialKeyID); err != nil {
		return nil, err
	}
	return s, nil
}

// RotateKey derives a key for keyID and makes it the active encryption
// key. Existing keys remain in the ring for decryption only.
func (s *KeyringEncryptionService) RotateKey(keyID string) error {
	if keyID == "" || strings.Contains(keyID, ":") {
		return apperror.Validation("key ID must be non-empty and contain no ':'")
	}
	aead, err := s.deriveAEAD(keyID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[keyID] = aead
	s.activeID = keyID
	return nil
}

// ActiveKeyID returns the key ID new ciphertexts are written under.
func (s *KeyringEncryptionService) ActiveKeyID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Encrypt seals plaintext under the active key. Optional AAD is bound
// into the GCM tag; the same AAD must be supplied to Decrypt.
func (s *KeyringEncryptionService) Encrypt(plaintext string, aad ...string) (string, error) {
	if plaintext == "" {
		return "", apperror.ErrEmptyPlaintext()
	}

	s.mu.RLock()
	keyID := s.activeID
	aead := s.keys[keyID]
	s.mu.RUnlock()
	if aead == nil {
		return "", apperror.ErrNoActiveKey()
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", apperror.ErrEncryptionFailure(err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), aadBytes(aad))
	return tokenVersion + ":" + keyID + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token written under any key in the ring. AAD, when
// the token was sealed with it, must match or authentication fails.
func (s *KeyringEncryptionService) Decrypt(token string, aad ...string) (string, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) != 3 || parts[0] != tokenVersion {
		return "", apperror.ErrMalformedToken()
	}
	keyID := parts[1]

	s.mu.RLock()
	aead := s.keys[keyID]
	s.mu.RUnlock()
	if aead == nil {
		return "", apperror.ErrUnknownKey(keyID)
	}

	sealed, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", apperror.ErrMalformedToken()
	}
	if len(sealed) < aead.NonceSize() {
		return "", apperror.ErrMalformedToken()
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, aadBytes(aad))
	if err != nil {
		return "", apperror.ErrAuthenticationFailed()
	}
	return string(plaintext), nil
}

func aadBytes(aad []string) []byte {
	if len(aad) == 0 {
		return nil
	}
	return []byte(strings.Join(aad, ":"))
}

func (s *KeyringEncryptionService) deriveAEAD(keyID string) (cipher.AEAD, error) {
	salt := []byte("corebank:" + keyID)
	key := pbkdf2.Key(s.masterSecret, salt, derivationIterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}
	return aead, nil
}
