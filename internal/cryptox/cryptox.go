// Package cryptox seals provider credentials before they are written to the
// database. Ciphertexts are AES-256-GCM with a random nonce per message.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	keyLen  = 32
	prefix  = "v1:"
	kdfSalt = "financially/provider-credential"
)

// ErrMalformed is returned when a sealed value cannot be decoded or authenticated.
var ErrMalformed = errors.New("cryptox: malformed sealed value")

// Sealer encrypts and decrypts short secrets.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// AESSealer is a Sealer backed by AES-GCM.
type AESSealer struct {
	aead cipher.AEAD
}

// DeriveKey stretches a configured secret into a 256-bit key.
func DeriveKey(secret string) []byte {
	return argon2.IDKey([]byte(secret), []byte(kdfSalt), 1, 64*1024, 4, keyLen)
}

// NewAESSealer builds a sealer from a configured secret.
func NewAESSealer(secret string) (*AESSealer, error) {
	if secret == "" {
		return nil, errors.New("cryptox: empty secret")
	}
	return NewAESSealerWithKey(DeriveKey(secret))
}

// NewAESSealerWithKey builds a sealer from a raw 16, 24 or 32 byte key.
func NewAESSealerWithKey(key []byte) (*AESSealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: new gcm: %w", err)
	}
	return &AESSealer{aead: aead}, nil
}

// Seal encrypts plaintext and returns a printable token.
func (s *AESSealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cryptox: nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *AESSealer) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, prefix) {
		return "", ErrMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, prefix))
	if err != nil {
		return "", ErrMalformed
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrMalformed
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrMalformed
	}
	return string(plain), nil
}
