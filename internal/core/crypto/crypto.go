// Package crypto seals provider API keys stored in config.yml with a 4-digit PIN.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Sealed key layout and key derivation cost.
const (
	SaltSize         = 16
	NonceSize        = 12
	KeySize          = 32
	PBKDF2Iterations = 100000
)

var (
	ErrInvalidPIN       = errors.New("PIN must be exactly 4 digits")
	ErrDecryptionFailed = errors.New("decryption failed: wrong PIN or corrupted data")
	ErrInvalidData      = errors.New("invalid encrypted data format")
	ErrPINRequired      = errors.New("key is encrypted: PIN required (set VCLIP_PIN)")

	pinRegex = regexp.MustCompile(`^\d{4}$`)
)

// PlainPrefix marks a key stored without encryption.
const PlainPrefix = "plain:"

// Seal stores key as plain text when pin is empty, encrypted otherwise.
func Seal(key, pin string) (string, error) {
	if pin == "" {
		return PlainPrefix + key, nil
	}
	return Encrypt(key, pin)
}

// Open reverses Seal. Empty input yields an empty key.
func Open(sealed, pin string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	if strings.HasPrefix(sealed, PlainPrefix) {
		return strings.TrimPrefix(sealed, PlainPrefix), nil
	}
	if pin == "" {
		return "", ErrPINRequired
	}
	return Decrypt(sealed, pin)
}

// IsEncrypted reports whether a stored key needs a PIN.
func IsEncrypted(sealed string) bool {
	return sealed != "" && !strings.HasPrefix(sealed, PlainPrefix)
}

// ValidatePIN checks if the PIN is exactly 4 digits.
func ValidatePIN(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ErrInvalidPIN
	}
	return nil
}

// aead builds the AES-256-GCM cipher for pin and salt. The key comes from
// PBKDF2-SHA256.
func aead(pin string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(pin), salt, PBKDF2Iterations, KeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under pin. The output is base64 of
// salt | nonce | ciphertext+tag.
func Encrypt(plaintext, pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}

	buf := make([]byte, SaltSize+NonceSize, SaltSize+NonceSize+len(plaintext)+16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	salt, nonce := buf[:SaltSize], buf[SaltSize:]

	gcm, err := aead(pin, salt)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(buf, nonce, []byte(plaintext), nil)), nil
}

// Decrypt reverses Encrypt. A wrong PIN and tampered data both give
// ErrDecryptionFailed.
func Decrypt(encrypted, pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil || len(raw) < SaltSize+NonceSize+16 {
		return "", ErrInvalidData
	}

	gcm, err := aead(pin, raw[:SaltSize])
	if err != nil {
		return "", err
	}
	plaintext, err := gcm.Open(nil, raw[SaltSize:SaltSize+NonceSize], raw[SaltSize+NonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}
