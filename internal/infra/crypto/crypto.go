// Package crypto encrypts gitstore blobs with AES-256-GCM.
//
// Nonces are derived from the plaintext with HMAC-SHA256, so equal plaintexts
// encrypt to equal blobs and unchanged issues keep their blob hashes.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// NonceSize is the size of the nonce for AES-GCM (12 bytes).
	NonceSize = 12
	// KeySize is the size of the AES-256 key (32 bytes).
	KeySize = 32
)

var (
	// ErrInvalidKey is returned when the key is empty or has the wrong size.
	ErrInvalidKey = errors.New("invalid encryption key")
	// ErrDecryptionFailed is returned when decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or key")
	// ErrCiphertextTooShort is returned when the ciphertext is too short.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// Encryptor seals and opens blobs.
type Encryptor struct {
	gcm      cipher.AEAD
	nonceKey []byte
}

// NewEncryptor creates an Encryptor from a raw 32-byte key.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	// Separate key for nonce derivation.
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("kanban nonce key"))

	return &Encryptor{gcm: gcm, nonceKey: mac.Sum(nil)}, nil
}

// ParseKey turns the configured secret into a key. 64 hex characters are used
// as the key itself; anything else is a passphrase stretched with Argon2id,
// salted with salt (the store namespace).
func ParseKey(secret, salt string) ([]byte, error) {
	if secret == "" {
		return nil, ErrInvalidKey
	}
	if len(secret) == 2*KeySize {
		if key, err := hex.DecodeString(secret); err == nil {
			return key, nil
		}
	}
	return argon2.IDKey([]byte(secret), []byte("kanban:"+salt), 1, 64*1024, 4, KeySize), nil
}

// Encrypt seals plaintext.
// Returns: nonce (12 bytes) + ciphertext + auth tag
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, e.nonceKey)
	mac.Write(plaintext)
	nonce := mac.Sum(nil)[:NonceSize]

	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize+e.gcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	nonce := ciphertext[:NonceSize]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
