package tokencrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Cipher encrypts OAuth tokens at rest with AES-256-GCM. Envelopes are
// self-contained (hex(nonce) + ":" + hex(ciphertext)) so rows can be decrypted
// in any order. There is no key rotation: changing the secret invalidates
// every stored credential and forces re-authorization.
type Cipher struct {
	aead cipher.AEAD
}

var (
	ErrNoSecret      = errors.New("tokencrypt: encryption secret is required")
	ErrDecryptFailed = errors.New("tokencrypt: decryption failed")
)

const keyContext = "reviewdeck/google-token-encryption/v1"

// New derives a 32-byte AES key from the configured secret via HKDF-SHA256
// and returns a ready-to-use cipher.
func New(secret string) (*Cipher, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyContext))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("tokencrypt: key derivation: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tokencrypt: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("tokencrypt: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("tokencrypt: nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. A malformed envelope, a
// wrong key, or corrupted ciphertext all report ErrDecryptFailed; callers
// must treat that as "credential unusable", not crash.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	parts := strings.SplitN(envelope, ":", 2)
	if len(parts) != 2 {
		return "", ErrDecryptFailed
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrDecryptFailed
	}
	sealed, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrDecryptFailed
	}

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plaintext), nil
}
