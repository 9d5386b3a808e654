// Package security encrypts exchange credentials at rest.
package security

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Cipher seals values with XChaCha20-Poly1305. The random nonce is stored in
// front of the ciphertext and the result is base64 encoded.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a cipher from a base64 encoded 32 byte key.
func NewCipher(key string) (*Cipher, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("decode credentials key: %w", err)
	}
	if len(raw) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("credentials key must be %d bytes, got %d", chacha20poly1305.KeySize, len(raw))
	}

	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt returns "" for an empty plaintext so absent secrets stay absent.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(data) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", ErrCiphertextTooShort
	}

	nonce, ciphertext := data[:c.aead.NonceSize()], data[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("open ciphertext: %w", err)
	}
	return string(plaintext), nil
}

var (
	defaultOnce   sync.Once
	defaultCipher *Cipher
	defaultErr    error
)

func getDefault() (*Cipher, error) {
	defaultOnce.Do(func() {
		defaultCipher, defaultErr = NewCipher(GetConfig().ExchangeCRKey)
	})
	return defaultCipher, defaultErr
}

// EncryptString encrypts with the key from EXCHANGE_CREDENTIALS_KEY.
func EncryptString(plaintext string) (string, error) {
	c, err := getDefault()
	if err != nil {
		return "", err
	}
	return c.Encrypt(plaintext)
}

// DecryptString decrypts with the key from EXCHANGE_CREDENTIALS_KEY.
func DecryptString(encoded string) (string, error) {
	c, err := getDefault()
	if err != nil {
		return "", err
	}
	return c.Decrypt(encoded)
}
