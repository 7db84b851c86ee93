package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

// ErrInvalidCiphertext is returned when decryption fails: truncated input,
// tampered data or a wrong key.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// ContentCipher encrypts record content with AES-256-GCM. The AEAD key is
// derived from the caller-supplied key (the per-session encryption key) mixed
// with the process secret, so ciphertext is bound to both.
type ContentCipher struct {
	secret string
}

// NewContentCipher returns a cipher bound to the process secret.
func NewContentCipher(secret string) *ContentCipher {
	return &ContentCipher{secret: secret}
}

// Encrypt encrypts plaintext under key and returns a URL-safe base64 string
// of nonce||ciphertext.
func (c *ContentCipher) Encrypt(plaintext, key string) (string, error) {
	aead, err := c.aead(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any authentication failure is reported as
// ErrInvalidCiphertext without detail.
func (c *ContentCipher) Decrypt(ciphertext, key string) (string, error) {
	aead, err := c.aead(key)
	if err != nil {
		return "", err
	}
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) < aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

func (c *ContentCipher) aead(key string) (cipher.AEAD, error) {
	// 32-byte digest of key+secret -> AES-256
	k, err := hex.DecodeString(Hash(key+c.secret, 32, ""))
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
