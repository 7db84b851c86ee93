package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentCipherRoundTrip(t *testing.T) {
	cipher := NewContentCipher("process-secret")
	key := DeriveEncryptionKey(HashPassword("P@$sW0rd!"))

	encrypted, err := cipher.Encrypt("login: admin\npassword: hunter2", key)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "hunter2")

	plain, err := cipher.Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, "login: admin\npassword: hunter2", plain)
}

func TestContentCipherNonceUnique(t *testing.T) {
	cipher := NewContentCipher("process-secret")
	a, err := cipher.Encrypt("same content", "key")
	require.NoError(t, err)
	b, err := cipher.Encrypt("same content", "key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestContentCipherWrongKey(t *testing.T) {
	cipher := NewContentCipher("process-secret")
	encrypted, err := cipher.Encrypt("content", "key-a")
	require.NoError(t, err)

	_, err = cipher.Decrypt(encrypted, "key-b")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestContentCipherSecretBindsCiphertext(t *testing.T) {
	encrypted, err := NewContentCipher("secret-a").Encrypt("content", "key")
	require.NoError(t, err)

	_, err = NewContentCipher("secret-b").Decrypt(encrypted, "key")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestContentCipherRejectsTampered(t *testing.T) {
	cipher := NewContentCipher("process-secret")
	for _, ciphertext := range []string{"", "!!!", "dG9vc2hvcnQ"} {
		_, err := cipher.Decrypt(ciphertext, "key")
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	}
}
