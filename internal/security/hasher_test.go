package security

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDigestSizes(t *testing.T) {
	for _, size := range []int{8, 32, 64} {
		digest := Hash("secret", size, "")
		raw, err := hex.DecodeString(digest)
		require.NoError(t, err)
		assert.Len(t, raw, size)
	}
}

func TestHashSaltChangesDigest(t *testing.T) {
	plain := Hash("secret", 32, "")
	salted := Hash("secret", 32, "pepper")
	assert.NotEqual(t, plain, salted)
	assert.Equal(t, salted, Hash("secret", 32, "pepper"))
}

func TestHashPasswordDeterministic(t *testing.T) {
	first := HashPassword("P@$sW0rd!")
	second := HashPassword("P@$sW0rd!")
	assert.Equal(t, first, second)
	assert.Len(t, first, 128) // 64-byte digest, hex-encoded

	assert.NotEqual(t, first, HashPassword("P@$sW0rd?"))
}

func TestHashPasswordSaltDependsOnInput(t *testing.T) {
	// Inputs agreeing on even offsets share the derived salt but still
	// produce different digests.
	a := HashPassword("abcdef")
	b := HashPassword("axcxex")
	assert.NotEqual(t, a, b)
}

func TestDeriveEncryptionKey(t *testing.T) {
	passwordHash := HashPassword("P@$sW0rd!")
	key := DeriveEncryptionKey(passwordHash)
	assert.Len(t, key, 64) // 32-byte digest, hex-encoded
	assert.Equal(t, key, DeriveEncryptionKey(passwordHash))

	// Only the hash tail feeds the key: changing the password changes the
	// hash and with it the key.
	other := DeriveEncryptionKey(HashPassword("another-password"))
	assert.NotEqual(t, key, other)
}

func TestEveryOther(t *testing.T) {
	assert.Equal(t, "ace", everyOther("abcde"))
	assert.Equal(t, "", everyOther(""))
	assert.Equal(t, "a", everyOther("ab"))

	// Counted per character, not per byte.
	assert.Equal(t, "hlo", everyOther("héllo"))
	assert.Equal(t, "прл", everyOther("пароль"))
}

func TestHashPasswordNonASCIIDeterministic(t *testing.T) {
	first := HashPassword("пароль-Ünïcødé")
	assert.Equal(t, first, HashPassword("пароль-Ünïcødé"))
}
