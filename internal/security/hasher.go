// Package security provides the hashing, token signing and content
// encryption primitives shared by the auth subsystem and the record
// handlers.
package security

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hash returns the hex-encoded BLAKE2b digest of text. digestSize is the
// digest length in bytes (1..64). A non-empty salt is mixed in ahead of the
// input; the x/crypto BLAKE2b implementation does not expose the parameter
// block salt, so the salt is written into the hash state as a prefix.
func Hash(text string, digestSize int, salt string) string {
	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		// digest size out of range is a programming error
		panic(err)
	}
	if salt != "" {
		h.Write([]byte(salt))
	}
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// HashPassword returns the deterministic salted hash used for passwords and
// device fingerprints. The salt is derived from the input itself (the hash
// of every other character), so the same input always yields the same
// digest and can be compared directly against a stored hash without a
// separate salt column.
//
// The construction is deliberately weak: without an independent random salt,
// related passwords produce related digests across users. It is kept because
// the whole session protocol depends on determinism — login compares hashes
// directly, refresh compares fingerprint hashes, and the record encryption
// key is derived from the stored password hash.
func HashPassword(password string) string {
	return HashPasswordSize(password, 64)
}

// HashPasswordSize is HashPassword with a configurable digest size in bytes.
func HashPasswordSize(text string, digestSize int) string {
	return Hash(text, digestSize, Hash(everyOther(text), 8, ""))
}

// DeriveEncryptionKey derives the per-session record encryption key from the
// tail of the user's stored password hash. Changing the password therefore
// invalidates every cached key and forces re-login.
func DeriveEncryptionKey(passwordHash string) string {
	tail := passwordHash
	if len(tail) > 32 {
		tail = tail[len(tail)-32:]
	}
	return HashPasswordSize(tail, 32)
}

// everyOther keeps the characters at even positions of s, counting runes so
// multi-byte characters are never split.
func everyOther(s string) string {
	var b strings.Builder
	i := 0
	for _, r := range s {
		if i%2 == 0 {
			b.WriteRune(r)
		}
		i++
	}
	return b.String()
}
