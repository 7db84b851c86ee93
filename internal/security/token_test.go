package security

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	subject := uuid.NewString()

	token, err := codec.Encode(subject, 15)
	require.NoError(t, err)

	got, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, subject, got)
}

func TestTokenCodecRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenCodec("secret-a").Encode(uuid.NewString(), 15)
	require.NoError(t, err)

	_, err = NewTokenCodec("secret-b").Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecRejectsExpired(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	token, err := codec.Encode(uuid.NewString(), -1)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecRejectsGarbage(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.Decode(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
