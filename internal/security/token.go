package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Decode for any token that is malformed,
// carries a bad signature or has expired.
var ErrInvalidToken = errors.New("invalid token")

// TokenCodec signs and verifies compact bearer tokens whose only payload is
// an opaque subject identifier plus an expiry. It knows nothing about
// revocation; that is layered on top by the access cache and the session
// store.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec returns a codec signing with the given HS256 secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Encode signs a token embedding the subject and an expiry expiresInMinutes
// from now.
func (c *TokenCodec) Encode(subject string, expiresInMinutes int) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": now.Add(time.Duration(expiresInMinutes) * time.Minute).Unix(),
		"iat": now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the signature and embedded expiry and returns the subject.
func (c *TokenCodec) Decode(token string) (string, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
