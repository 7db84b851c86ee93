package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/cache"
	"github.com/pwstorage/pwstorage/internal/security"
)

// Resolver authenticates bearer tokens on the hot path. It touches only the
// codec and the access cache; the relational store is never consulted, so a
// valid cached token costs one Redis round trip.
type Resolver struct {
	codec *security.TokenCodec
	cache cache.AccessCache
}

func NewResolver(codec *security.TokenCodec, c cache.AccessCache) *Resolver {
	return &Resolver{codec: codec, cache: c}
}

// Resolve verifies an access token and returns its session descriptor. Any
// failure — bad signature, expiry, malformed subject, or no cache entry
// (revoked or expired) — collapses into the same 401.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (cache.SessionData, error) {
	subject, err := r.codec.Decode(bearer)
	if err != nil {
		return cache.SessionData{}, apperror.Unauthorized("Invalid token")
	}
	if _, err := uuid.Parse(subject); err != nil {
		return cache.SessionData{}, apperror.Unauthorized("Invalid token")
	}
	data, err := r.cache.Get(ctx, subject)
	if errors.Is(err, cache.ErrCacheMiss) {
		return cache.SessionData{}, apperror.Unauthorized("Invalid token")
	}
	if err != nil {
		return cache.SessionData{}, err
	}
	return data, nil
}

// RefreshSubject decodes a refresh token down to its embedded token id.
// Whether that id still matches a live session is decided by
// Service.RefreshToken inside its transaction, not here.
func (r *Resolver) RefreshSubject(bearer string) (string, error) {
	subject, err := r.codec.Decode(bearer)
	if err != nil {
		return "", apperror.Unauthorized("Invalid refresh token")
	}
	if _, err := uuid.Parse(subject); err != nil {
		return "", apperror.Unauthorized("Invalid refresh token")
	}
	return subject, nil
}
