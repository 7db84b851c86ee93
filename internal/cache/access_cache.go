// Package cache implements the access-token cache: an ephemeral store
// mapping an access-token id to a small session descriptor. Existence of an
// entry is the sole authority for "this access token is currently valid";
// the relational store does not track access-token expiry on its own.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when no live entry exists for the token,
// whether it expired naturally or was explicitly invalidated.
var ErrCacheMiss = errors.New("cache: miss")

// SessionData is the descriptor stored under an access-token id. The
// encryption key is derived from the user's password hash at login/refresh
// time and is used to encrypt and decrypt that user's record content for
// the lifetime of this access token.
type SessionData struct {
	SessionID     string `json:"session_id"`
	UserID        uint64 `json:"user_id"`
	EncryptionKey string `json:"encryption_key"`
}

// AccessCache stores session descriptors keyed by access-token id with a
// TTL equal to the access-token lifetime.
type AccessCache interface {
	// Put stores the descriptor; the entry expires automatically after ttl.
	Put(ctx context.Context, accessTokenID string, data SessionData, ttl time.Duration) error
	// Get returns the descriptor or ErrCacheMiss.
	Get(ctx context.Context, accessTokenID string) (SessionData, error)
	// Delete explicitly invalidates one entry (logout, rotation,
	// fingerprint mismatch). Deleting an absent entry is not an error.
	Delete(ctx context.Context, accessTokenID string) error
	// DeleteMany invalidates a batch of entries for session-revocation
	// sweeps. Best-effort atomicity is acceptable: entries expire by TTL
	// anyway.
	DeleteMany(ctx context.Context, accessTokenIDs []string) error
}

// accessKey builds the cache key for an access-token id.
func accessKey(accessTokenID string) string {
	return "auth:access:" + accessTokenID
}
