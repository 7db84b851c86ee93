package model

import "time"

// AuthSession mirrors the `auth_sessions` table. One row per authenticated
// device/browser session. The row is the durable source of truth for the
// refresh token; the currently valid access token lives in the access cache
// and the column here only records which cache key belongs to this session.
//
// A session is terminated by logout, fingerprint mismatch or a bulk revoke.
// Termination is one-directional: once Status is deleted the row must never
// again produce a valid access or refresh token.
//
// Fields:
//
//	ID           – CHAR(36) UUID primary key, immutable.
//	UserID       – owning user (many sessions per user).
//	UserIP       – last-known client IP, updated on login/refresh/logout.
//	UserAgent    – last-known user agent (nullable).
//	Fingerprint  – salted hash of the client device fingerprint, immutable.
//	AccessToken  – UUID of the outstanding access token, unique, nullable.
//	RefreshToken – UUID of the current refresh token, unique, nullable,
//	               rotated on every successful refresh.
//	ExpiresIn    – refresh-token (session) lifetime in minutes, copied from
//	               user settings at creation.
//	Status       – active / deleted.
//	LastOnline   – timestamp of the most recent successful login/refresh.
//	CreatedAt    – creation timestamp, immutable.
//	DeletedAt    – termination timestamp (nil while active), set exactly once.
type AuthSession struct {
	ID           string     // auth_sessions.id
	UserID       uint64     // auth_sessions.user_id
	UserIP       string     // auth_sessions.user_ip
	UserAgent    *string    // auth_sessions.user_agent (nullable)
	Fingerprint  string     // auth_sessions.fingerprint
	AccessToken  *string    // auth_sessions.access_token (nullable, unique)
	RefreshToken *string    // auth_sessions.refresh_token (nullable, unique)
	ExpiresIn    int        // auth_sessions.expires_in (minutes)
	Status       Status     // auth_sessions.status
	LastOnline   time.Time  // auth_sessions.last_online
	CreatedAt    time.Time  // auth_sessions.created_at
	DeletedAt    *time.Time // auth_sessions.deleted_at (nullable)
}

// Terminated reports whether the session has been soft-deleted.
func (s *AuthSession) Terminated() bool { return s.Status == StatusDeleted }

// Terminate clears both token columns and marks the session deleted. Used
// for logout and revocation; a fingerprint-mismatch termination keeps the
// refresh token on the row instead, so a retry of the stale token still
// resolves to the dead session.
func (s *AuthSession) Terminate(at time.Time) {
	s.AccessToken = nil
	s.RefreshToken = nil
	s.Status = StatusDeleted
	s.DeletedAt = &at
}
