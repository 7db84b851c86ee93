package model

// DefaultAuthSessionExpiration is the session lifetime in minutes applied to
// freshly created settings rows (30 days).
const DefaultAuthSessionExpiration = 43800

// Settings mirrors the `user_settings` table (one row per user, created
// together with the user).
//
// Fields:
//
//	UserID                – primary key and foreign key to users.
//	AuthSessionExpiration – refresh-token lifetime in minutes for new sessions.
type Settings struct {
	UserID                uint64 // user_settings.user_id
	AuthSessionExpiration int    // user_settings.auth_session_expiration
}
