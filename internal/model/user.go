package model

import "time"

// Status marks whether an entity is alive or soft-deleted. Rows are never
// physically removed; the status column is paired with a deleted_at
// timestamp so the deletion moment stays auditable.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// User mirrors the `users` table. Emails are stored lowercased and must be
// unique among active users; deleted users keep their row (and email) for
// audit history.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – lowercased email, unique among active users.
//	PasswordHash – deterministic BLAKE2b password hash.
//	Name         – display name.
//	Status       – active / deleted.
//	CreatedAt    – creation timestamp.
//	DeletedAt    – soft-deletion timestamp (nil while active).
type User struct {
	ID           uint64     // users.id
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	Name         string     // users.name
	Status       Status     // users.status
	CreatedAt    time.Time  // users.created_at
	DeletedAt    *time.Time // users.deleted_at (nullable)
}

// Deleted reports whether the user has been soft-deleted.
func (u *User) Deleted() bool { return u.Status == StatusDeleted }
