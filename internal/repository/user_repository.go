package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/model"
)

// UserRepo encapsulates queries against the `users` table.
type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, email, password_hash, name, status, created_at, deleted_at"

// NormalizeEmail lowercases and trims an email. Emails are compared and
// stored in this form so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailExists reports whether an active user already uses the email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email = ? AND status = ? LIMIT 1",
		NormalizeEmail(email), model.StatusActive).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a user and populates its ID. The caller is expected to
// have checked email uniqueness first (EmailExists) inside the same
// transaction.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, status, created_at) VALUES (?,?,?,?,?)",
		u.Email, u.PasswordHash, u.Name, u.Status, u.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID fetches a user by id. A missing row maps to UserNotFound and a
// soft-deleted row to UserDeleted.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if err != nil {
		return nil, err
	}
	if u.Deleted() {
		return nil, apperror.UserDeleted()
	}
	return u, nil
}

// GetByEmail fetches an active user by normalized email. Deleted users are
// invisible to this lookup, so a deleted account behaves like an unknown
// email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := r.scanOne(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? AND status = ? LIMIT 1",
		NormalizeEmail(email), model.StatusActive))
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Update persists email and name changes.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET email = ?, name = ? WHERE id = ?",
		u.Email, u.Name, u.ID)
	return err
}

// SoftDelete marks the user deleted. The row and its email remain for audit
// history.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET status = ?, deleted_at = ? WHERE id = ? AND status = ?",
		model.StatusDeleted, at, id, model.StatusActive)
	return err
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var (
		u         model.User
		deletedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Status, &u.CreatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.UserNotFound()
	}
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return &u, nil
}
