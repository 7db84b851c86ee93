package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/model"
)

// AuthSessionRepo encapsulates queries against the `auth_sessions` table,
// the durable side of the session protocol. Access-token validity lives in
// the access cache; this table owns identity, refresh tokens and the
// soft-delete lifecycle.
type AuthSessionRepo struct {
	db DBTX
}

func NewAuthSessionRepo(db DBTX) *AuthSessionRepo { return &AuthSessionRepo{db: db} }

const sessionColumns = "id, user_id, user_ip, user_agent, fingerprint, access_token, " +
	"refresh_token, expires_in, status, last_online, created_at, deleted_at"

// Create inserts a fresh session row.
func (r *AuthSessionRepo) Create(ctx context.Context, s *model.AuthSession) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO auth_sessions ("+sessionColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		s.ID, s.UserID, s.UserIP, s.UserAgent, s.Fingerprint, s.AccessToken,
		s.RefreshToken, s.ExpiresIn, s.Status, s.LastOnline, s.CreatedAt, s.DeletedAt)
	return err
}

// GetByID fetches a session by id. A missing row maps to
// AuthSessionNotFound; a terminated row to AuthSessionDeleted — a dead
// session must never be usable even when its id is still known.
func (r *AuthSessionRepo) GetByID(ctx context.Context, id string) (*model.AuthSession, error) {
	return r.getOne(ctx, "SELECT "+sessionColumns+" FROM auth_sessions WHERE id = ? LIMIT 1", id)
}

// GetByIDAndUser fetches a session by id scoped to its owner, for targeted
// revocation of another device's session.
func (r *AuthSessionRepo) GetByIDAndUser(ctx context.Context, id string, userID uint64) (*model.AuthSession, error) {
	return r.getOne(ctx,
		"SELECT "+sessionColumns+" FROM auth_sessions WHERE id = ? AND user_id = ? LIMIT 1",
		id, userID)
}

// GetByRefreshToken fetches a session by its current refresh-token id. A
// rotated-away token matches no row and maps to AuthSessionNotFound.
func (r *AuthSessionRepo) GetByRefreshToken(ctx context.Context, refreshTokenID string) (*model.AuthSession, error) {
	return r.getOne(ctx,
		"SELECT "+sessionColumns+" FROM auth_sessions WHERE refresh_token = ? LIMIT 1",
		refreshTokenID)
}

// Update persists every mutable column of the session row.
func (r *AuthSessionRepo) Update(ctx context.Context, s *model.AuthSession) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE auth_sessions
		    SET user_ip = ?, user_agent = ?, access_token = ?, refresh_token = ?,
		        status = ?, last_online = ?, deleted_at = ?
		  WHERE id = ?`,
		s.UserIP, s.UserAgent, s.AccessToken, s.RefreshToken,
		s.Status, s.LastOnline, s.DeletedAt, s.ID)
	return err
}

// ListByUser returns the user's active sessions, newest first, with the
// total count for pagination.
func (r *AuthSessionRepo) ListByUser(ctx context.Context, userID uint64, p Pagination) ([]*model.AuthSession, int, error) {
	p = p.Normalize()

	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(id) FROM auth_sessions WHERE user_id = ? AND status = ?",
		userID, model.StatusActive).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM auth_sessions WHERE user_id = ? AND status = ? "+
			"ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		userID, model.StatusActive, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.AuthSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListActiveByUser returns every active session of the user, for revocation
// sweeps.
func (r *AuthSessionRepo) ListActiveByUser(ctx context.Context, userID uint64) ([]*model.AuthSession, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM auth_sessions WHERE user_id = ? AND status = ?",
		userID, model.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AuthSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TerminateAllForUser clears both token columns and marks every active
// session of the user deleted in one statement, so a revocation sweep is
// all-or-nothing with respect to the relational store.
func (r *AuthSessionRepo) TerminateAllForUser(ctx context.Context, userID uint64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE auth_sessions
		    SET access_token = NULL, refresh_token = NULL, status = ?, deleted_at = ?
		  WHERE user_id = ? AND status = ?`,
		model.StatusDeleted, at, userID, model.StatusActive)
	return err
}

func (r *AuthSessionRepo) getOne(ctx context.Context, query string, args ...any) (*model.AuthSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if s.Terminated() {
		return nil, apperror.AuthSessionDeleted()
	}
	return s, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.AuthSession, error) {
	var (
		s            model.AuthSession
		userAgent    sql.NullString
		accessToken  sql.NullString
		refreshToken sql.NullString
		deletedAt    sql.NullTime
	)
	err := row.Scan(&s.ID, &s.UserID, &s.UserIP, &userAgent, &s.Fingerprint,
		&accessToken, &refreshToken, &s.ExpiresIn, &s.Status, &s.LastOnline,
		&s.CreatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.AuthSessionNotFound()
	}
	if err != nil {
		return nil, err
	}
	if userAgent.Valid {
		v := userAgent.String
		s.UserAgent = &v
	}
	if accessToken.Valid {
		v := accessToken.String
		s.AccessToken = &v
	}
	if refreshToken.Valid {
		v := refreshToken.String
		s.RefreshToken = &v
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		s.DeletedAt = &t
	}
	return &s, nil
}
