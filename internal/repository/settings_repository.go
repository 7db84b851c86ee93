package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/model"
)

// SettingsRepo encapsulates queries against the `user_settings` table. The
// row is created together with the user and removed when the account is
// deleted.
type SettingsRepo struct {
	db DBTX
}

func NewSettingsRepo(db DBTX) *SettingsRepo { return &SettingsRepo{db: db} }

// Create inserts the settings row with defaults.
func (r *SettingsRepo) Create(ctx context.Context, userID uint64) (*model.Settings, error) {
	s := &model.Settings{
		UserID:                userID,
		AuthSessionExpiration: model.DefaultAuthSessionExpiration,
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_settings (user_id, auth_session_expiration) VALUES (?,?)",
		s.UserID, s.AuthSessionExpiration)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Get fetches the user's settings. A missing row means the user is gone.
func (r *SettingsRepo) Get(ctx context.Context, userID uint64) (*model.Settings, error) {
	var s model.Settings
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, auth_session_expiration FROM user_settings WHERE user_id = ? LIMIT 1",
		userID).Scan(&s.UserID, &s.AuthSessionExpiration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.UserNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Update persists the settings values.
func (r *SettingsRepo) Update(ctx context.Context, s *model.Settings) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE user_settings SET auth_session_expiration = ? WHERE user_id = ?",
		s.AuthSessionExpiration, s.UserID)
	return err
}

// Delete removes the settings row (account deletion).
func (r *SettingsRepo) Delete(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM user_settings WHERE user_id = ?", userID)
	return err
}
