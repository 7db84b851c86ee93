// Package auth implements the session protocol: login, refresh with
// rotation, logout and revocation. The Service owns the protocol rules and
// runs each operation inside one serializable transaction; storage is
// reached through narrow store interfaces so the protocol is testable
// against in-memory fakes.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/cache"
	"github.com/pwstorage/pwstorage/internal/model"
	"github.com/pwstorage/pwstorage/internal/security"
)

// UserStore is the slice of the user repository the protocol needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	SoftDelete(ctx context.Context, id uint64, at time.Time) error
}

// SessionStore is the slice of the session repository the protocol needs.
type SessionStore interface {
	Create(ctx context.Context, s *model.AuthSession) error
	GetByID(ctx context.Context, id string) (*model.AuthSession, error)
	GetByIDAndUser(ctx context.Context, id string, userID uint64) (*model.AuthSession, error)
	GetByRefreshToken(ctx context.Context, refreshTokenID string) (*model.AuthSession, error)
	Update(ctx context.Context, s *model.AuthSession) error
	ListActiveByUser(ctx context.Context, userID uint64) ([]*model.AuthSession, error)
	TerminateAllForUser(ctx context.Context, userID uint64, at time.Time) error
}

// SettingsStore is the slice of the settings repository the protocol needs.
type SettingsStore interface {
	Get(ctx context.Context, userID uint64) (*model.Settings, error)
	Delete(ctx context.Context, userID uint64) error
}

// FolderStore and RecordStore are needed only for account deletion.
type FolderStore interface {
	DeleteAllForUser(ctx context.Context, userID uint64) error
}

type RecordStore interface {
	DeleteAllForUser(ctx context.Context, userID uint64) error
}

// Stores bundles the per-transaction store handles passed to a protocol
// step.
type Stores struct {
	Users    UserStore
	Sessions SessionStore
	Settings SettingsStore
	Folders  FolderStore
	Records  RecordStore
}

// TxRunner runs fn with stores bound to a single serializable transaction.
// fn returning nil commits; an error rolls back and is returned unchanged.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// Security event types published to the audit queue.
const (
	EventLogin             = "login"
	EventSessionTerminated = "session_terminated"
	EventSessionsRevoked   = "sessions_revoked"
	EventAccountDeleted    = "account_deleted"
)

// Event is a security event emitted after a protocol operation commits.
type Event struct {
	Type      string    `json:"type"`
	UserID    uint64    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	UserIP    string    `json:"user_ip,omitempty"`
	At        time.Time `json:"at"`
}

// EventPublisher delivers security events to the audit queue. Delivery is
// best-effort: a publish failure is logged, never surfaced to the client.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev Event) error
}

// RequestInfo carries the client metadata recorded on the session row.
// Fingerprint is the raw client value; it is hashed before storage or
// comparison.
type RequestInfo struct {
	IP          string
	UserAgent   string
	Fingerprint string
}

// TokenPair is the result of login and refresh: two signed tokens plus
// their lifetimes in minutes.
type TokenPair struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	AccessTokenExpiresIn  int    `json:"access_token_expires_in"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in"`
}

// Service orchestrates the session protocol.
type Service struct {
	runner    TxRunner
	cache     cache.AccessCache
	codec     *security.TokenCodec
	accessTTL int // minutes
	events    EventPublisher
	log       zerolog.Logger
}

// NewService builds a Service. accessTTLMinutes is the access-token
// lifetime; events may be nil when no queue is configured.
func NewService(runner TxRunner, c cache.AccessCache, codec *security.TokenCodec,
	accessTTLMinutes int, events EventPublisher, log zerolog.Logger) *Service {
	return &Service{
		runner:    runner,
		cache:     c,
		codec:     codec,
		accessTTL: accessTTLMinutes,
		events:    events,
		log:       log,
	}
}

// CreateToken performs login: verifies credentials, creates a session row,
// caches the access descriptor and returns the signed token pair. Unknown
// email and wrong password are deliberately indistinguishable.
func (s *Service) CreateToken(ctx context.Context, email, password string, req RequestInfo) (*TokenPair, error) {
	var (
		pair   *TokenPair
		userID uint64
		sessID string
	)
	err := s.runner.InTx(ctx, func(ctx context.Context, st Stores) error {
		user, err := st.Users.GetByEmail(ctx, email)
		if err != nil {
			if apperror.IsCode(err, apperror.CodeUserNotFound) {
				return apperror.BadAuthData()
			}
			return err
		}
		if security.HashPassword(password) != user.PasswordHash {
			return apperror.BadAuthData()
		}
		settings, err := st.Settings.Get(ctx, user.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		accessID := uuid.NewString()
		refreshID := uuid.NewString()
		sess := &model.AuthSession{
			ID:           uuid.NewString(),
			UserID:       user.ID,
			UserIP:       req.IP,
			Fingerprint:  security.HashPassword(req.Fingerprint),
			AccessToken:  &accessID,
			RefreshToken: &refreshID,
			ExpiresIn:    settings.AuthSessionExpiration,
			Status:       model.StatusActive,
			LastOnline:   now,
			CreatedAt:    now,
		}
		if req.UserAgent != "" {
			ua := req.UserAgent
			sess.UserAgent = &ua
		}
		if err := st.Sessions.Create(ctx, sess); err != nil {
			return err
		}

		data := cache.SessionData{
			SessionID:     sess.ID,
			UserID:        user.ID,
			EncryptionKey: security.DeriveEncryptionKey(user.PasswordHash),
		}
		if err := s.cache.Put(ctx, accessID, data, s.accessTTLDuration()); err != nil {
			return err
		}

		pair, err = s.signPair(accessID, refreshID, settings.AuthSessionExpiration)
		if err != nil {
			return err
		}
		userID, sessID = user.ID, sess.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, Event{Type: EventLogin, UserID: userID, SessionID: sessID, UserIP: req.IP})
	return pair, nil
}

// RefreshToken rotates the token pair of the session owning refreshTokenID.
// A fingerprint mismatch terminates the session: the termination is
// committed and only then reported as 401, so the stolen refresh token is
// dead even though the request failed.
func (s *Service) RefreshToken(ctx context.Context, refreshTokenID string, req RequestInfo) (*TokenPair, error) {
	var (
		pair   *TokenPair
		badFp  bool
		userID uint64
		sessID string
	)
	err := s.runner.InTx(ctx, func(ctx context.Context, st Stores) error {
		sess, err := st.Sessions.GetByRefreshToken(ctx, refreshTokenID)
		if err != nil {
			return err
		}
		userID, sessID = sess.UserID, sess.ID

		// The presented access token is spent either way.
		if sess.AccessToken != nil {
			if err := s.cache.Delete(ctx, *sess.AccessToken); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		sess.UserIP = req.IP
		if req.UserAgent != "" {
			ua := req.UserAgent
			sess.UserAgent = &ua
		}
		sess.LastOnline = now

		if security.HashPassword(req.Fingerprint) != sess.Fingerprint {
			// Only the access token is cleared: the refresh token stays on
			// the terminated row so retrying it yields 409, not 404.
			sess.AccessToken = nil
			sess.Status = model.StatusDeleted
			sess.DeletedAt = &now
			if err := st.Sessions.Update(ctx, sess); err != nil {
				return err
			}
			badFp = true
			return nil // commit the termination
		}

		user, err := st.Users.GetByID(ctx, sess.UserID)
		if err != nil {
			return err
		}
		settings, err := st.Settings.Get(ctx, sess.UserID)
		if err != nil {
			return err
		}

		accessID := uuid.NewString()
		newRefreshID := uuid.NewString()
		sess.AccessToken = &accessID
		sess.RefreshToken = &newRefreshID
		if err := st.Sessions.Update(ctx, sess); err != nil {
			return err
		}

		data := cache.SessionData{
			SessionID:     sess.ID,
			UserID:        user.ID,
			EncryptionKey: security.DeriveEncryptionKey(user.PasswordHash),
		}
		if err := s.cache.Put(ctx, accessID, data, s.accessTTLDuration()); err != nil {
			return err
		}

		pair, err = s.signPair(accessID, newRefreshID, settings.AuthSessionExpiration)
		return err
	})
	if err != nil {
		return nil, err
	}
	if badFp {
		s.emit(ctx, Event{Type: EventSessionTerminated, UserID: userID, SessionID: sessID, UserIP: req.IP})
		return nil, apperror.BadFingerprint()
	}
	return pair, nil
}

// DeleteSession terminates the caller's own session (logout). Logging out
// an already terminated session is an error, never a no-op.
func (s *Service) DeleteSession(ctx context.Context, sessionID string, req RequestInfo) error {
	return s.terminateOne(ctx, req, func(ctx context.Context, st Stores) (*model.AuthSession, error) {
		return st.Sessions.GetByID(ctx, sessionID)
	})
}

// DeleteUserSession terminates one session of the user by id (revoking
// another device). The lookup is owner-scoped: someone else's session id is
// indistinguishable from a missing one.
func (s *Service) DeleteUserSession(ctx context.Context, sessionID string, userID uint64, req RequestInfo) error {
	return s.terminateOne(ctx, req, func(ctx context.Context, st Stores) (*model.AuthSession, error) {
		return st.Sessions.GetByIDAndUser(ctx, sessionID, userID)
	})
}

func (s *Service) terminateOne(ctx context.Context, req RequestInfo,
	get func(ctx context.Context, st Stores) (*model.AuthSession, error)) error {
	var (
		userID uint64
		sessID string
	)
	err := s.runner.InTx(ctx, func(ctx context.Context, st Stores) error {
		sess, err := get(ctx, st)
		if err != nil {
			return err
		}
		userID, sessID = sess.UserID, sess.ID

		if sess.AccessToken != nil {
			if err := s.cache.Delete(ctx, *sess.AccessToken); err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		if req.IP != "" {
			sess.UserIP = req.IP
		}
		if req.UserAgent != "" {
			ua := req.UserAgent
			sess.UserAgent = &ua
		}
		sess.LastOnline = now
		sess.Terminate(now)
		return st.Sessions.Update(ctx, sess)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, Event{Type: EventSessionTerminated, UserID: userID, SessionID: sessID, UserIP: req.IP})
	return nil
}

// DeleteUserSessions terminates every active session of the user: cache
// entries are invalidated in one pipelined batch, then the rows are swept in
// one statement.
func (s *Service) DeleteUserSessions(ctx context.Context, userID uint64) error {
	err := s.runner.InTx(ctx, func(ctx context.Context, st Stores) error {
		return s.revokeAll(ctx, st, userID)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, Event{Type: EventSessionsRevoked, UserID: userID})
	return nil
}

// DeleteAccount soft-deletes the user and tears down everything attached:
// sessions, settings, folders (cascading their records) and loose records.
func (s *Service) DeleteAccount(ctx context.Context, userID uint64) error {
	err := s.runner.InTx(ctx, func(ctx context.Context, st Stores) error {
		user, err := st.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.revokeAll(ctx, st, user.ID); err != nil {
			return err
		}
		if err := st.Settings.Delete(ctx, user.ID); err != nil {
			return err
		}
		if err := st.Folders.DeleteAllForUser(ctx, user.ID); err != nil {
			return err
		}
		if err := st.Records.DeleteAllForUser(ctx, user.ID); err != nil {
			return err
		}
		return st.Users.SoftDelete(ctx, user.ID, time.Now().UTC())
	})
	if err != nil {
		return err
	}
	s.emit(ctx, Event{Type: EventAccountDeleted, UserID: userID})
	return nil
}

func (s *Service) revokeAll(ctx context.Context, st Stores, userID uint64) error {
	sessions, err := st.Sessions.ListActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	var accessIDs []string
	for _, sess := range sessions {
		if sess.AccessToken != nil {
			accessIDs = append(accessIDs, *sess.AccessToken)
		}
	}
	if err := s.cache.DeleteMany(ctx, accessIDs); err != nil {
		return err
	}
	return st.Sessions.TerminateAllForUser(ctx, userID, time.Now().UTC())
}

func (s *Service) signPair(accessID, refreshID string, refreshExpiresIn int) (*TokenPair, error) {
	access, err := s.codec.Encode(accessID, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Encode(refreshID, refreshExpiresIn)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresIn:  s.accessTTL,
		RefreshTokenExpiresIn: refreshExpiresIn,
	}, nil
}

func (s *Service) accessTTLDuration() time.Duration {
	return time.Duration(s.accessTTL) * time.Minute
}

func (s *Service) emit(ctx context.Context, ev Event) {
	if s.events == nil {
		return
	}
	ev.At = time.Now().UTC()
	if err := s.events.PublishEvent(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn().Err(err).Str("event", ev.Type).Uint64("user_id", ev.UserID).
			Msg("failed to publish security event")
	}
}
