package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/cache"
	"github.com/pwstorage/pwstorage/internal/model"
	"github.com/pwstorage/pwstorage/internal/security"
)

// memStores is an in-memory implementation of the store interfaces with the
// same error mapping as the SQL repositories.
type memStores struct {
	users          map[uint64]*model.User
	sessions       map[string]*model.AuthSession
	settings       map[uint64]*model.Settings
	foldersDropped []uint64
	recordsDropped []uint64
}

func newMemStores() *memStores {
	return &memStores{
		users:    map[uint64]*model.User{},
		sessions: map[string]*model.AuthSession{},
		settings: map[uint64]*model.Settings{},
	}
}

func (m *memStores) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email && !u.Deleted() {
			return u, nil
		}
	}
	return nil, apperror.UserNotFound()
}

func (m *memStores) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.UserNotFound()
	}
	if u.Deleted() {
		return nil, apperror.UserDeleted()
	}
	return u, nil
}

func (m *memStores) SoftDelete(_ context.Context, id uint64, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.Status = model.StatusDeleted
		u.DeletedAt = &at
	}
	return nil
}

func (m *memStores) Create(_ context.Context, s *model.AuthSession) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *memStores) sessionOrErr(s *model.AuthSession, ok bool) (*model.AuthSession, error) {
	if !ok {
		return nil, apperror.AuthSessionNotFound()
	}
	if s.Terminated() {
		return nil, apperror.AuthSessionDeleted()
	}
	return s, nil
}

func (m *memStores) SessionByID(_ context.Context, id string) (*model.AuthSession, error) {
	s, ok := m.sessions[id]
	return m.sessionOrErr(s, ok)
}

func (m *memStores) GetByIDAndUser(_ context.Context, id string, userID uint64) (*model.AuthSession, error) {
	s, ok := m.sessions[id]
	if ok && s.UserID != userID {
		ok = false
	}
	return m.sessionOrErr(s, ok)
}

func (m *memStores) GetByRefreshToken(_ context.Context, refreshTokenID string) (*model.AuthSession, error) {
	for _, s := range m.sessions {
		if s.RefreshToken != nil && *s.RefreshToken == refreshTokenID {
			return m.sessionOrErr(s, true)
		}
	}
	return nil, apperror.AuthSessionNotFound()
}

func (m *memStores) Update(_ context.Context, s *model.AuthSession) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *memStores) ListActiveByUser(_ context.Context, userID uint64) ([]*model.AuthSession, error) {
	var out []*model.AuthSession
	for _, s := range m.sessions {
		if s.UserID == userID && !s.Terminated() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStores) TerminateAllForUser(_ context.Context, userID uint64, at time.Time) error {
	for _, s := range m.sessions {
		if s.UserID == userID && !s.Terminated() {
			s.Terminate(at)
		}
	}
	return nil
}

func (m *memStores) SettingsGet(_ context.Context, userID uint64) (*model.Settings, error) {
	s, ok := m.settings[userID]
	if !ok {
		return nil, apperror.UserNotFound()
	}
	return s, nil
}

func (m *memStores) SettingsDelete(_ context.Context, userID uint64) error {
	delete(m.settings, userID)
	return nil
}

func (m *memStores) DropFolders(_ context.Context, userID uint64) error {
	m.foldersDropped = append(m.foldersDropped, userID)
	return nil
}

func (m *memStores) DropRecords(_ context.Context, userID uint64) error {
	m.recordsDropped = append(m.recordsDropped, userID)
	return nil
}

// Adapters satisfying the narrow store interfaces over memStores.
type memUserStore struct{ *memStores }
type memSessionStore struct{ *memStores }
type memSettingsStore struct{ *memStores }
type memFolderStore struct{ *memStores }
type memRecordStore struct{ *memStores }

func (s memSessionStore) GetByID(ctx context.Context, id string) (*model.AuthSession, error) {
	return s.SessionByID(ctx, id)
}

func (s memSettingsStore) Get(ctx context.Context, userID uint64) (*model.Settings, error) {
	return s.SettingsGet(ctx, userID)
}

func (s memSettingsStore) Delete(ctx context.Context, userID uint64) error {
	return s.SettingsDelete(ctx, userID)
}

func (s memFolderStore) DeleteAllForUser(ctx context.Context, userID uint64) error {
	return s.DropFolders(ctx, userID)
}

func (s memRecordStore) DeleteAllForUser(ctx context.Context, userID uint64) error {
	return s.DropRecords(ctx, userID)
}

// memRunner executes the step directly against the in-memory stores; the
// transactional guarantees are out of scope here.
type memRunner struct{ stores *memStores }

func (r memRunner) InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	return fn(ctx, Stores{
		Users:    memUserStore{r.stores},
		Sessions: memSessionStore{r.stores},
		Settings: memSettingsStore{r.stores},
		Folders:  memFolderStore{r.stores},
		Records:  memRecordStore{r.stores},
	})
}

const (
	testPassword    = "P@$sW0rd!"
	testFingerprint = "f1b7e156414663c4b81fbadadedcf01f"
	testIP          = "192.0.2.10"
)

type testEnv struct {
	service  *Service
	resolver *Resolver
	stores   *memStores
	cache    *cache.MemoryCache
	user     *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stores := newMemStores()
	user := &model.User{
		ID:           1,
		Email:        "anonymous@gmail.com",
		PasswordHash: security.HashPassword(testPassword),
		Name:         "Anonymous",
		Status:       model.StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	stores.users[user.ID] = user
	stores.settings[user.ID] = &model.Settings{
		UserID:                user.ID,
		AuthSessionExpiration: model.DefaultAuthSessionExpiration,
	}

	c := cache.NewMemoryCache()
	t.Cleanup(c.Stop)
	codec := security.NewTokenCodec("test-secret")
	return &testEnv{
		service:  NewService(memRunner{stores}, c, codec, 15, nil, zerolog.Nop()),
		resolver: NewResolver(codec, c),
		stores:   stores,
		cache:    c,
		user:     user,
	}
}

func (e *testEnv) login(t *testing.T) *TokenPair {
	t.Helper()
	pair, err := e.service.CreateToken(context.Background(), e.user.Email, testPassword,
		RequestInfo{IP: testIP, UserAgent: "go-test", Fingerprint: testFingerprint})
	require.NoError(t, err)
	return pair
}

func TestCreateToken(t *testing.T) {
	env := newTestEnv(t)
	pair := env.login(t)

	assert.Equal(t, 15, pair.AccessTokenExpiresIn)
	assert.Equal(t, model.DefaultAuthSessionExpiration, pair.RefreshTokenExpiresIn)

	data, err := env.resolver.Resolve(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, data.UserID)
	assert.Equal(t, security.DeriveEncryptionKey(env.user.PasswordHash), data.EncryptionKey)

	sess := env.stores.sessions[data.SessionID]
	require.NotNil(t, sess)
	assert.Equal(t, testIP, sess.UserIP)
	assert.Equal(t, security.HashPassword(testFingerprint), sess.Fingerprint)
	assert.Equal(t, model.DefaultAuthSessionExpiration, sess.ExpiresIn)
	require.NotNil(t, sess.UserAgent)
	assert.Equal(t, "go-test", *sess.UserAgent)
}

func TestCreateTokenBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	info := RequestInfo{IP: testIP, Fingerprint: testFingerprint}

	_, errUnknown := env.service.CreateToken(ctx, "nobody@gmail.com", testPassword, info)
	_, errWrongPw := env.service.CreateToken(ctx, env.user.Email, "wrong-password", info)

	// Unknown email and wrong password must be indistinguishable.
	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.True(t, apperror.IsCode(errUnknown, "BadAuthDataException"))
	assert.True(t, apperror.IsCode(errWrongPw, "BadAuthDataException"))
}

func TestCreateTokenDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	env.user.Status = model.StatusDeleted
	env.user.DeletedAt = &now

	_, err := env.service.CreateToken(context.Background(), env.user.Email, testPassword,
		RequestInfo{IP: testIP, Fingerprint: testFingerprint})
	assert.True(t, apperror.IsCode(err, "BadAuthDataException"))
}

func TestRefreshTokenRotates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.login(t)

	oldRefreshID, err := env.resolver.RefreshSubject(pair.RefreshToken)
	require.NoError(t, err)

	rotated, err := env.service.RefreshToken(ctx, oldRefreshID,
		RequestInfo{IP: "192.0.2.20", UserAgent: "go-test-2", Fingerprint: testFingerprint})
	require.NoError(t, err)

	// The previous access token is spent.
	_, err = env.resolver.Resolve(ctx, pair.AccessToken)
	assert.True(t, apperror.IsCode(err, "UnauthorizedException"))

	// The new one works.
	data, err := env.resolver.Resolve(ctx, rotated.AccessToken)
	require.NoError(t, err)

	// The refresh token rotated: the old id matches no session anymore.
	_, err = env.service.RefreshToken(ctx, oldRefreshID,
		RequestInfo{IP: testIP, Fingerprint: testFingerprint})
	assert.True(t, apperror.IsCode(err, "AuthSessionNotFoundException"))

	sess := env.stores.sessions[data.SessionID]
	assert.Equal(t, "192.0.2.20", sess.UserIP)
	require.NotNil(t, sess.UserAgent)
	assert.Equal(t, "go-test-2", *sess.UserAgent)
}

func TestRefreshTokenFingerprintMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.login(t)

	refreshID, err := env.resolver.RefreshSubject(pair.RefreshToken)
	require.NoError(t, err)

	_, err = env.service.RefreshToken(ctx, refreshID,
		RequestInfo{IP: testIP, Fingerprint: "0000000000000000000000000000dead"})
	assert.True(t, apperror.IsCode(err, "BadFingerprintException"))

	// The termination was committed: the session is dead, the access token
	// cleared and unresolvable. The refresh token stays on the row so a
	// retry still finds the dead session instead of a 404.
	var sess *model.AuthSession
	for _, s := range env.stores.sessions {
		sess = s
	}
	require.NotNil(t, sess)
	assert.True(t, sess.Terminated())
	assert.Nil(t, sess.AccessToken)
	require.NotNil(t, sess.RefreshToken)
	assert.Equal(t, refreshID, *sess.RefreshToken)
	assert.NotNil(t, sess.DeletedAt)

	_, err = env.resolver.Resolve(ctx, pair.AccessToken)
	assert.True(t, apperror.IsCode(err, "UnauthorizedException"))

	// Even the correct fingerprint cannot revive it: the stale refresh
	// token maps to the terminated session.
	_, err = env.service.RefreshToken(ctx, refreshID,
		RequestInfo{IP: testIP, Fingerprint: testFingerprint})
	assert.True(t, apperror.IsCode(err, apperror.CodeAuthSessionDeleted))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.login(t)

	data, err := env.resolver.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, env.service.DeleteSession(ctx, data.SessionID, RequestInfo{IP: testIP}))

	_, err = env.resolver.Resolve(ctx, pair.AccessToken)
	assert.True(t, apperror.IsCode(err, "UnauthorizedException"))

	// Logout is not idempotent: the second call hits a terminated session.
	err = env.service.DeleteSession(ctx, data.SessionID, RequestInfo{IP: testIP})
	assert.True(t, apperror.IsCode(err, apperror.CodeAuthSessionDeleted))
}

func TestDeleteUserSessionScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.login(t)

	data, err := env.resolver.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)

	err = env.service.DeleteUserSession(ctx, data.SessionID, 999, RequestInfo{})
	assert.True(t, apperror.IsCode(err, "AuthSessionNotFoundException"))

	require.NoError(t, env.service.DeleteUserSession(ctx, data.SessionID, env.user.ID, RequestInfo{}))
}

func TestDeleteUserSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.login(t)
	second := env.login(t)

	require.NoError(t, env.service.DeleteUserSessions(ctx, env.user.ID))

	for _, pair := range []*TokenPair{first, second} {
		_, err := env.resolver.Resolve(ctx, pair.AccessToken)
		assert.True(t, apperror.IsCode(err, "UnauthorizedException"))
	}
	for _, sess := range env.stores.sessions {
		assert.True(t, sess.Terminated())
	}
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.login(t)

	require.NoError(t, env.service.DeleteAccount(ctx, env.user.ID))

	assert.True(t, env.user.Deleted())
	assert.NotContains(t, env.stores.settings, env.user.ID)
	assert.Equal(t, []uint64{env.user.ID}, env.stores.foldersDropped)
	assert.Equal(t, []uint64{env.user.ID}, env.stores.recordsDropped)
	for _, sess := range env.stores.sessions {
		assert.True(t, sess.Terminated())
	}

	_, err := env.resolver.Resolve(ctx, pair.AccessToken)
	assert.True(t, apperror.IsCode(err, "UnauthorizedException"))

	// A deleted account cannot log back in.
	_, err = env.service.CreateToken(ctx, env.user.Email, testPassword,
		RequestInfo{IP: testIP, Fingerprint: testFingerprint})
	assert.True(t, apperror.IsCode(err, "BadAuthDataException"))
}

func TestResolverRejectsForgedToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Signed by someone else.
	forged, err := security.NewTokenCodec("other-secret").Encode(uuid.NewString(), 15)
	require.NoError(t, err)
	_, err = env.resolver.Resolve(ctx, forged)
	assert.True(t, apperror.IsCode(err, "UnauthorizedException"))

	// Valid signature but no cache entry.
	orphan, err := security.NewTokenCodec("test-secret").Encode(uuid.NewString(), 15)
	require.NoError(t, err)
	_, err = env.resolver.Resolve(ctx, orphan)
	assert.True(t, apperror.IsCode(err, "UnauthorizedException"))

	// Valid signature, non-UUID subject.
	weird, err := security.NewTokenCodec("test-secret").Encode("admin", 15)
	require.NoError(t, err)
	_, err = env.resolver.Resolve(ctx, weird)
	assert.True(t, apperror.IsCode(err, "UnauthorizedException"))
}
