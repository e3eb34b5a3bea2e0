package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainauth "github.com/reelhouse/reelhouse/internal/domain/auth"
	"github.com/reelhouse/reelhouse/internal/domain/user"
)

type memUsers struct {
	mu      sync.Mutex
	seq     int64
	byID    map[int64]*user.User
	byEmail map[string]*user.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*user.User{}, byEmail: map[string]*user.User{}}
}

func (m *memUsers) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return user.ErrConflict
	}
	m.seq++
	u.ID = m.seq
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Update(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.byID[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	cp := *u
	delete(m.byEmail, old.Email)
	m.byID[u.ID] = &cp
	m.byEmail[cp.Email] = &cp
	return nil
}

type memStore struct {
	mu   sync.Mutex
	data map[int64]string
}

func newMemStore() *memStore { return &memStore{data: map[int64]string{}} }

func (m *memStore) Put(ctx context.Context, userID int64, hashedSecret string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = hashedSecret
	return nil
}

func (m *memStore) Get(ctx context.Context, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.data[userID]
	if !ok {
		return "", domainauth.ErrNoSession
	}
	return h, nil
}

func (m *memStore) Delete(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
	return nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []domainauth.Event
}

func (r *recordedEvents) Publish(ctx context.Context, e domainauth.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordedEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	svc    *Service
	users  *memUsers
	store  *memStore
	events *recordedEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := newMemUsers()
	store := newMemStore()
	events := &recordedEvents{}
	svc := NewService(users, store, NewSecretHasher(), newTestIssuer(), events, Config{
		RefreshSessionTTL: time.Hour,
	})
	return &fixture{svc: svc, users: users, store: store, events: events}
}

func (f *fixture) register(t *testing.T, email, password string) int64 {
	t.Helper()
	ref, err := f.svc.RegisterLocalUser(context.Background(), email, password)
	require.NoError(t, err)
	return ref.ID
}

func TestLoginStoresHashedRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "hunter2hunter2")

	res, err := f.svc.Login(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, uid, res.ID)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)

	stored, err := f.svc.GetHashedRefreshToken(ctx, uid)
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	require.NotEqual(t, res.RefreshToken, stored, "store must hold a hash, not the raw token")

	ref, err := f.svc.ValidateRefreshToken(ctx, uid, res.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, uid, ref.ID)
}

func TestRotationInvalidatesOldToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "hunter2hunter2")

	res, err := f.svc.Login(ctx, uid)
	require.NoError(t, err)

	pair, err := f.svc.RefreshTokens(ctx, uid)
	require.NoError(t, err)
	require.NotEqual(t, res.RefreshToken, pair.RefreshToken)

	_, err = f.svc.ValidateRefreshToken(ctx, uid, res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	ref, err := f.svc.ValidateRefreshToken(ctx, uid, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, uid, ref.ID)
}

func TestSecondLoginSupersedesFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "hunter2hunter2")

	first, err := f.svc.Login(ctx, uid)
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, uid)
	require.NoError(t, err)

	_, err = f.svc.ValidateRefreshToken(ctx, uid, first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = f.svc.ValidateRefreshToken(ctx, uid, second.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "hunter2hunter2")

	res, err := f.svc.Login(ctx, uid)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, uid))

	_, err = f.svc.ValidateRefreshToken(ctx, uid, res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	// idempotent
	require.NoError(t, f.svc.Logout(ctx, uid))
}

func TestValidateRefreshTokenWithoutSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ValidateRefreshToken(context.Background(), 404, "whatever")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestGetHashedRefreshTokenAbsentIsEmpty(t *testing.T) {
	f := newFixture(t)

	h, err := f.svc.GetHashedRefreshToken(context.Background(), 404)
	require.NoError(t, err)
	require.Empty(t, h)
}

func TestValidateLocalUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "hunter2hunter2")

	ref, err := f.svc.ValidateLocalUser(ctx, "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, uid, ref.ID)

	// email lookup is case-insensitive
	ref, err = f.svc.ValidateLocalUser(ctx, "Ada@Example.COM", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, uid, ref.ID)

	_, err = f.svc.ValidateLocalUser(ctx, "ada@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.ValidateLocalUser(ctx, "nobody@example.com", "hunter2hunter2")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

// downUsers simulates an unreachable user store.
type downUsers struct{ err error }

func (d downUsers) Create(ctx context.Context, u *user.User) error { return d.err }
func (d downUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return nil, d.err
}
func (d downUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, d.err
}
func (d downUsers) Update(ctx context.Context, u *user.User) error { return d.err }

// A store outage is an internal failure, not a credentials failure; only a
// missing user may collapse into ErrInvalidCredentials.
func TestValidateLocalUserStoreFailureIsInternal(t *testing.T) {
	dbErr := errors.New("connection refused")
	svc := NewService(downUsers{err: dbErr}, newMemStore(), NewSecretHasher(), newTestIssuer(), nil, Config{
		RefreshSessionTTL: time.Hour,
	})

	_, err := svc.ValidateLocalUser(context.Background(), "ada@example.com", "hunter2hunter2")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
	require.ErrorIs(t, err, dbErr)
}

func TestValidateLocalUserRejectsOAuthOnlyAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref, err := f.svc.ValidateOAuthUser(ctx, domainauth.OAuthIdentity{
		Provider: "google", ProviderUserID: "sub-1", Email: "oauth@example.com",
	})
	require.NoError(t, err)

	_, err = f.svc.ValidateLocalUser(ctx, "oauth@example.com", "any-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// and no password means nothing to change either
	err = f.svc.UpdatePassword(ctx, ref.ID, PasswordChange{Current: "x", New: "newpassword", Confirm: "newpassword"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateOAuthUserIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := domainauth.OAuthIdentity{Provider: "google", ProviderUserID: "sub-1", Email: "Ada@Example.com"}

	first, err := f.svc.ValidateOAuthUser(ctx, id)
	require.NoError(t, err)
	second, err := f.svc.ValidateOAuthUser(ctx, id)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	u, err := f.users.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", u.Email)
	require.False(t, u.HasPassword())
}

func TestValidateOAuthUserRejectsEmptyEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ValidateOAuthUser(context.Background(), domainauth.OAuthIdentity{Provider: "google", ProviderUserID: "sub-1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterLocalUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterLocalUser(ctx, "ada@example.com", "short")
	require.ErrorIs(t, err, ErrWeakPassword)

	ref, err := f.svc.RegisterLocalUser(ctx, "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = f.svc.RegisterLocalUser(ctx, "ADA@example.com", "hunter2hunter2")
	require.ErrorIs(t, err, ErrEmailExists)

	u, err := f.users.GetByID(ctx, ref.ID)
	require.NoError(t, err)
	require.NotEqual(t, "hunter2hunter2", u.PasswordHash, "password must be stored hashed")
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "old-password-1")

	err := f.svc.UpdatePassword(ctx, uid, PasswordChange{Current: "old-password-1", New: "new-password-1", Confirm: "new-password-1"})
	require.NoError(t, err)

	_, err = f.svc.ValidateLocalUser(ctx, "ada@example.com", "old-password-1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.ValidateLocalUser(ctx, "ada@example.com", "new-password-1")
	require.NoError(t, err)

	u, err := f.users.GetByID(ctx, uid)
	require.NoError(t, err)
	require.NotEqual(t, "new-password-1", u.PasswordHash, "new password must be stored hashed")
}

func TestUpdatePasswordWrongCurrentLeavesHashIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "old-password-1")

	before, err := f.users.GetByID(ctx, uid)
	require.NoError(t, err)

	err = f.svc.UpdatePassword(ctx, uid, PasswordChange{Current: "wrong", New: "new-password-1", Confirm: "new-password-1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	after, err := f.users.GetByID(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestUpdatePasswordConfirmMismatchBeforeWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "old-password-1")

	before, err := f.users.GetByID(ctx, uid)
	require.NoError(t, err)

	err = f.svc.UpdatePassword(ctx, uid, PasswordChange{Current: "old-password-1", New: "new-password-1", Confirm: "something-else"})
	require.ErrorIs(t, err, ErrPasswordMismatch)

	after, err := f.users.GetByID(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, before.PasswordHash, after.PasswordHash, "mismatch must not touch the store")
}

func TestUpdatePasswordUnknownUser(t *testing.T) {
	f := newFixture(t)

	err := f.svc.UpdatePassword(context.Background(), 404, PasswordChange{Current: "a", New: "new-password-1", Confirm: "new-password-1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

// Every rejected password change shows up in the audit stream, whichever
// branch rejected it.
func TestUpdatePasswordFailuresEmitAuditEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "old-password-1")

	oauthRef, err := f.svc.ValidateOAuthUser(ctx, domainauth.OAuthIdentity{
		Provider: "google", ProviderUserID: "sub-1", Email: "oauth@example.com",
	})
	require.NoError(t, err)

	// unknown user
	err = f.svc.UpdatePassword(ctx, 404, PasswordChange{Current: "x", New: "new-password-1", Confirm: "new-password-1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	// OAuth-only account
	err = f.svc.UpdatePassword(ctx, oauthRef.ID, PasswordChange{Current: "x", New: "new-password-1", Confirm: "new-password-1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	// wrong current password
	err = f.svc.UpdatePassword(ctx, uid, PasswordChange{Current: "wrong", New: "new-password-1", Confirm: "new-password-1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	// confirmation mismatch
	err = f.svc.UpdatePassword(ctx, uid, PasswordChange{Current: "old-password-1", New: "new-password-1", Confirm: "other"})
	require.ErrorIs(t, err, ErrPasswordMismatch)

	var failures int
	for _, ev := range f.events.events {
		if ev.Kind == domainauth.EventPasswordChange {
			require.False(t, ev.OK)
			failures++
		}
	}
	require.Equal(t, 4, failures)
}

func TestAuthEventsEmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "hunter2hunter2")

	_, err := f.svc.Login(ctx, uid)
	require.NoError(t, err)
	_, err = f.svc.RefreshTokens(ctx, uid)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, uid))

	require.Equal(t, []string{
		domainauth.EventLogin,
		domainauth.EventRefresh,
		domainauth.EventLogout,
	}, f.events.kinds())
}

// The full session lifecycle from the transport's point of view.
func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "ada@example.com", "hunter2hunter2")

	res, err := f.svc.Login(ctx, uid)
	require.NoError(t, err)

	parsed, err := f.svc.ParseRefresh(res.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, uid, parsed)

	ref, err := f.svc.ValidateRefreshToken(ctx, parsed, res.RefreshToken)
	require.NoError(t, err)

	pair, err := f.svc.RefreshTokens(ctx, ref.ID)
	require.NoError(t, err)

	_, err = f.svc.ValidateRefreshToken(ctx, uid, res.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	uid2, err := f.svc.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, uid, uid2)
}
