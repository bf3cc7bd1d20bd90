package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/taskmark/internal/client/backend"
	"github.com/dmitrijs2005/taskmark/internal/client/localdb"
	"github.com/dmitrijs2005/taskmark/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	session    *models.Session
	refreshed  func(models.TokenPair)
	getUserErr error
	signInErr  error
	signOutErr error
	user       models.User
}

func (f *fakeBackend) newSession(email string) *models.Session {
	return &models.Session{
		TokenPair: models.TokenPair{AccessToken: "a1", RefreshToken: "r1"},
		User:      models.User{ID: "u1", Email: email},
	}
}

func (f *fakeBackend) SignUp(_ context.Context, email, _, displayName string) (*models.Session, error) {
	s := f.newSession(email)
	s.User.DisplayName = displayName
	f.session = s
	return s, nil
}

func (f *fakeBackend) SignIn(_ context.Context, email, _ string) (*models.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.session = f.newSession(email)
	return f.session, nil
}

func (f *fakeBackend) SignOut(context.Context) error {
	f.session = nil
	return f.signOutErr
}

func (f *fakeBackend) GetUser(context.Context) (*models.User, error) {
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u := f.user
	return &u, nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, displayName, _ *string) (*models.User, error) {
	u := models.User{ID: "u1", Email: "a@b.c"}
	if displayName != nil {
		u.DisplayName = *displayName
	}
	return &u, nil
}

func (f *fakeBackend) ResetPasswordForEmail(context.Context, string) error { return nil }

func (f *fakeBackend) VerifyRecovery(_ context.Context, token string) (*models.Session, error) {
	if token != "ok" {
		return nil, backend.ErrRejected
	}
	f.session = f.newSession("a@b.c")
	return f.session, nil
}

func (f *fakeBackend) SetSession(s *models.Session)                { f.session = s }
func (f *fakeBackend) OnTokensRefreshed(fn func(models.TokenPair)) { f.refreshed = fn }

type event struct {
	kind    models.AuthEvent
	session *models.Session
}

func setup(t *testing.T, b *fakeBackend) (*Manager, *metadata.SQLiteRepository, *[]event) {
	t.Helper()
	db, err := localdb.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := metadata.NewSQLiteRepository(db)
	m := NewManager(b, repo, logging.Nop())

	var events []event
	m.OnSessionChange(func(e models.AuthEvent, s *models.Session) {
		events = append(events, event{e, s})
	})
	return m, repo, &events
}

func stored(t *testing.T, repo *metadata.SQLiteRepository) *models.Session {
	t.Helper()
	var s models.Session
	ok, err := repo.LoadJSON(context.Background(), storageKey, &s)
	require.NoError(t, err)
	if !ok {
		return nil
	}
	return &s
}

func TestManager_LoadingUntilInitialized(t *testing.T) {
	m, _, events := setup(t, &fakeBackend{})

	s, loading := m.CurrentSession()
	assert.Nil(t, s)
	assert.True(t, loading)

	require.NoError(t, m.Initialize(context.Background()))

	s, loading = m.CurrentSession()
	assert.Nil(t, s)
	assert.False(t, loading)
	require.Len(t, *events, 1)
	assert.Equal(t, models.EventInitialSession, (*events)[0].kind)
	assert.Nil(t, (*events)[0].session)
}

func TestManager_InitializeValidatesPersistedSession(t *testing.T) {
	b := &fakeBackend{user: models.User{ID: "u1", Email: "a@b.c", DisplayName: "Fresh"}}
	m, repo, events := setup(t, b)
	ctx := context.Background()
	require.NoError(t, repo.SaveJSON(ctx, storageKey, b.newSession("a@b.c")))

	require.NoError(t, m.Initialize(ctx))

	s, loading := m.CurrentSession()
	require.NotNil(t, s)
	assert.False(t, loading)
	assert.False(t, m.Offline())
	assert.Equal(t, "Fresh", s.User.DisplayName)
	assert.Equal(t, "a1", b.session.AccessToken, "tokens handed to the backend client")
	assert.Equal(t, "Fresh", stored(t, repo).User.DisplayName)
	require.Len(t, *events, 1)
	assert.Equal(t, models.EventInitialSession, (*events)[0].kind)
}

func TestManager_InitializeDropsRejectedSession(t *testing.T) {
	b := &fakeBackend{getUserErr: backend.ErrUnauthorized}
	m, repo, events := setup(t, b)
	ctx := context.Background()
	require.NoError(t, repo.SaveJSON(ctx, storageKey, b.newSession("a@b.c")))

	require.NoError(t, m.Initialize(ctx))

	s, _ := m.CurrentSession()
	assert.Nil(t, s)
	assert.Nil(t, b.session)
	assert.Nil(t, stored(t, repo))
	require.Len(t, *events, 1)
	assert.Equal(t, models.EventSignedOut, (*events)[0].kind)
}

func TestManager_InitializeOffline(t *testing.T) {
	b := &fakeBackend{getUserErr: backend.ErrUnavailable}
	m, repo, events := setup(t, b)
	ctx := context.Background()
	require.NoError(t, repo.SaveJSON(ctx, storageKey, b.newSession("a@b.c")))

	require.NoError(t, m.Initialize(ctx))

	s, _ := m.CurrentSession()
	require.NotNil(t, s)
	assert.True(t, m.Offline())
	assert.NotNil(t, stored(t, repo))
	assert.Equal(t, models.EventInitialSession, (*events)[0].kind)
}

func TestManager_InitializeUnexpectedError(t *testing.T) {
	boom := errors.New("boom")
	b := &fakeBackend{getUserErr: boom}
	m, repo, _ := setup(t, b)
	ctx := context.Background()
	require.NoError(t, repo.SaveJSON(ctx, storageKey, b.newSession("a@b.c")))

	err := m.Initialize(ctx)
	assert.ErrorIs(t, err, boom)
	_, loading := m.CurrentSession()
	assert.False(t, loading)
}

func TestManager_SignInAndOut(t *testing.T) {
	b := &fakeBackend{}
	m, repo, events := setup(t, b)
	ctx := context.Background()

	s, err := m.SignIn(ctx, "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", s.User.Email)
	assert.Equal(t, "a1", stored(t, repo).AccessToken)

	b.signOutErr = backend.ErrUnavailable
	require.NoError(t, m.SignOut(ctx))

	cur, _ := m.CurrentSession()
	assert.Nil(t, cur)
	assert.Nil(t, stored(t, repo))

	require.Len(t, *events, 2)
	assert.Equal(t, models.EventSignedIn, (*events)[0].kind)
	assert.Equal(t, models.EventSignedOut, (*events)[1].kind)
	assert.Nil(t, (*events)[1].session)
}

func TestManager_SignInFailureTouchesNothing(t *testing.T) {
	m, repo, events := setup(t, &fakeBackend{signInErr: backend.ErrInvalidCredentials})

	_, err := m.SignIn(context.Background(), "a@b.c", "wrong")
	assert.ErrorIs(t, err, backend.ErrInvalidCredentials)
	assert.Empty(t, *events)
	assert.Nil(t, stored(t, repo))
}

func TestManager_SignUpCarriesDisplayName(t *testing.T) {
	m, repo, events := setup(t, &fakeBackend{})

	s, err := m.SignUp(context.Background(), "a@b.c", "secret", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "Ann", s.User.DisplayName)
	assert.Equal(t, "Ann", stored(t, repo).User.DisplayName)
	assert.Equal(t, models.EventSignedIn, (*events)[0].kind)
}

func TestManager_UpdateProfile(t *testing.T) {
	m, repo, events := setup(t, &fakeBackend{})
	ctx := context.Background()

	_, err := m.UpdateProfile(ctx, "Nobody")
	assert.ErrorIs(t, err, backend.ErrUnauthorized)

	_, err = m.SignIn(ctx, "a@b.c", "secret")
	require.NoError(t, err)

	u, err := m.UpdateProfile(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", u.DisplayName)

	s, _ := m.CurrentSession()
	assert.Equal(t, "Bob", s.User.DisplayName)
	assert.Equal(t, "Bob", stored(t, repo).User.DisplayName)
	assert.Equal(t, models.EventUserUpdated, (*events)[len(*events)-1].kind)

	_, err = m.UpdatePassword(ctx, "newsecret")
	require.NoError(t, err)
}

func TestManager_TokenRefreshPersists(t *testing.T) {
	b := &fakeBackend{}
	m, repo, events := setup(t, b)
	ctx := context.Background()

	b.refreshed(models.TokenPair{AccessToken: "ignored"})
	assert.Empty(t, *events, "no session, nothing to refresh")

	_, err := m.SignIn(ctx, "a@b.c", "secret")
	require.NoError(t, err)

	b.refreshed(models.TokenPair{AccessToken: "a2", RefreshToken: "r2"})

	s, _ := m.CurrentSession()
	assert.Equal(t, "a2", s.AccessToken)
	assert.Equal(t, "r2", stored(t, repo).RefreshToken)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, models.EventTokenRefreshed, (*events)[len(*events)-1].kind)
}

func TestManager_VerifyRecovery(t *testing.T) {
	m, _, events := setup(t, &fakeBackend{})
	ctx := context.Background()

	_, err := m.VerifyRecovery(ctx, "bad")
	assert.ErrorIs(t, err, backend.ErrRejected)

	s, err := m.VerifyRecovery(ctx, "ok")
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, models.EventPasswordRecovery, (*events)[0].kind)
	require.NoError(t, m.ResetPassword(ctx, "a@b.c"))
}

func TestManager_UnsubscribeAndOrder(t *testing.T) {
	m, _, _ := setup(t, &fakeBackend{})

	var order []int
	unsub1 := m.OnSessionChange(func(models.AuthEvent, *models.Session) { order = append(order, 1) })
	m.OnSessionChange(func(models.AuthEvent, *models.Session) { order = append(order, 2) })

	require.NoError(t, m.SignOut(context.Background()))
	assert.Equal(t, []int{1, 2}, order)

	unsub1()
	unsub1()
	order = nil
	require.NoError(t, m.SignOut(context.Background()))
	assert.Equal(t, []int{2}, order)
}

func TestManager_SessionIsACopy(t *testing.T) {
	m, _, _ := setup(t, &fakeBackend{})
	_, err := m.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	s, _ := m.CurrentSession()
	s.User.Email = "mutated"

	again, _ := m.CurrentSession()
	assert.Equal(t, "a@b.c", again.User.Email)
}
