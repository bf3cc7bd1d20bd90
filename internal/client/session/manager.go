// Package session owns the signed-in user's session on the client: it
// persists it in the local metadata store, validates it on start, and
// broadcasts auth events to subscribers such as the stores.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrijs2005/taskmark/internal/client/backend"
	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
)

// storageKey is the metadata key the session JSON is stored under.
const storageKey = "session"

// Listener receives auth events. It is called synchronously, in
// registration order, outside the manager's lock.
type Listener = func(event models.AuthEvent, s *models.Session)

// Provider is the read side of the session that stores depend on.
type Provider interface {
	CurrentSession() (*models.Session, bool)
	OnSessionChange(cb Listener) (unsubscribe func())
}

// Backend is the part of the data-access client the manager drives.
type Backend interface {
	SignUp(ctx context.Context, email, password, displayName string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	GetUser(ctx context.Context) (*models.User, error)
	UpdateUser(ctx context.Context, displayName, password *string) (*models.User, error)
	ResetPasswordForEmail(ctx context.Context, email string) error
	VerifyRecovery(ctx context.Context, token string) (*models.Session, error)
	SetSession(s *models.Session)
	OnTokensRefreshed(fn func(models.TokenPair))
}

type Storage interface {
	LoadJSON(ctx context.Context, key string, v any) (bool, error)
	SaveJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

type Manager struct {
	backend Backend
	storage Storage
	logger  logging.Logger

	mu        sync.Mutex
	session   *models.Session
	loading   bool
	offline   bool
	listeners map[int]Listener
	nextID    int
}

var _ Provider = (*Manager)(nil)

// NewManager returns a manager that reports loading until Initialize has
// validated the persisted session.
func NewManager(b Backend, storage Storage, logger logging.Logger) *Manager {
	m := &Manager{
		backend:   b,
		storage:   storage,
		logger:    logger.With("module", "session"),
		loading:   true,
		listeners: make(map[int]Listener),
	}
	b.OnTokensRefreshed(m.tokensRefreshed)
	return m
}

// CurrentSession returns the session, or nil when signed out, and whether
// the persisted session is still being validated.
func (m *Manager) CurrentSession() (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copySession(), m.loading
}

// Offline reports whether the last validation could not reach the backend.
func (m *Manager) Offline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offline
}

func (m *Manager) copySession() *models.Session {
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

func (m *Manager) OnSessionChange(cb Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = cb
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) emit(event models.AuthEvent, s *models.Session) {
	m.mu.Lock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, id := range slices.Sorted(maps.Keys(m.listeners)) {
		listeners = append(listeners, m.listeners[id])
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(event, s)
	}
}

// Initialize loads the persisted session and validates it against the
// backend. An auth failure drops the session; an unreachable backend keeps
// it and marks the manager offline.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	var stored models.Session
	found, err := m.storage.LoadJSON(ctx, storageKey, &stored)
	if err != nil {
		m.logger.Warn(ctx, "discarding unreadable session", "error", err)
		found = false
	}

	if !found {
		m.finishInit(nil, false)
		m.emit(models.EventInitialSession, nil)
		return nil
	}

	m.backend.SetSession(&stored)
	user, err := m.backend.GetUser(ctx)
	switch {
	case err == nil:
		stored.User = *user
		m.persist(ctx, &stored)
		m.finishInit(&stored, false)
		m.emit(models.EventInitialSession, m.snapshot())
	case errors.Is(err, backend.ErrUnavailable):
		m.logger.Warn(ctx, "backend unreachable, keeping session offline", "user", stored.User.Email)
		m.finishInit(&stored, true)
		m.emit(models.EventInitialSession, m.snapshot())
	case errors.Is(err, backend.ErrUnauthorized):
		m.backend.SetSession(nil)
		m.forget(ctx)
		m.finishInit(nil, false)
		m.emit(models.EventSignedOut, nil)
	default:
		m.finishInit(&stored, false)
		m.emit(models.EventInitialSession, m.snapshot())
		return fmt.Errorf("validate session: %w", err)
	}
	return nil
}

func (m *Manager) finishInit(s *models.Session, offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	m.offline = offline
	m.loading = false
}

func (m *Manager) snapshot() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copySession()
}

func (m *Manager) persist(ctx context.Context, s *models.Session) {
	if err := m.storage.SaveJSON(ctx, storageKey, s); err != nil {
		m.logger.Error(ctx, "failed to persist session", "error", err)
	}
}

func (m *Manager) forget(ctx context.Context) {
	if err := m.storage.Delete(ctx, storageKey); err != nil {
		m.logger.Error(ctx, "failed to delete session", "error", err)
	}
}

func (m *Manager) establish(ctx context.Context, s *models.Session, event models.AuthEvent) {
	m.persist(ctx, s)
	m.mu.Lock()
	m.session = s
	m.offline = false
	m.loading = false
	m.mu.Unlock()
	m.emit(event, m.snapshot())
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	s, err := m.backend.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.establish(ctx, s, models.EventSignedIn)
	return m.snapshot(), nil
}

func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) (*models.Session, error) {
	s, err := m.backend.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	m.establish(ctx, s, models.EventSignedIn)
	return m.snapshot(), nil
}

// SignOut always clears the local session. A failure to revoke the refresh
// token on the backend is logged, not returned.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.backend.SignOut(ctx); err != nil {
		m.logger.Warn(ctx, "sign out on backend failed", "error", err)
	}
	m.forget(ctx)

	m.mu.Lock()
	m.session = nil
	m.offline = false
	m.mu.Unlock()

	m.emit(models.EventSignedOut, nil)
	return nil
}

func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	return m.backend.ResetPasswordForEmail(ctx, email)
}

// VerifyRecovery exchanges an emailed recovery token for a session.
func (m *Manager) VerifyRecovery(ctx context.Context, token string) (*models.Session, error) {
	s, err := m.backend.VerifyRecovery(ctx, token)
	if err != nil {
		return nil, err
	}
	m.establish(ctx, s, models.EventPasswordRecovery)
	return m.snapshot(), nil
}

func (m *Manager) UpdateProfile(ctx context.Context, displayName string) (*models.User, error) {
	return m.updateUser(ctx, &displayName, nil)
}

func (m *Manager) UpdatePassword(ctx context.Context, password string) (*models.User, error) {
	return m.updateUser(ctx, nil, &password)
}

func (m *Manager) updateUser(ctx context.Context, displayName, password *string) (*models.User, error) {
	if s, _ := m.CurrentSession(); s == nil {
		return nil, backend.ErrUnauthorized
	}
	user, err := m.backend.UpdateUser(ctx, displayName, password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return user, nil
	}
	m.session.User = *user
	s := m.copySession()
	m.mu.Unlock()

	m.persist(ctx, s)
	m.emit(models.EventUserUpdated, s)
	return user, nil
}

func (m *Manager) tokensRefreshed(pair models.TokenPair) {
	ctx := context.Background()

	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	m.session.TokenPair = pair
	s := m.copySession()
	m.mu.Unlock()

	m.persist(ctx, s)
	m.logger.Debug(ctx, "tokens refreshed")
	m.emit(models.EventTokenRefreshed, s)
}
