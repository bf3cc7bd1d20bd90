package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/dmitrijs2005/taskmark/internal/dbx"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/dmitrijs2005/taskmark/internal/server/config"
	smodels "github.com/dmitrijs2005/taskmark/internal/server/models"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/bookmarks"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/recoverytokens"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                     "k",
		AccessTokenValidityDuration:   time.Hour,
		RefreshTokenValidityDuration:  2 * time.Hour,
		RecoveryTokenValidityDuration: time.Hour,
	}
}

// fakeUsersRepo keeps users in memory, keyed by email.
type fakeUsersRepo struct {
	mu     sync.Mutex
	byMail map[string]*smodels.User
	err    error
}

func newFakeUsers() *fakeUsersRepo {
	return &fakeUsersRepo{byMail: map[string]*smodels.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *smodels.User) (*smodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byMail[u.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	cp := *u
	cp.ID = "u-" + u.Email
	cp.CreatedAt = time.Now()
	f.byMail[u.Email] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*smodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byMail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*smodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byMail {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Update(_ context.Context, id string, p smodels.UserPatch) (*smodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byMail {
		if u.ID == id {
			if p.DisplayName != nil {
				u.DisplayName = *p.DisplayName
			}
			if p.PasswordHash != nil {
				u.PasswordHash = *p.PasswordHash
			}
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]smodels.RefreshToken
	createErr error
	delErr    error
}

func newFakeRefresh() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]smodels.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = smodels.RefreshToken{UserID: userID, Token: token, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*smodels.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

type fakeRecoveryRepo struct {
	mu     sync.Mutex
	tokens map[string]smodels.RecoveryToken
}

func newFakeRecovery() *fakeRecoveryRepo {
	return &fakeRecoveryRepo{tokens: map[string]smodels.RecoveryToken{}}
}

func (f *fakeRecoveryRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = smodels.RecoveryToken{UserID: userID, Token: token, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (f *fakeRecoveryRepo) Consume(_ context.Context, token string) (*smodels.RecoveryToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.tokens, token)
	return &t, nil
}

// fakeTasksRepo records the owner of every call.
type fakeTasksRepo struct {
	owners []string
	rows   []models.Task
	err    error
}

func (f *fakeTasksRepo) Select(_ context.Context, userID string, _ models.Query) ([]models.Task, error) {
	f.owners = append(f.owners, userID)
	return f.rows, f.err
}

func (f *fakeTasksRepo) Insert(_ context.Context, userID string, in models.TaskInput) (*models.Task, error) {
	f.owners = append(f.owners, userID)
	if f.err != nil {
		return nil, f.err
	}
	in = in.WithDefaults()
	return &models.Task{ID: "11111111-1111-1111-1111-111111111111", UserID: userID, Title: in.Title, Priority: in.Priority, Status: in.Status}, nil
}

func (f *fakeTasksRepo) Update(_ context.Context, userID, id string, p models.TaskPatch) (*models.Task, error) {
	f.owners = append(f.owners, userID)
	if f.err != nil {
		return nil, f.err
	}
	t := &models.Task{ID: id, UserID: userID, Title: "x", Priority: models.PriorityLow, Status: models.StatusPending}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t, nil
}

func (f *fakeTasksRepo) Delete(_ context.Context, userID, _ string) error {
	f.owners = append(f.owners, userID)
	return f.err
}

type fakeBookmarksRepo struct {
	bookmarks.Repository
	rows []models.Bookmark
}

func (f *fakeBookmarksRepo) Select(context.Context, string, models.Query) ([]models.Bookmark, error) {
	return f.rows, nil
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	r  *fakeRefreshRepo
	rc *fakeRecoveryRepo
	t  *fakeTasksRepo
	b  *fakeBookmarksRepo
}

func newFakeManager() *fakeRepoManager {
	return &fakeRepoManager{
		u:  newFakeUsers(),
		r:  newFakeRefresh(),
		rc: newFakeRecovery(),
		t:  &fakeTasksRepo{},
		b:  &fakeBookmarksRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.Queryer) users.Repository         { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.Queryer) refreshtokens.Repository {
	return m.r
}
func (m *fakeRepoManager) RecoveryTokens(dbx.Queryer) recoverytokens.Repository {
	return m.rc
}
func (m *fakeRepoManager) Tasks(dbx.Queryer) tasks.Repository         { return m.t }
func (m *fakeRepoManager) Bookmarks(dbx.Queryer) bookmarks.Repository { return m.b }
