package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/client/backend"
	"github.com/dmitrijs2005/taskmark/internal/client/config"
	"github.com/dmitrijs2005/taskmark/internal/client/localdb"
	"github.com/dmitrijs2005/taskmark/internal/client/realtime"
	"github.com/dmitrijs2005/taskmark/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/taskmark/internal/client/repositories/snapshots"
	"github.com/dmitrijs2005/taskmark/internal/client/session"
	"github.com/dmitrijs2005/taskmark/internal/client/store"
	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/dmitrijs2005/taskmark/internal/netx"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// authService is the part of session.Manager the commands use.
type authService interface {
	CurrentSession() (*models.Session, bool)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password, displayName string) (*models.Session, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	VerifyRecovery(ctx context.Context, token string) (*models.Session, error)
	UpdateProfile(ctx context.Context, displayName string) (*models.User, error)
	UpdatePassword(ctx context.Context, password string) (*models.User, error)
}

// collection is the part of store.Store the commands use.
type collection[E any, I any, P any] interface {
	Create(ctx context.Context, in I) (E, error)
	Update(ctx context.Context, id string, patch P) (E, error)
	Delete(ctx context.Context, id string) error
	Retry(ctx context.Context) error
	SetFilter(ctx context.Context, f models.Filter) error
	SetSorting(ctx context.Context, by models.SortField, order models.SortOrder) error
	Resubscribe(ctx context.Context)
	Snapshot() store.State[E]
	Visible() []E
}

type lifecycle interface {
	Open(ctx context.Context) error
	Close()
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	auth      authService
	tasks     collection[models.Task, models.TaskInput, models.TaskPatch]
	bookmarks collection[models.Bookmark, models.BookmarkInput, models.BookmarkPatch]
	pinger    pinger
	reader    *bufio.Reader
	out       io.Writer
	now       func() time.Time

	mu   sync.Mutex
	mode Mode

	// set by NewApp only; nil in tests
	manager *session.Manager
	stores  []lifecycle
	client  *backend.GRPCClient
	db      *sql.DB
}

// subscriber adapts a collection's realtime channel to the store.
func subscriber[E, I, P any](c *backend.Collection[E, I, P]) store.Subscriber[E] {
	return func(ctx context.Context) (store.Subscription[E], error) {
		ch, err := c.Subscribe(ctx)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
}

var _ store.Subscription[models.Task] = (*realtime.Channel[models.Task])(nil)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, false, os.Stderr)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	policy, _ := store.ParseInsertPolicy(c.InsertPolicy)
	mode, _ := store.ParseFilterMode(c.FilterMode)

	rt, err := netx.WebsocketBase(c.RealtimeURL)
	if err != nil {
		return nil, err
	}

	db, err := localdb.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	client, err := backend.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	manager := session.NewManager(client, metadata.NewSQLiteRepository(db), logger)

	taskColl := backend.NewTasks(client, rt, logger)
	tasks := store.New[models.Task, models.TaskInput, models.TaskPatch](taskColl, manager, logger,
		store.WithInsertPolicy[models.Task](policy),
		store.WithFilterMode[models.Task](mode),
		store.WithRealtime(subscriber(taskColl)),
		store.WithSnapshots[models.Task](snapshots.NewSQLiteRepository[models.Task](db, models.TableTasks)),
	)

	bookmarkColl := backend.NewBookmarks(client, rt, logger)
	bookmarks := store.New[models.Bookmark, models.BookmarkInput, models.BookmarkPatch](bookmarkColl, manager, logger,
		store.WithInsertPolicy[models.Bookmark](policy),
		store.WithFilterMode[models.Bookmark](mode),
		store.WithRealtime(subscriber(bookmarkColl)),
		store.WithSnapshots[models.Bookmark](snapshots.NewSQLiteRepository[models.Bookmark](db, models.TableBookmarks)),
	)

	return &App{
		config:    c,
		logger:    logger,
		auth:      manager,
		tasks:     tasks,
		bookmarks: bookmarks,
		pinger:    client,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		now:       time.Now,
		manager:   manager,
		stores:    []lifecycle{tasks, bookmarks},
		client:    client,
		db:        db,
	}, nil
}

// Run restores the stored session, opens the stores and blocks in the REPL
// until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	fmt.Fprintln(a.out, "Welcome to taskmark (type 'help' for commands)")

	if err := a.manager.Initialize(ctx); err != nil {
		a.logger.Warn(ctx, "session check failed", "error", err)
	}
	if a.manager.Offline() {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}

	for _, s := range a.stores {
		if err := s.Open(ctx); err != nil {
			a.logger.Warn(ctx, "store open failed", "error", err)
		}
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	// A blocked stdin read cannot be interrupted, so the REPL runs on its
	// own goroutine and a cancelled ctx returns without waiting for it.
	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(ctx, a, a.getStatus, a.reader, a.out)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		fmt.Fprintln(a.out, "\nBye!")
	}
}

func (a *App) close() {
	for _, s := range a.stores {
		s.Close()
	}
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	s, _ := a.auth.CurrentSession()
	return s != nil
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// setMode reports whether the mode changed.
func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == mode {
		return false
	}
	a.mode = mode
	a.logger.Info(context.Background(), "switched mode", "mode", string(mode))
	return true
}

func (a *App) getStatus() string {
	s := ""
	if session, _ := a.auth.CurrentSession(); session != nil {
		s = session.User.Email + " "
	}
	s += string(a.getMode())
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// checkOnline pings the backend once. Coming back online re-fetches both
// stores so changes missed while offline show up. While online, a store
// whose realtime subscription dropped is subscribed again.
func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.pinger.Ping(pctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	changed := a.setMode(ModeOnline)
	if !a.isLoggedIn() {
		return
	}
	if changed {
		if err := a.tasks.Retry(ctx); err != nil {
			a.logger.Warn(ctx, "task refresh failed", "error", err)
		}
		if err := a.bookmarks.Retry(ctx); err != nil {
			a.logger.Warn(ctx, "bookmark refresh failed", "error", err)
		}
		return
	}
	if !a.tasks.Snapshot().Subscribed {
		a.tasks.Resubscribe(ctx)
	}
	if !a.bookmarks.Snapshot().Subscribed {
		a.bookmarks.Resubscribe(ctx)
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
