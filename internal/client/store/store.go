// Package store holds the client-side cache of one entity collection.
//
// A Store is built explicitly with New and has a lifecycle: Open attaches it
// to the session provider and, once a session exists, fetches the rows and
// opens the realtime channel; Close detaches everything. Results of calls
// that complete after a sign-out or Close are dropped by a generation check,
// so a stale response can never repopulate the cache.
//
// Realtime events, insert responses and update responses all go through the
// same merge-by-id routines, so a row can never be cached twice.
package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrijs2005/taskmark/internal/client/selectors"
	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrClosed           = errors.New("store closed")
	ErrNeedsRealtime    = errors.New("insert from realtime requires a realtime subscriber")
)

// Source is the backend collection a store reads from and writes to.
type Source[E any, I any, P any] interface {
	Select(ctx context.Context, q models.Query) ([]E, error)
	Insert(ctx context.Context, in I) (E, error)
	Update(ctx context.Context, id string, patch P) (E, error)
	Delete(ctx context.Context, id string) error
}

// SessionSource is the session provider a store follows.
type SessionSource interface {
	CurrentSession() (*models.Session, bool)
	OnSessionChange(cb func(models.AuthEvent, *models.Session)) func()
}

type State[E any] struct {
	Items      []E
	Loading    bool
	Err        error
	Filter     models.Filter
	Sort       models.Sort
	Subscribed bool
}

type Store[E models.Entity[E], I any, P any] struct {
	source   Source[E, I, P]
	sessions SessionSource
	logger   logging.Logger
	opts     options[E]

	mu           sync.Mutex
	state        State[E]
	gen          uint64
	opened       bool
	closed       bool
	baseCtx      context.Context
	sub          Subscription[E]
	unsubSession func()
	listeners    map[int]func(State[E])
	nextListener int
}

func New[E models.Entity[E], I, P any](source Source[E, I, P], sessions SessionSource, logger logging.Logger, opts ...Option[E]) *Store[E, I, P] {
	o := options[E]{sort: models.DefaultSort}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[E, I, P]{
		source:    source,
		sessions:  sessions,
		logger:    logger.With("module", "store"),
		opts:      o,
		state:     State[E]{Sort: o.sort},
		baseCtx:   context.Background(),
		listeners: make(map[int]func(State[E])),
	}
}

func (s *Store[E, I, P]) InsertPolicy() InsertPolicy { return s.opts.insertPolicy }
func (s *Store[E, I, P]) FilterMode() FilterMode     { return s.opts.filterMode }

// Open registers the session listener and, when a validated session exists,
// fetches and subscribes. Opening an open store is a no-op.
func (s *Store[E, I, P]) Open(ctx context.Context) error {
	if s.opts.insertPolicy == InsertFromRealtime && s.opts.subscribe == nil {
		return ErrNeedsRealtime
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.opened {
		s.mu.Unlock()
		return nil
	}
	s.opened = true
	s.baseCtx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	unsub := s.sessions.OnSessionChange(s.onSessionChange)
	s.mu.Lock()
	s.unsubSession = unsub
	s.mu.Unlock()

	if session, loading := s.sessions.CurrentSession(); session != nil && !loading {
		return s.start(ctx)
	}
	return nil
}

// Close unsubscribes from realtime and from the session provider. In-flight
// calls are not cancelled; their results are discarded. Close is idempotent.
func (s *Store[E, I, P]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	sub, unsub := s.sub, s.unsubSession
	s.sub, s.unsubSession = nil, nil
	s.state.Subscribed = false
	s.state.Loading = false
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (s *Store[E, I, P]) onSessionChange(event models.AuthEvent, session *models.Session) {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	switch {
	case session == nil || event == models.EventSignedOut:
		s.reset()
		if s.opts.snapshots != nil {
			if err := s.opts.snapshots.Clear(ctx); err != nil {
				s.logger.Warn(ctx, "snapshot clear failed", "error", err)
			}
		}
	case event == models.EventSignedIn, event == models.EventInitialSession, event == models.EventPasswordRecovery:
		s.reset()
		if err := s.start(ctx); err != nil {
			s.logger.Warn(ctx, "initial fetch failed", "error", err)
		}
	}
}

// reset drops everything tied to the previous session.
func (s *Store[E, I, P]) reset() {
	s.mu.Lock()
	s.gen++
	s.state.Items = nil
	s.state.Err = nil
	s.state.Loading = false
	s.state.Subscribed = false
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	s.notify()
}

func (s *Store[E, I, P]) start(ctx context.Context) error {
	gen := s.generation()
	s.restore(ctx, gen)
	err := s.Fetch(ctx)
	s.subscribe(ctx, gen)
	return err
}

// restore seeds an empty cache from the saved snapshot.
func (s *Store[E, I, P]) restore(ctx context.Context, gen uint64) {
	uid := s.userID()
	if s.opts.snapshots == nil || uid == "" {
		return
	}
	items, found, err := s.opts.snapshots.Load(ctx, uid)
	if err != nil {
		s.logger.Warn(ctx, "snapshot load failed", "error", err)
		return
	}
	if !found {
		return
	}

	s.mu.Lock()
	if gen != s.gen || len(s.state.Items) > 0 {
		s.mu.Unlock()
		return
	}
	if s.opts.filterMode == FilterServerSide {
		items = selectors.Filter(items, s.state.Filter)
	}
	s.state.Items = selectors.Sort(items, s.state.Sort)
	s.mu.Unlock()
	s.notify()
}

func (s *Store[E, I, P]) save(ctx context.Context, uid string, items []E) {
	if s.opts.snapshots == nil || uid == "" {
		return
	}
	if err := s.opts.snapshots.Save(ctx, uid, items); err != nil {
		s.logger.Warn(ctx, "snapshot save failed", "error", err)
	}
}

func (s *Store[E, I, P]) subscribe(ctx context.Context, gen uint64) {
	if s.opts.subscribe == nil {
		return
	}
	sub, err := s.opts.subscribe(ctx)
	if err != nil {
		s.logger.Warn(ctx, "realtime subscribe failed", "error", err)
		return
	}

	s.mu.Lock()
	if gen != s.gen || s.closed || s.sub != nil {
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	s.sub = sub
	s.state.Subscribed = true
	s.mu.Unlock()
	s.notify()

	sub.Listen(func(ch models.Change[E]) { s.apply(gen, ch) })
	go func() {
		<-sub.Closed()
		s.subscriptionLost(ctx, sub)
	}()
}

// subscriptionLost forgets sub if it is still the live subscription. A
// subscription closed by reset or Close has already been replaced.
func (s *Store[E, I, P]) subscriptionLost(ctx context.Context, sub Subscription[E]) {
	s.mu.Lock()
	if s.sub != sub {
		s.mu.Unlock()
		return
	}
	s.sub = nil
	s.state.Subscribed = false
	s.mu.Unlock()

	s.logger.Warn(ctx, "realtime subscription lost")
	s.notify()
}

// Resubscribe opens the realtime channel again if the store is open for a
// session and has no live subscription. Failures are logged, not stored.
func (s *Store[E, I, P]) Resubscribe(ctx context.Context) {
	if s.opts.subscribe == nil || !s.authenticated() {
		return
	}
	s.mu.Lock()
	if !s.opened || s.closed || s.sub != nil {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.mu.Unlock()

	s.subscribe(ctx, gen)
}

func (s *Store[E, I, P]) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Store[E, I, P]) authenticated() bool {
	session, _ := s.sessions.CurrentSession()
	return session != nil
}

func (s *Store[E, I, P]) userID() string {
	if session, _ := s.sessions.CurrentSession(); session != nil {
		return session.User.ID
	}
	return ""
}

// begin checks the store can issue a call and returns its generation.
func (s *Store[E, I, P]) begin() (uint64, error) {
	if !s.authenticated() {
		return 0, ErrNotAuthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.gen, nil
}

func (s *Store[E, I, P]) query() models.Query {
	q := models.Query{Sort: s.state.Sort}
	if s.opts.filterMode == FilterServerSide {
		q.Filter = s.state.Filter
	}
	return q
}

// Fetch replaces the cache with the current user's rows. A failure keeps the
// previous cache and records the error.
func (s *Store[E, I, P]) Fetch(ctx context.Context) error {
	gen, err := s.begin()
	if errors.Is(err, ErrNotAuthenticated) {
		s.mu.Lock()
		s.state.Items = nil
		s.mu.Unlock()
		s.notify()
	}
	if err != nil {
		return err
	}

	uid := s.userID()
	s.mu.Lock()
	q := s.query()
	s.state.Loading = true
	s.mu.Unlock()
	s.notify()

	items, err := s.source.Select(ctx, q)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug(ctx, "dropping stale fetch result")
		return nil
	}
	s.state.Loading = false
	if err != nil {
		s.state.Err = err
	} else {
		s.state.Items = selectors.Sort(items, s.state.Sort)
		s.state.Err = nil
	}
	s.mu.Unlock()
	s.notify()

	if err == nil && q.Filter.IsZero() {
		s.save(ctx, uid, items)
	}
	return err
}

func (s *Store[E, I, P]) fail(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state.Err = err
	s.mu.Unlock()
	s.notify()
}

// admits reports whether row belongs in the cache. In server filter mode the
// cache only holds rows matching the active filter.
func (s *Store[E, I, P]) admits(row E) bool {
	return s.opts.filterMode == FilterClientSide || row.Matches(s.state.Filter)
}

func (s *Store[E, I, P]) mergeRow(gen uint64, row E, insert bool) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	var changed bool
	switch {
	case !s.admits(row):
		s.state.Items, changed = mergeDelete(s.state.Items, row.GetID())
	case insert:
		s.state.Items, changed = mergeInsert(s.state.Items, row, s.state.Sort)
	default:
		s.state.Items, changed = mergeUpdate(s.state.Items, row, s.state.Sort)
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store[E, I, P]) removeRow(gen uint64, id string) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	var changed bool
	s.state.Items, changed = mergeDelete(s.state.Items, id)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Create inserts a row. Under InsertFromResponse the returned row is merged
// at once; under InsertFromRealtime the INSERT event adds it.
func (s *Store[E, I, P]) Create(ctx context.Context, in I) (E, error) {
	var zero E
	gen, err := s.begin()
	if err != nil {
		return zero, err
	}

	row, err := s.source.Insert(ctx, in)
	if err != nil {
		s.fail(gen, err)
		return zero, err
	}
	if s.opts.insertPolicy == InsertFromResponse {
		s.mergeRow(gen, row, true)
	}
	return row, nil
}

// Update applies a partial update and replaces the cached row with the
// result. Rows that are not cached stay uncached.
func (s *Store[E, I, P]) Update(ctx context.Context, id string, patch P) (E, error) {
	var zero E
	gen, err := s.begin()
	if err != nil {
		return zero, err
	}

	row, err := s.source.Update(ctx, id, patch)
	if err != nil {
		s.fail(gen, err)
		return zero, err
	}
	s.mergeRow(gen, row, false)
	return row, nil
}

func (s *Store[E, I, P]) Delete(ctx context.Context, id string) error {
	gen, err := s.begin()
	if err != nil {
		return err
	}

	if err := s.source.Delete(ctx, id); err != nil {
		s.fail(gen, err)
		return err
	}
	s.removeRow(gen, id)
	return nil
}

// SetFilter changes the active filter. In server filter mode it re-fetches.
func (s *Store[E, I, P]) SetFilter(ctx context.Context, f models.Filter) error {
	s.mu.Lock()
	s.state.Filter = f
	s.mu.Unlock()
	s.notify()

	if s.opts.filterMode == FilterServerSide {
		return s.Fetch(ctx)
	}
	return nil
}

// SetSorting changes the sort. The cache is re-ordered locally in client
// filter mode and re-fetched in server filter mode.
func (s *Store[E, I, P]) SetSorting(ctx context.Context, by models.SortField, order models.SortOrder) error {
	s.mu.Lock()
	s.state.Sort = models.Sort{By: by, Order: order}
	if s.opts.filterMode == FilterClientSide {
		s.state.Items = selectors.Sort(s.state.Items, s.state.Sort)
	}
	s.mu.Unlock()
	s.notify()

	if s.opts.filterMode == FilterServerSide {
		return s.Fetch(ctx)
	}
	return nil
}

func (s *Store[E, I, P]) ClearError() {
	s.mu.Lock()
	s.state.Err = nil
	s.mu.Unlock()
	s.notify()
}

// Retry clears the error, fetches again and reopens a lost realtime
// subscription.
func (s *Store[E, I, P]) Retry(ctx context.Context) error {
	s.ClearError()
	err := s.Fetch(ctx)
	s.Resubscribe(ctx)
	return err
}

// Apply reconciles one realtime change with the cache: INSERT adds an absent
// row, UPDATE replaces a cached row, DELETE removes it. Each is idempotent.
func (s *Store[E, I, P]) Apply(ch models.Change[E]) {
	s.apply(s.generation(), ch)
}

func (s *Store[E, I, P]) apply(gen uint64, ch models.Change[E]) {
	switch ch.Type {
	case models.ChangeInsert:
		if ch.New != nil {
			s.mergeRow(gen, *ch.New, true)
		}
	case models.ChangeUpdate:
		if ch.New != nil {
			s.mergeRow(gen, *ch.New, false)
		}
	case models.ChangeDelete:
		switch {
		case ch.Old != nil:
			s.removeRow(gen, (*ch.Old).GetID())
		case ch.New != nil:
			s.removeRow(gen, (*ch.New).GetID())
		}
	}
}

// Snapshot returns a copy of the state.
func (s *Store[E, I, P]) Snapshot() State[E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store[E, I, P]) snapshot() State[E] {
	st := s.state
	st.Items = slices.Clone(s.state.Items)
	return st
}

// Visible is what a list view shows: the cache filtered and sorted.
func (s *Store[E, I, P]) Visible() []E {
	st := s.Snapshot()
	if s.opts.filterMode == FilterServerSide {
		return st.Items
	}
	return selectors.Visible(st.Items, st.Filter, st.Sort)
}

// OnChange registers fn to be called with a snapshot after every state
// change. The returned func unregisters it.
func (s *Store[E, I, P]) OnChange(fn func(State[E])) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store[E, I, P]) notify() {
	s.mu.Lock()
	if len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	st := s.snapshot()
	fns := make([]func(State[E]), 0, len(s.listeners))
	for _, id := range slices.Sorted(maps.Keys(s.listeners)) {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
