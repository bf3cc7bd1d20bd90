package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

// InsertPolicy decides how a created row reaches the cache.
type InsertPolicy int

const (
	// InsertFromResponse merges the row returned by the insert call.
	InsertFromResponse InsertPolicy = iota
	// InsertFromRealtime leaves the cache alone and waits for the realtime
	// INSERT event.
	InsertFromRealtime
)

func (p InsertPolicy) String() string {
	if p == InsertFromRealtime {
		return "realtime"
	}
	return "response"
}

// FilterMode decides where filtering and sorting happen.
type FilterMode int

const (
	// FilterClientSide keeps every row in the cache; selectors project it.
	FilterClientSide FilterMode = iota
	// FilterServerSide sends the filter with every fetch and re-fetches on
	// every filter or sort change.
	FilterServerSide
)

func (m FilterMode) String() string {
	if m == FilterServerSide {
		return "server"
	}
	return "client"
}

// Subscription is an open realtime channel. Closed is closed once the
// channel stops delivering, whether through Unsubscribe or a lost connection.
type Subscription[E any] interface {
	Listen(fn func(models.Change[E]))
	Closed() <-chan struct{}
	Unsubscribe()
}

// Subscriber opens a realtime subscription for the current session.
type Subscriber[E any] func(ctx context.Context) (Subscription[E], error)

// Snapshots persists the last full fetch so it can be shown before the next
// fetch completes, or instead of it when the backend is unreachable.
type Snapshots[E any] interface {
	Load(ctx context.Context, userID string) ([]E, bool, error)
	Save(ctx context.Context, userID string, items []E) error
	Clear(ctx context.Context) error
}

type options[E any] struct {
	insertPolicy InsertPolicy
	filterMode   FilterMode
	sort         models.Sort
	subscribe    Subscriber[E]
	snapshots    Snapshots[E]
}

type Option[E any] func(*options[E])

func WithInsertPolicy[E any](p InsertPolicy) Option[E] {
	return func(o *options[E]) { o.insertPolicy = p }
}

func WithFilterMode[E any](m FilterMode) Option[E] {
	return func(o *options[E]) { o.filterMode = m }
}

// WithSort sets the initial sort. The default is models.DefaultSort.
func WithSort[E any](s models.Sort) Option[E] {
	return func(o *options[E]) { o.sort = s }
}

// WithRealtime enables the realtime channel.
func WithRealtime[E any](s Subscriber[E]) Option[E] {
	return func(o *options[E]) { o.subscribe = s }
}

// WithSnapshots seeds the cache from the last saved fetch and saves every
// unfiltered fetch. The snapshot is cleared on sign-out.
func WithSnapshots[E any](s Snapshots[E]) Option[E] {
	return func(o *options[E]) { o.snapshots = s }
}

// ParseInsertPolicy is the inverse of InsertPolicy.String.
func ParseInsertPolicy(s string) (InsertPolicy, error) {
	switch s {
	case "", "response":
		return InsertFromResponse, nil
	case "realtime":
		return InsertFromRealtime, nil
	}
	return 0, fmt.Errorf("unknown insert policy %q", s)
}

// ParseFilterMode is the inverse of FilterMode.String.
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "", "client":
		return FilterClientSide, nil
	case "server":
		return FilterServerSide, nil
	}
	return 0, fmt.Errorf("unknown filter mode %q", s)
}
