// Package realtime fans row changes out to websocket subscribers.
//
// Changes arrive from Postgres through LISTEN/NOTIFY (see Listener), are
// published to a Hub, and are delivered to every subscriber registered for
// the same user and table.
package realtime

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/google/uuid"
)

const defaultBuffer = 64

type topic struct {
	userID string
	table  string
}

type subscriber struct {
	id string
	ch chan models.RawChange
}

// Hub is an in-process publish/subscribe registry keyed by (user, table).
type Hub struct {
	mu     sync.Mutex
	topics map[topic]map[string]*subscriber
	buffer int
	logger logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		topics: make(map[topic]map[string]*subscriber),
		buffer: defaultBuffer,
		logger: logger.With("module", "realtime_hub"),
	}
}

// Subscribe registers a subscriber and returns its id, the channel changes are
// delivered on, and a cancel func that unregisters it. The channel is closed
// on cancel, or when the subscriber falls too far behind.
func (h *Hub) Subscribe(userID, table string) (string, <-chan models.RawChange, func()) {
	sub := &subscriber{id: uuid.NewString(), ch: make(chan models.RawChange, h.buffer)}
	t := topic{userID: userID, table: table}

	h.mu.Lock()
	if h.topics[t] == nil {
		h.topics[t] = make(map[string]*subscriber)
	}
	h.topics[t][sub.id] = sub
	h.mu.Unlock()

	return sub.id, sub.ch, func() { h.remove(t, sub.id) }
}

func (h *Hub) remove(t topic, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(t, id)
}

func (h *Hub) removeLocked(t topic, id string) {
	subs := h.topics[t]
	sub, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(h.topics, t)
	}
	close(sub.ch)
}

// Publish delivers change to every subscriber of its user and table and
// returns how many received it. Publish never blocks: a subscriber whose
// buffer is full is dropped.
func (h *Hub) Publish(ctx context.Context, change models.RawChange) int {
	t := topic{userID: change.UserID, table: change.Table}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for id, sub := range h.topics[t] {
		select {
		case sub.ch <- change:
			delivered++
		default:
			h.logger.Warn(ctx, "dropping slow subscriber", "subscription", id, "table", t.table)
			h.removeLocked(t, id)
		}
	}
	return delivered
}

// Subscribers returns the number of live subscriptions for a user and table.
func (h *Hub) Subscribers(userID, table string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic{userID: userID, table: table}])
}
