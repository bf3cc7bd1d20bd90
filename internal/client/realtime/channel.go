// Package realtime subscribes to a table's change feed over a websocket.
//
// A Channel yields typed change events in arrival order. Events can be
// consumed by ranging over Events, or by registering a handler with Listen.
// The subscription lives until Unsubscribe is called or the connection
// drops; Unsubscribe releases the server-side subscription.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/gorilla/websocket"
)

var (
	ErrUnauthorized = errors.New("realtime: unauthorized")
	ErrHandshake    = errors.New("realtime: subscription not confirmed")
)

const (
	handshakeTimeout = 10 * time.Second
	closeWait        = time.Second
)

// readTimeout bounds the silence between frames. The server pings every 30s,
// so a connection quiet for longer than this is considered dead.
var readTimeout = 75 * time.Second

type Channel[E any] struct {
	table  string
	conn   *websocket.Conn
	events chan models.Change[E]
	done   chan struct{}
	closed chan struct{}
	logger logging.Logger

	once sync.Once
}

// Endpoint builds the subscription URL of table under base, e.g.
// ws://localhost:8080 + tasks -> ws://localhost:8080/realtime/v1/tasks.
func Endpoint(base, table string) string {
	return strings.TrimRight(base, "/") + "/realtime/v1/" + url.PathEscape(table)
}

// Subscribe dials the change feed of table and waits for the server to
// confirm the subscription.
func Subscribe[E any](ctx context.Context, dialer *websocket.Dialer, base, table, token string, logger logging.Logger) (*Channel[E], error) {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	header.Set("Authorization", common.BearerPrefix+token)

	conn, resp, err := dialer.DialContext(ctx, Endpoint(base, table), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("realtime dial %s: %w", table, err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var first models.RawChange
	if err := conn.ReadJSON(&first); err != nil || first.Type != models.FrameSubscribed {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s", ErrHandshake, table)
	}
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(closeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	c := &Channel[E]{
		table:  table,
		conn:   conn,
		events: make(chan models.Change[E], 16),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
		logger: logger.With("module", "realtime", "table", table),
	}
	go c.read(ctx)
	return c, nil
}

func (c *Channel[E]) read(ctx context.Context) {
	defer close(c.closed)
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err == nil {
			_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		}
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn(ctx, "realtime connection lost", "error", err)
			}
			return
		}

		var raw models.RawChange
		if err := json.Unmarshal(data, &raw); err != nil {
			c.logger.Warn(ctx, "malformed realtime frame", "error", err)
			continue
		}
		change, err := models.DecodeChange[E](raw)
		if err != nil {
			c.logger.Warn(ctx, "undecodable realtime change", "error", err)
			continue
		}
		c.logger.Debug(ctx, "realtime change", "type", change.Type)

		select {
		case c.events <- change:
		case <-c.done:
			return
		}
	}
}

func (c *Channel[E]) Table() string {
	return c.table
}

// Events returns a sequence over the changes that have not been consumed
// yet. It ends when the channel is unsubscribed or the connection drops.
// Breaking out of a range leaves the remaining events for the next range.
func (c *Channel[E]) Events() iter.Seq[models.Change[E]] {
	return func(yield func(models.Change[E]) bool) {
		for {
			select {
			case ch, ok := <-c.events:
				if !ok || !yield(ch) {
					return
				}
			case <-c.done:
				return
			}
		}
	}
}

// Listen calls fn for every change on a separate goroutine, in order.
func (c *Channel[E]) Listen(fn func(models.Change[E])) {
	go func() {
		for ch := range c.Events() {
			fn(ch)
		}
	}()
}

// Closed is closed once no more events will be delivered.
func (c *Channel[E]) Closed() <-chan struct{} {
	return c.closed
}

// Unsubscribe closes the websocket and waits for the reader to exit. It is
// safe to call more than once.
func (c *Channel[E]) Unsubscribe() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait))
		_ = c.conn.Close()
	})
	<-c.closed
}
