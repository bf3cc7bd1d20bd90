package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/taskmark/internal/client/realtime"
	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Collection is a typed view of one backend table.
type Collection[E any, I any, P any] struct {
	client      *GRPCClient
	table       string
	realtimeURL string
	dialer      *websocket.Dialer
	logger      logging.Logger
}

type (
	Tasks     = Collection[models.Task, models.TaskInput, models.TaskPatch]
	Bookmarks = Collection[models.Bookmark, models.BookmarkInput, models.BookmarkPatch]
)

func NewCollection[E, I, P any](client *GRPCClient, table, realtimeURL string, logger logging.Logger) *Collection[E, I, P] {
	return &Collection[E, I, P]{
		client:      client,
		table:       table,
		realtimeURL: realtimeURL,
		dialer:      websocket.DefaultDialer,
		logger:      logger,
	}
}

func NewTasks(client *GRPCClient, realtimeURL string, logger logging.Logger) *Tasks {
	return NewCollection[models.Task, models.TaskInput, models.TaskPatch](client, models.TableTasks, realtimeURL, logger)
}

func NewBookmarks(client *GRPCClient, realtimeURL string, logger logging.Logger) *Bookmarks {
	return NewCollection[models.Bookmark, models.BookmarkInput, models.BookmarkPatch](client, models.TableBookmarks, realtimeURL, logger)
}

func (c *Collection[E, I, P]) Table() string {
	return c.table
}

// checkID rejects ids that cannot name a row before they reach the server.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", ErrNotFound, id)
	}
	return nil
}

func decodeRow[E any](table string, data json.RawMessage) (E, error) {
	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("decode %s row: %w", table, err)
	}
	return e, nil
}

// Select returns every row of the caller matching q, in q's order.
func (c *Collection[E, I, P]) Select(ctx context.Context, q models.Query) ([]E, error) {
	data, err := c.client.Select(ctx, c.table, q)
	if err != nil {
		return nil, err
	}
	rows := []E{}
	if len(data) == 0 || string(data) == "null" {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", c.table, err)
	}
	return rows, nil
}

func (c *Collection[E, I, P]) Insert(ctx context.Context, in I) (E, error) {
	data, err := c.client.Insert(ctx, c.table, in)
	if err != nil {
		var zero E
		return zero, err
	}
	return decodeRow[E](c.table, data)
}

func (c *Collection[E, I, P]) Update(ctx context.Context, id string, patch P) (E, error) {
	var zero E
	if err := checkID(id); err != nil {
		return zero, err
	}
	data, err := c.client.Update(ctx, c.table, id, patch)
	if err != nil {
		return zero, err
	}
	return decodeRow[E](c.table, data)
}

func (c *Collection[E, I, P]) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return c.client.Delete(ctx, c.table, id)
}

// Subscribe opens the table's realtime channel with the current access token.
func (c *Collection[E, I, P]) Subscribe(ctx context.Context) (*realtime.Channel[E], error) {
	token, err := c.client.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return realtime.Subscribe[E](ctx, c.dialer, c.realtimeURL, c.table, token, c.logger)
}
