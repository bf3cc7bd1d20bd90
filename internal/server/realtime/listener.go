package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Channel is the NOTIFY channel the row_changes trigger publishes on.
const Channel = "row_changes"

const reconnectDelay = 5 * time.Second

type notificationSource interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// notification is the trigger payload. It carries only the row key; the
// row itself is loaded by the listener.
type notification struct {
	Type            models.ChangeType `json:"type"`
	Table           string            `json:"table"`
	UserID          string            `json:"user_id"`
	ID              string            `json:"id"`
	CommitTimestamp time.Time         `json:"commit_timestamp"`
}

var rowQueries = map[string]string{
	models.TableTasks:     `SELECT row_to_json(t)::text FROM tasks t WHERE id = $1 AND user_id = $2`,
	models.TableBookmarks: `SELECT row_to_json(b)::text FROM bookmarks b WHERE id = $1 AND user_id = $2`,
}

// Listener holds a dedicated pgx connection in LISTEN mode and forwards
// every notification to a Hub.
type Listener struct {
	dsn    string
	hub    *Hub
	logger logging.Logger

	connect func(ctx context.Context, dsn string) (*pgx.Conn, error)
}

func NewListener(dsn string, hub *Hub, logger logging.Logger) *Listener {
	return &Listener{
		dsn:     dsn,
		hub:     hub,
		logger:  logger.With("module", "realtime_listener"),
		connect: pgx.Connect,
	}
}

// Run listens until ctx is cancelled, reconnecting after connection loss.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listenOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn(ctx, "listener disconnected", "error", err, "retry_in", reconnectDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context) error {
	conn, err := l.connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.logger.Info(ctx, "Listening for row changes", "channel", Channel)

	return l.consume(ctx, conn)
}

// consume forwards notifications until the source fails. Malformed payloads
// are logged and skipped.
func (l *Listener) consume(ctx context.Context, src notificationSource) error {
	for {
		n, err := src.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if n.Channel != Channel {
			continue
		}

		var note notification
		if err := json.Unmarshal([]byte(n.Payload), &note); err != nil {
			l.logger.Warn(ctx, "malformed notification", "error", err)
			continue
		}
		if note.UserID == "" || note.Table == "" || note.ID == "" {
			l.logger.Warn(ctx, "notification without owner, table or id", "type", note.Type)
			continue
		}

		change, ok := l.resolve(ctx, src, note)
		if !ok {
			continue
		}
		delivered := l.hub.Publish(ctx, change)
		l.logger.Debug(ctx, "row change", "table", change.Table, "type", change.Type, "delivered", delivered)
	}
}

// resolve turns a notification into a change. INSERT and UPDATE carry the
// current row; DELETE carries only the key of the removed row. A row that is
// gone by the time it is loaded is skipped: its DELETE follows.
func (l *Listener) resolve(ctx context.Context, src notificationSource, note notification) (models.RawChange, bool) {
	change := models.RawChange{
		Type:            note.Type,
		Table:           note.Table,
		UserID:          note.UserID,
		CommitTimestamp: note.CommitTimestamp,
	}

	if note.Type == models.ChangeDelete {
		key, err := json.Marshal(map[string]string{"id": note.ID, "user_id": note.UserID})
		if err != nil {
			l.logger.Warn(ctx, "encoding deleted key", "error", err)
			return change, false
		}
		change.Old = key
		return change, true
	}

	query, ok := rowQueries[note.Table]
	if !ok {
		l.logger.Warn(ctx, "notification for unknown table", "table", note.Table)
		return change, false
	}

	var row string
	err := src.QueryRow(ctx, query, note.ID, note.UserID).Scan(&row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		l.logger.Debug(ctx, "changed row no longer exists", "table", note.Table, "id", note.ID)
		return change, false
	case err != nil:
		l.logger.Warn(ctx, "loading changed row", "table", note.Table, "id", note.ID, "error", err)
		return change, false
	}
	change.New = json.RawMessage(row)
	return change, true
}
