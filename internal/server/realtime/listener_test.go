package realtime

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	data string
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.data
	return nil
}

type fakeSource struct {
	notes   []*pgconn.Notification
	end     error
	rows    map[string]string
	queries []string
}

func (f *fakeSource) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	if len(f.notes) == 0 {
		return nil, f.end
	}
	n := f.notes[0]
	f.notes = f.notes[1:]
	return n, nil
}

func (f *fakeSource) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	data, ok := f.rows[args[0].(string)+"/"+args[1].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{data: data}
}

func note(payload string) *pgconn.Notification {
	return &pgconn.Notification{Channel: Channel, Payload: payload}
}

func TestListener_ConsumeForwardsChanges(t *testing.T) {
	var buf bytes.Buffer
	hub := NewHub(logging.Nop())
	l := NewListener("", hub, logging.New("debug", false, &buf))

	_, ch, cancel := hub.Subscribe("u1", models.TableTasks)
	defer cancel()

	src := &fakeSource{
		rows: map[string]string{"t1/u1": `{"id":"t1","user_id":"u1","title":"a"}`},
		notes: []*pgconn.Notification{
			note(`{"type":"INSERT","table":"tasks","user_id":"u1","id":"t1","commit_timestamp":"2026-01-02T03:04:05.123456+00:00"}`),
			note(`not json`),
			{Channel: "other", Payload: `{"type":"INSERT","table":"tasks","user_id":"u1","id":"t1"}`},
			note(`{"type":"INSERT","table":"tasks","id":"t1"}`),
			note(`{"type":"UPDATE","table":"tasks","user_id":"u1","id":"gone"}`),
			note(`{"type":"DELETE","table":"tasks","user_id":"u1","id":"t1"}`),
		},
		end: context.Canceled,
	}

	require.NoError(t, l.consume(context.Background(), src))

	require.Len(t, ch, 2)
	first := <-ch
	assert.Equal(t, models.ChangeInsert, first.Type)
	assert.JSONEq(t, `{"id":"t1","user_id":"u1","title":"a"}`, string(first.New))
	assert.Equal(t, 2026, first.CommitTimestamp.Year())

	del := <-ch
	assert.Equal(t, models.ChangeDelete, del.Type)
	assert.Empty(t, del.New)
	assert.JSONEq(t, `{"id":"t1","user_id":"u1"}`, string(del.Old))

	// DELETE needs no lookup
	assert.Len(t, src.queries, 2)
	assert.Contains(t, src.queries[0], "FROM tasks t WHERE id = $1 AND user_id = $2")

	assert.Contains(t, buf.String(), "malformed notification")
	assert.Contains(t, buf.String(), "notification without owner, table or id")
	assert.Contains(t, buf.String(), "changed row no longer exists")
}

func TestListener_LargeRowIsLoadedNotNotified(t *testing.T) {
	hub := NewHub(logging.Nop())
	l := NewListener("", hub, logging.Nop())

	_, ch, cancel := hub.Subscribe("u1", models.TableBookmarks)
	defer cancel()

	url := "https://example.com/" + strings.Repeat("a", 9000)
	row := `{"id":"b1","user_id":"u1","title":"long","url":"` + url + `"}`
	payload := `{"type":"UPDATE","table":"bookmarks","user_id":"u1","id":"b1","commit_timestamp":"2026-01-02T03:04:05+00:00"}`
	require.Less(t, len(payload), 8000)

	src := &fakeSource{
		rows:  map[string]string{"b1/u1": row},
		notes: []*pgconn.Notification{note(payload)},
		end:   context.Canceled,
	}
	require.NoError(t, l.consume(context.Background(), src))

	require.Len(t, ch, 1)
	got := <-ch
	assert.Equal(t, models.ChangeUpdate, got.Type)
	assert.JSONEq(t, row, string(got.New))

	b, err := models.DecodeChange[models.Bookmark](got)
	require.NoError(t, err)
	assert.Equal(t, url, b.New.URL)
}

func TestListener_UnknownTableIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	hub := NewHub(logging.Nop())
	l := NewListener("", hub, logging.New("debug", false, &buf))

	src := &fakeSource{
		notes: []*pgconn.Notification{note(`{"type":"INSERT","table":"users","user_id":"u1","id":"x"}`)},
		end:   context.Canceled,
	}
	require.NoError(t, l.consume(context.Background(), src))
	assert.Empty(t, src.queries)
	assert.Contains(t, buf.String(), "notification for unknown table")
}

func TestListener_ConsumeReturnsConnectionError(t *testing.T) {
	l := NewListener("", NewHub(logging.Nop()), logging.Nop())
	boom := errors.New("conn lost")

	err := l.consume(context.Background(), &fakeSource{end: boom})
	assert.ErrorIs(t, err, boom)
}

func TestListener_RunStopsOnCancel(t *testing.T) {
	l := NewListener("postgres://nowhere", NewHub(logging.Nop()), logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	l.connect = func(ctx context.Context, dsn string) (*pgx.Conn, error) {
		calls++
		cancel()
		return nil, errors.New("refused")
	}

	assert.NoError(t, l.Run(ctx))
	assert.Equal(t, 1, calls)
}
