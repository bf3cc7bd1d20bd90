package metadata

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/client/localdb"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := localdb.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k1", []byte{0x01, 0x02}))

	v, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, v)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestDelete_RemovesKey_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Delete(ctx, "x"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestJSON_RoundTripsSession(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	want := models.Session{
		TokenPair: models.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		User:      models.User{ID: "u1", Email: "a@b.c", DisplayName: "Ann"},
	}
	require.NoError(t, r.SaveJSON(ctx, "session", want))

	var got models.Session
	ok, err := r.LoadJSON(ctx, "session", &got)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadJSON_Absent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	var s models.Session
	ok, err := r.LoadJSON(context.Background(), "session", &s)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoadJSON_Corrupt(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, "session", []byte("{not json")))

	var s models.Session
	ok, err := r.LoadJSON(ctx, "session", &s)
	require.Error(t, err)
	require.False(t, ok)
	require.Contains(t, err.Error(), "failed to decode metadata[session]")
}

func TestSaveJSON_Unencodable(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	err := r.SaveJSON(context.Background(), "k", make(chan int))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to encode metadata[k]")
}

func TestDBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.ErrorContains(t, err, "failed to set metadata[k]")

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete metadata[k]")
}
