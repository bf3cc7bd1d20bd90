package recoverytokens

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+password_resets\s*\(user_id,\s*token,\s*expires_at\)`).
		WithArgs("u1", "abc", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), "u1", "abc", time.Hour))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsume(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	exp := time.Now().Add(time.Hour)
	q := `(?s)^DELETE\s+FROM\s+password_resets\s+WHERE\s+token\s*=\s*\$1\s+RETURNING\s+user_id,\s*token,\s*expires_at$`
	mock.ExpectQuery(q).WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "token", "expires_at"}).AddRow("u1", "abc", exp))
	mock.ExpectQuery(q).WithArgs("abc").WillReturnError(sql.ErrNoRows)

	got, err := repo.Consume(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.ExpiresAt.Equal(exp))

	_, err = repo.Consume(context.Background(), "abc")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
