package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskmark/internal/dbx"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/bookmarks"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/recoverytokens"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.Queryer) users.Repository
	RefreshTokens(db dbx.Queryer) refreshtokens.Repository
	RecoveryTokens(db dbx.Queryer) recoverytokens.Repository
	Tasks(db dbx.Queryer) tasks.Repository
	Bookmarks(db dbx.Queryer) bookmarks.Repository
}
