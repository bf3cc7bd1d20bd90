// Package users stores accounts in Postgres.
package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskmark/internal/dbx"
	"github.com/dmitrijs2005/taskmark/internal/server/models"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/pgerr"
)

const columns = `id, email, display_name, password_hash, created_at, updated_at`

type PostgresRepository struct {
	db dbx.Queryer
}

func NewPostgresRepository(db dbx.Queryer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user and fills in the generated id and timestamps.
// A duplicate email yields common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, display_name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING ` + columns

	out := &models.User{}
	if err := r.db.GetContext(ctx, out, query, user.Email, user.DisplayName, user.PasswordHash); err != nil {
		return nil, pgerr.Wrap("create user", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE email = $1`

	out := &models.User{}
	if err := r.db.GetContext(ctx, out, query, email); err != nil {
		return nil, pgerr.Wrap("get user by email", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE id = $1`

	out := &models.User{}
	if err := r.db.GetContext(ctx, out, query, id); err != nil {
		return nil, pgerr.Wrap("get user by id", err)
	}
	return out, nil
}

// Update applies the set fields of patch. An empty patch only bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	var (
		sb   strings.Builder
		args = []any{id}
	)

	sb.WriteString(`UPDATE users SET updated_at = now()`)
	if patch.DisplayName != nil {
		args = append(args, *patch.DisplayName)
		fmt.Fprintf(&sb, ", display_name = $%d", len(args))
	}
	if patch.PasswordHash != nil {
		args = append(args, *patch.PasswordHash)
		fmt.Fprintf(&sb, ", password_hash = $%d", len(args))
	}
	sb.WriteString(` WHERE id = $1 RETURNING ` + columns)

	out := &models.User{}
	if err := r.db.GetContext(ctx, out, sb.String(), args...); err != nil {
		return nil, pgerr.Wrap("update user", err)
	}
	return out, nil
}
