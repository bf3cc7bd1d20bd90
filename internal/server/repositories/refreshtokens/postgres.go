package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/dbx"
	"github.com/dmitrijs2005/taskmark/internal/server/models"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/pgerr"
)

// PostgresRepository implements Repository over dbx.Queryer
// (satisfied by *sqlx.DB or *sqlx.Tx).
type PostgresRepository struct {
	db dbx.Queryer
}

func NewPostgresRepository(db dbx.Queryer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token, time.Now().Add(validity)); err != nil {
		return pgerr.Wrap("create refresh token", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT user_id, token, expires_at
		FROM refresh_tokens
		WHERE token = $1
	`
	refreshToken := &models.RefreshToken{}
	if err := r.db.GetContext(ctx, refreshToken, query, token); err != nil {
		return nil, pgerr.Wrap("find refresh token", err)
	}
	return refreshToken, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return pgerr.Wrap("delete refresh token", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return pgerr.Wrap("delete user refresh tokens", err)
	}
	return nil
}
