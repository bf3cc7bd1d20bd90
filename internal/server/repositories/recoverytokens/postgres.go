package recoverytokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/dbx"
	"github.com/dmitrijs2005/taskmark/internal/server/models"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.Queryer
}

func NewPostgresRepository(db dbx.Queryer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	query := `
		INSERT INTO password_resets (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token, time.Now().Add(validity)); err != nil {
		return pgerr.Wrap("create recovery token", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, token string) (*models.RecoveryToken, error) {
	query := `
		DELETE FROM password_resets
		WHERE token = $1
		RETURNING user_id, token, expires_at
	`
	out := &models.RecoveryToken{}
	if err := r.db.GetContext(ctx, out, query, token); err != nil {
		return nil, pgerr.Wrap("consume recovery token", err)
	}
	return out, nil
}
