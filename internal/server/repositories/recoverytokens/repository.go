// Package recoverytokens stores single-use password reset tokens.
package recoverytokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	// Consume deletes the token and returns it. A missing token yields
	// common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RecoveryToken, error)
}
