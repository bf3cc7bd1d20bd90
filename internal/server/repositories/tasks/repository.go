// Package tasks stores tasks in Postgres. Every statement is scoped by owner.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

type Repository interface {
	Select(ctx context.Context, userID string, q models.Query) ([]models.Task, error)
	Insert(ctx context.Context, userID string, in models.TaskInput) (*models.Task, error)
	Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, userID, id string) error
}
