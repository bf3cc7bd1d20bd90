// Package bookmarks stores bookmarks in Postgres. Every statement is scoped by owner.
package bookmarks

import (
	"context"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

type Repository interface {
	Select(ctx context.Context, userID string, q models.Query) ([]models.Bookmark, error)
	Insert(ctx context.Context, userID string, in models.BookmarkInput) (*models.Bookmark, error)
	Update(ctx context.Context, userID, id string, patch models.BookmarkPatch) (*models.Bookmark, error)
	Delete(ctx context.Context, userID, id string) error
}
