package bookmarks

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/dmitrijs2005/taskmark/internal/dbx"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/listquery"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/pgerr"
)

const columns = `id, user_id, title, url, created_at, updated_at`

type PostgresRepository struct {
	db dbx.Queryer
}

func NewPostgresRepository(db dbx.Queryer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func orderExpr(f models.SortField) (string, error) {
	switch f {
	case models.SortCreatedAt, models.SortUpdatedAt:
		return string(f), nil
	case models.SortTitle:
		return `lower(title) COLLATE "C"`, nil
	case models.SortURL:
		return `lower(url) COLLATE "C"`, nil
	}
	return "", fmt.Errorf("%w: bookmarks cannot be sorted by %q", common.ErrInvalidPayload, f)
}

func (r *PostgresRepository) Select(ctx context.Context, userID string, q models.Query) ([]models.Bookmark, error) {
	if q.Filter.Status != "" || q.Filter.Priority != "" {
		return nil, fmt.Errorf("%w: bookmarks can only be filtered by search", common.ErrInvalidPayload)
	}
	expr, err := orderExpr(q.Sort.By)
	if err != nil {
		return nil, err
	}

	b := listquery.Select(columns, "bookmarks", userID).
		Search(q.Filter.Search, "title", "url").
		OrderBy(expr, q.Sort.Order, false)

	out := []models.Bookmark{}
	if err := r.db.SelectContext(ctx, &out, b.String(), b.Args()...); err != nil {
		return nil, pgerr.Wrap("select bookmarks", err)
	}
	return out, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, userID string, in models.BookmarkInput) (*models.Bookmark, error) {
	query :=
		`INSERT INTO bookmarks (user_id, title, url)
		 VALUES ($1, $2, $3)
		 RETURNING ` + columns

	out := &models.Bookmark{}
	if err := r.db.GetContext(ctx, out, query, userID, strings.TrimSpace(in.Title), strings.TrimSpace(in.URL)); err != nil {
		return nil, pgerr.Wrap("insert bookmark", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID, id string, patch models.BookmarkPatch) (*models.Bookmark, error) {
	var (
		sb   strings.Builder
		args = []any{id, userID}
	)

	sb.WriteString(`UPDATE bookmarks SET updated_at = now()`)
	if patch.Title != nil {
		args = append(args, strings.TrimSpace(*patch.Title))
		fmt.Fprintf(&sb, ", title = $%d", len(args))
	}
	if patch.URL != nil {
		args = append(args, strings.TrimSpace(*patch.URL))
		fmt.Fprintf(&sb, ", url = $%d", len(args))
	}
	sb.WriteString(` WHERE id = $1 AND user_id = $2 RETURNING ` + columns)

	out := &models.Bookmark{}
	if err := r.db.GetContext(ctx, out, sb.String(), args...); err != nil {
		return nil, pgerr.Wrap("update bookmark", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM bookmarks WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return pgerr.Wrap("delete bookmark", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return common.ErrorNotFound
	}
	return nil
}
