package tasks

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

const columns = `id, user_id, title, description, priority, status, due_date, created_at, updated_at`

type PostgresRepository struct {
	db dbx.Queryer
}

func NewPostgresRepository(db dbx.Queryer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// orderExpr maps a sort field onto a whitelisted SQL expression.
// The bool reports whether NULLs must sort last.
func orderExpr(f models.SortField) (string, bool, error) {
	switch f {
	case models.SortCreatedAt, models.SortUpdatedAt:
		return string(f), false, nil
	case models.SortTitle:
		return `lower(title) COLLATE "C"`, false, nil
	case models.SortDueDate:
		return "due_date", true, nil
	case models.SortPriority:
		return listquery.RankCase("priority", enumStrings(models.TaskPriorities)...), false, nil
	case models.SortStatus:
		return listquery.RankCase("status", enumStrings(models.TaskStatuses)...), false, nil
	}
	return "", false, fmt.Errorf("%w: tasks cannot be sorted by %q", common.ErrInvalidPayload, f)
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func (r *PostgresRepository) Select(ctx context.Context, userID string, q models.Query) ([]models.Task, error) {
	expr, nullsLast, err := orderExpr(q.Sort.By)
	if err != nil {
		return nil, err
	}

	b := listquery.Select(columns, "tasks", userID).
		Equal("status", string(q.Filter.Status)).
		Equal("priority", string(q.Filter.Priority)).
		Search(q.Filter.Search, "title", "description").
		OrderBy(expr, q.Sort.Order, nullsLast)

	out := []models.Task{}
	if err := r.db.SelectContext(ctx, &out, b.String(), b.Args()...); err != nil {
		return nil, pgerr.Wrap("select tasks", err)
	}
	return out, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, userID string, in models.TaskInput) (*models.Task, error) {
	in = in.WithDefaults()

	query :=
		`INSERT INTO tasks (user_id, title, description, priority, status, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + columns

	out := &models.Task{}
	if err := r.db.GetContext(ctx, out, query,
		userID, strings.TrimSpace(in.Title), in.Description, in.Priority, in.Status, in.DueDate); err != nil {
		return nil, pgerr.Wrap("insert task", err)
	}
	return out, nil
}

// Update applies the set fields of patch to the owner's task. An unknown id,
// or one owned by someone else, yields common.ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	var (
		sb   strings.Builder
		args = []any{id, userID}
	)

	set := func(column string, value any) {
		args = append(args, value)
		fmt.Fprintf(&sb, ", %s = $%d", column, len(args))
	}

	sb.WriteString(`UPDATE tasks SET updated_at = now()`)
	if patch.Title != nil {
		set("title", strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	switch {
	case patch.ClearDueDate:
		sb.WriteString(", due_date = NULL")
	case patch.DueDate != nil:
		set("due_date", *patch.DueDate)
	}
	sb.WriteString(` WHERE id = $1 AND user_id = $2 RETURNING ` + columns)

	out := &models.Task{}
	if err := r.db.GetContext(ctx, out, sb.String(), args...); err != nil {
		return nil, pgerr.Wrap("update task", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return pgerr.Wrap("delete task", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return common.ErrorNotFound
	}
	return nil
}
