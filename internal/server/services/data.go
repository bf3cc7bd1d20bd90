package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/dmitrijs2005/taskmark/internal/dbx"
	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/dmitrijs2005/taskmark/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// entityRepository is the shape shared by the tasks and bookmarks repositories.
type entityRepository[E, I, P any] interface {
	Select(ctx context.Context, userID string, q models.Query) ([]E, error)
	Insert(ctx context.Context, userID string, in I) (*E, error)
	Update(ctx context.Context, userID, id string, patch P) (*E, error)
	Delete(ctx context.Context, userID, id string) error
}

type checker interface {
	Check() error
}

// table serves one entity table with rows encoded as JSON.
type table interface {
	selectRows(ctx context.Context, userID string, q models.Query) (json.RawMessage, error)
	insert(ctx context.Context, userID string, row json.RawMessage) (json.RawMessage, error)
	update(ctx context.Context, userID, id string, patch json.RawMessage) (json.RawMessage, error)
	delete(ctx context.Context, userID, id string) error
}

type collection[E any, I checker, P checker] struct {
	name string
	db   *sqlx.DB
	repo func(dbx.Queryer) entityRepository[E, I, P]
}

func decodeStrict(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty body", common.ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}
	return nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", common.ErrInvalidPayload, id)
	}
	return nil
}

func (c *collection[E, I, P]) selectRows(ctx context.Context, userID string, q models.Query) (json.RawMessage, error) {
	if q.Sort == (models.Sort{}) {
		q.Sort = models.DefaultSort
	}
	if err := models.ValidateSort(c.name, q.Sort); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}
	if err := models.ValidateFilter(c.name, q.Filter); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}

	rows, err := c.repo(c.db).Select(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rows)
}

func (c *collection[E, I, P]) insert(ctx context.Context, userID string, row json.RawMessage) (json.RawMessage, error) {
	var in I
	if err := decodeStrict(row, &in); err != nil {
		return nil, err
	}
	if err := in.Check(); err != nil {
		return nil, err
	}

	out, err := c.repo(c.db).Insert(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (c *collection[E, I, P]) update(ctx context.Context, userID, id string, patch json.RawMessage) (json.RawMessage, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var p P
	if err := decodeStrict(patch, &p); err != nil {
		return nil, err
	}
	if err := p.Check(); err != nil {
		return nil, err
	}

	out, err := c.repo(c.db).Update(ctx, userID, id, p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (c *collection[E, I, P]) delete(ctx context.Context, userID, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return c.repo(c.db).Delete(ctx, userID, id)
}

// DataService dispatches the generic data RPCs to the entity tables. The
// caller's user id scopes every statement.
type DataService struct {
	tables map[string]table
	logger logging.Logger
}

func NewDataService(db *sqlx.DB, m repomanager.RepositoryManager, logger logging.Logger) *DataService {
	return &DataService{
		logger: logger.With("module", "data"),
		tables: map[string]table{
			models.TableTasks: &collection[models.Task, models.TaskInput, models.TaskPatch]{
				name: models.TableTasks,
				db:   db,
				repo: func(q dbx.Queryer) entityRepository[models.Task, models.TaskInput, models.TaskPatch] {
					return m.Tasks(q)
				},
			},
			models.TableBookmarks: &collection[models.Bookmark, models.BookmarkInput, models.BookmarkPatch]{
				name: models.TableBookmarks,
				db:   db,
				repo: func(q dbx.Queryer) entityRepository[models.Bookmark, models.BookmarkInput, models.BookmarkPatch] {
					return m.Bookmarks(q)
				},
			},
		},
	}
}

func (s *DataService) table(name string) (table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownTable, name)
	}
	return t, nil
}

func (s *DataService) Select(ctx context.Context, userID, tableName string, q models.Query) (json.RawMessage, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	return t.selectRows(ctx, userID, q)
}

func (s *DataService) Insert(ctx context.Context, userID, tableName string, row json.RawMessage) (json.RawMessage, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	out, err := t.insert(ctx, userID, row)
	if err != nil {
		s.logFailure(ctx, "insert", tableName, err)
	}
	return out, err
}

func (s *DataService) Update(ctx context.Context, userID, tableName, id string, patch json.RawMessage) (json.RawMessage, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	out, err := t.update(ctx, userID, id, patch)
	if err != nil {
		s.logFailure(ctx, "update", tableName, err)
	}
	return out, err
}

func (s *DataService) Delete(ctx context.Context, userID, tableName, id string) error {
	t, err := s.table(tableName)
	if err != nil {
		return err
	}
	return t.delete(ctx, userID, id)
}

// logFailure keeps client mistakes at Debug and everything else at Error.
func (s *DataService) logFailure(ctx context.Context, op, tableName string, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidPayload), errors.Is(err, models.ErrInvalidRow),
		errors.Is(err, common.ErrConstraint), errors.Is(err, common.ErrAlreadyExists),
		errors.Is(err, common.ErrorNotFound):
		s.logger.Debug(ctx, "rejected "+op, "table", tableName, "error", err)
	default:
		s.logger.Error(ctx, op+" failed", "table", tableName, "error", err)
	}
}
