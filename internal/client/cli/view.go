package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/taskmark/internal/client/backend"
	"github.com/dmitrijs2005/taskmark/internal/client/selectors"
	"github.com/dmitrijs2005/taskmark/internal/client/store"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/dmitrijs2005/taskmark/internal/validation"
)

var errUsage = errors.New("usage")

// parseFilter reads "clear" or key=value pairs (status, priority, q). Words
// without '=' continue the previous value, so "q=buy oat milk" works.
func parseFilter(args []string) (models.Filter, error) {
	var f models.Filter
	if len(args) == 1 && args[0] == "clear" {
		return f, nil
	}

	var last *string
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			if last == nil {
				return f, fmt.Errorf("%w: filter <tasks|bookmarks> [status=..] [priority=..] [q=..] | clear", errUsage)
			}
			*last += " " + arg
			continue
		}

		switch key {
		case "status":
			f.Status = models.TaskStatus(value)
			if !f.Status.Valid() {
				return f, validation.Errors{"status": "must be one of: pending, in-progress, completed"}
			}
			last = nil
		case "priority":
			f.Priority = models.TaskPriority(value)
			if !f.Priority.Valid() {
				return f, validation.Errors{"priority": "must be one of: low, medium, high"}
			}
			last = nil
		case "q", "search":
			f.Search = value
			last = &f.Search
		default:
			return f, fmt.Errorf("unknown filter %q", key)
		}
	}
	return f, nil
}

func (a *App) Filter(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: filter <tasks|bookmarks> [status=..] [priority=..] [q=..] | clear", errUsage)
	}

	f, err := parseFilter(args[1:])
	if err != nil {
		return err
	}

	switch args[0] {
	case models.TableTasks:
		return a.tasks.SetFilter(ctx, f)
	case models.TableBookmarks:
		if f.Status != "" || f.Priority != "" {
			return errors.New("bookmarks can only be filtered by q")
		}
		return a.bookmarks.SetFilter(ctx, f)
	}
	return fmt.Errorf("unknown collection %q", args[0])
}

func parseSort(table string, args []string) (models.SortField, models.SortOrder, error) {
	fields := models.SortFields(table)
	if len(args) < 1 || len(args) > 2 {
		return "", "", fmt.Errorf("%w: sort %s <%s> [asc|desc]", errUsage, table, joinFields(fields))
	}

	by := models.SortField(args[0])
	if !slices.Contains(fields, by) {
		return "", "", fmt.Errorf("cannot sort %s by %q, use one of: %s", table, by, joinFields(fields))
	}

	order := models.SortAsc
	if len(args) == 2 {
		order = models.SortOrder(args[1])
		if order != models.SortAsc && order != models.SortDesc {
			return "", "", fmt.Errorf("sort order must be asc or desc")
		}
	}
	return by, order, nil
}

func joinFields(fields []models.SortField) string {
	s := make([]string, len(fields))
	for i, f := range fields {
		s[i] = string(f)
	}
	return strings.Join(s, "|")
}

func (a *App) Sort(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: sort <tasks|bookmarks> <field> [asc|desc]", errUsage)
	}

	table := args[0]
	if table != models.TableTasks && table != models.TableBookmarks {
		return fmt.Errorf("unknown collection %q", table)
	}
	by, order, err := parseSort(table, args[1:])
	if err != nil {
		return err
	}

	if table == models.TableTasks {
		return a.tasks.SetSorting(ctx, by, order)
	}
	return a.bookmarks.SetSorting(ctx, by, order)
}

func (a *App) Stats(ctx context.Context) error {
	ts := selectors.TaskStats(a.tasks.Snapshot().Items)
	fmt.Fprintf(a.out, "Tasks: %d total, %d pending, %d in progress, %d completed (%d%%)\n",
		ts.Total, ts.Pending(), ts.InProgress(), ts.Completed(), ts.CompletionRate)
	fmt.Fprintf(a.out, "High priority open: %d\n", ts.HighPriorityOpen)

	bs := selectors.BookmarkStats(a.bookmarks.Snapshot().Items)
	fmt.Fprintf(a.out, "Bookmarks: %d total\n", bs.Total)

	hosts := slices.SortedFunc(maps.Keys(bs.ByHost), func(x, y string) int {
		if c := bs.ByHost[y] - bs.ByHost[x]; c != 0 {
			return c
		}
		return strings.Compare(x, y)
	})
	for _, h := range hosts[:min(len(hosts), 5)] {
		fmt.Fprintf(a.out, "  %s: %d\n", h, bs.ByHost[h])
	}
	return nil
}

// Refresh clears any sync error and re-fetches both collections.
func (a *App) Refresh(ctx context.Context) error {
	return errors.Join(a.tasks.Retry(ctx), a.bookmarks.Retry(ctx))
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return verrs.Error()
	case errors.Is(err, backend.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, backend.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, store.ErrNotAuthenticated), errors.Is(err, backend.ErrUnauthorized):
		return "please log in"
	case errors.Is(err, backend.ErrNotFound):
		return "not found"
	case errors.Is(err, backend.ErrConflict):
		return "already exists"
	}
	return err.Error()
}
