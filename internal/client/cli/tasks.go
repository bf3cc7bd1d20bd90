package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/dmitrijs2005/taskmark/internal/validation"
)

func (a *App) ListTasks(ctx context.Context) error {
	st := a.tasks.Snapshot()
	if st.Err != nil {
		fmt.Fprintf(a.out, "last sync failed: %s (run 'refresh' to retry)\n", describe(st.Err))
	}

	items := a.tasks.Visible()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No tasks")
		return nil
	}

	now := a.now()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	for _, t := range items {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format(validation.DateLayout)
			if t.Overdue(now) {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, due, t.Title)
	}
	return tw.Flush()
}

// AddTask prompts for a new task, validates it and creates it.
func (a *App) AddTask(ctx context.Context) error {
	var f validation.TaskForm
	var err error

	if f.Title, err = getSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if f.Description, err = GetMultiline(a.reader, "Description", a.out); err != nil {
		return err
	}
	if f.Priority, err = getSimpleText(a.reader, "Priority (low, medium, high) [medium]", a.out); err != nil {
		return err
	}
	if f.DueDate, err = getSimpleText(a.reader, "Due date (YYYY-MM-DD, optional)", a.out); err != nil {
		return err
	}

	in, err := f.Input()
	if err != nil {
		return err
	}

	t, err := a.tasks.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created task %s\n", t.ID)
	return nil
}

func (a *App) findTask(id string) (models.Task, bool) {
	for _, t := range a.tasks.Snapshot().Items {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// EditTask prompts for every field; empty answers keep the current value.
func (a *App) EditTask(ctx context.Context, id string) error {
	cur, ok := a.findTask(id)
	if !ok {
		return fmt.Errorf("task %s is not loaded", id)
	}

	due := "none"
	if cur.DueDate != nil {
		due = cur.DueDate.Format(validation.DateLayout)
	}

	var f validation.TaskPatchForm
	var err error
	if f.Title, err = GetOptional(a.reader, "Title", cur.Title, a.out); err != nil {
		return err
	}
	if f.Description, err = GetOptional(a.reader, "Description", cur.Description, a.out); err != nil {
		return err
	}
	if f.Priority, err = GetOptional(a.reader, "Priority", string(cur.Priority), a.out); err != nil {
		return err
	}
	if f.Status, err = GetOptional(a.reader, "Status", string(cur.Status), a.out); err != nil {
		return err
	}
	if f.DueDate, err = GetOptional(a.reader, "Due date (YYYY-MM-DD or none)", due, a.out); err != nil {
		return err
	}

	patch, err := f.Patch()
	if err != nil {
		return err
	}
	if _, err := a.tasks.Update(ctx, id, patch); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Task updated")
	return nil
}

// SetTaskStatus is the shortcut behind 'start' and 'done'.
func (a *App) SetTaskStatus(ctx context.Context, id string, status models.TaskStatus) error {
	t, err := a.tasks.Update(ctx, id, models.TaskPatch{Status: &status})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", t.Title, t.Status)
	return nil
}

func (a *App) DeleteTask(ctx context.Context, id string) error {
	if err := a.tasks.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Task deleted")
	return nil
}
