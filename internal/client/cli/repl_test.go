package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	err      error
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error {
	return f.record("register")
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) ResetPassword(context.Context) error  { return f.record("reset") }
func (f *fakeExec) Recover(context.Context) error        { return f.record("recover") }
func (f *fakeExec) Profile(context.Context) error        { return f.record("profile") }
func (f *fakeExec) ChangePassword(context.Context) error { return f.record("passwd") }
func (f *fakeExec) ListTasks(context.Context) error      { return f.record("tasks") }
func (f *fakeExec) AddTask(context.Context) error        { return f.record("add-task") }
func (f *fakeExec) EditTask(_ context.Context, id string) error {
	return f.record("edit-task " + id)
}
func (f *fakeExec) SetTaskStatus(_ context.Context, id string, s models.TaskStatus) error {
	return f.record("status " + id + " " + string(s))
}
func (f *fakeExec) DeleteTask(_ context.Context, id string) error {
	return f.record("rm-task " + id)
}
func (f *fakeExec) ListBookmarks(context.Context) error { return f.record("bookmarks") }
func (f *fakeExec) AddBookmark(context.Context) error   { return f.record("add-bookmark") }
func (f *fakeExec) EditBookmark(_ context.Context, id string) error {
	return f.record("edit-bookmark " + id)
}
func (f *fakeExec) DeleteBookmark(_ context.Context, id string) error {
	return f.record("rm-bookmark " + id)
}
func (f *fakeExec) Filter(_ context.Context, args []string) error {
	return f.record("filter " + strings.Join(args, " "))
}
func (f *fakeExec) Sort(_ context.Context, args []string) error {
	return f.record("sort " + strings.Join(args, " "))
}
func (f *fakeExec) Stats(context.Context) error   { return f.record("stats") }
func (f *fakeExec) Refresh(context.Context) error { return f.record("refresh") }

func TestRunREPL_DispatchesCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"login",
		"",
		"tasks",
		"t",
		"add-task",
		"edit-task 1",
		"start 1",
		"done 1",
		"rm-task 1",
		"b",
		"add-bookmark",
		"edit-bookmark 2",
		"rm-bookmark 2",
		"filter tasks status=pending q=buy milk",
		"sort bookmarks title desc",
		"stats",
		"refresh",
		"profile",
		"passwd",
		"logout",
		"reset",
		"recover",
		"register",
		"exit",
		"tasks",
	}, "\n") + "\n"

	f := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), f, func() string { return "(test)" }, rdr(input), &out)

	assert.Equal(t, []string{
		"login", "tasks", "tasks", "add-task", "edit-task 1",
		"status 1 in-progress", "status 1 completed", "rm-task 1",
		"bookmarks", "add-bookmark", "edit-bookmark 2", "rm-bookmark 2",
		"filter tasks status=pending q=buy milk", "sort bookmarks title desc",
		"stats", "refresh", "profile", "passwd", "logout", "reset", "recover", "register",
	}, f.calls)
	assert.Contains(t, out.String(), "taskmark (test)> ")
	assert.Contains(t, out.String(), helpLoggedOut)
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	f := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), f, func() string { return "" }, rdr("tasks"), &out)

	assert.Equal(t, []string{"tasks"}, f.calls)
}

func TestRunREPL_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeExec{}
	var out bytes.Buffer
	runREPL(ctx, f, func() string { return "" }, rdr("tasks\n"), &out)

	assert.Empty(t, f.calls)
}

func TestDispatch_ReportsErrorsAndKeepsGoing(t *testing.T) {
	f := &fakeExec{loggedIn: true, err: errors.New("boom")}
	var out bytes.Buffer

	assert.False(t, dispatch(context.Background(), f, "tasks", nil, &out))
	assert.Contains(t, out.String(), "error: boom")

	out.Reset()
	assert.False(t, dispatch(context.Background(), f, "done", nil, &out))
	assert.Contains(t, out.String(), "usage: done <id>")

	out.Reset()
	assert.False(t, dispatch(context.Background(), f, "frobnicate", nil, &out))
	assert.Contains(t, out.String(), "Unknown command: frobnicate")

	out.Reset()
	dispatch(context.Background(), f, "help", nil, &out)
	assert.Contains(t, out.String(), "add-task")
}
