package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Recover(ctx context.Context) error
	Profile(ctx context.Context) error
	ChangePassword(ctx context.Context) error

	ListTasks(ctx context.Context) error
	AddTask(ctx context.Context) error
	EditTask(ctx context.Context, id string) error
	SetTaskStatus(ctx context.Context, id string, status models.TaskStatus) error
	DeleteTask(ctx context.Context, id string) error

	ListBookmarks(ctx context.Context) error
	AddBookmark(ctx context.Context) error
	EditBookmark(ctx context.Context, id string) error
	DeleteBookmark(ctx context.Context, id string) error

	Filter(ctx context.Context, args []string) error
	Sort(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
	Refresh(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, reset, recover, exit"
	helpLoggedIn  = "Available commands:\n" +
		"  tasks | t                       list tasks\n" +
		"  add-task                        create a task\n" +
		"  edit-task <id>                  edit a task\n" +
		"  start <id> | done <id>          move a task along\n" +
		"  rm-task <id>                    delete a task\n" +
		"  bookmarks | b                   list bookmarks\n" +
		"  add-bookmark                    create a bookmark\n" +
		"  edit-bookmark <id>              edit a bookmark\n" +
		"  rm-bookmark <id>                delete a bookmark\n" +
		"  filter <tasks|bookmarks> ...    status=, priority=, q= or clear\n" +
		"  sort <tasks|bookmarks> <field> [asc|desc]\n" +
		"  stats, refresh, profile, passwd, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// Command errors are printed and the loop continues. It returns on EOF, on
// "exit" or "quit", or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(w, "taskmark %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		if quit := dispatch(ctx, a, parts[0], parts[1:], w); quit {
			return
		}
	}
}

// dispatch runs one command and reports whether the REPL should stop.
func dispatch(ctx context.Context, a execIface, cmd string, args []string, w io.Writer) bool {
	var err error

	withID := func(fn func(id string) error) {
		if len(args) != 1 {
			err = fmt.Errorf("%w: %s <id>", errUsage, cmd)
			return
		}
		err = fn(args[0])
	}

	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(w, helpLoggedIn)
		} else {
			fmt.Fprintln(w, helpLoggedOut)
		}
	case "exit", "quit":
		fmt.Fprintln(w, "Bye!")
		return true

	case "register":
		err = a.Register(ctx)
	case "login":
		err = a.Login(ctx)
	case "reset":
		err = a.ResetPassword(ctx)
	case "recover":
		err = a.Recover(ctx)
	case "logout":
		err = a.Logout(ctx)
	case "profile":
		err = a.Profile(ctx)
	case "passwd":
		err = a.ChangePassword(ctx)

	case "tasks", "t":
		err = a.ListTasks(ctx)
	case "add-task":
		err = a.AddTask(ctx)
	case "edit-task":
		withID(func(id string) error { return a.EditTask(ctx, id) })
	case "start":
		withID(func(id string) error { return a.SetTaskStatus(ctx, id, models.StatusInProgress) })
	case "done":
		withID(func(id string) error { return a.SetTaskStatus(ctx, id, models.StatusCompleted) })
	case "rm-task":
		withID(func(id string) error { return a.DeleteTask(ctx, id) })

	case "bookmarks", "b":
		err = a.ListBookmarks(ctx)
	case "add-bookmark":
		err = a.AddBookmark(ctx)
	case "edit-bookmark":
		withID(func(id string) error { return a.EditBookmark(ctx, id) })
	case "rm-bookmark":
		withID(func(id string) error { return a.DeleteBookmark(ctx, id) })

	case "filter":
		err = a.Filter(ctx, args)
	case "sort":
		err = a.Sort(ctx, args)
	case "stats":
		err = a.Stats(ctx)
	case "refresh":
		err = a.Refresh(ctx)

	default:
		fmt.Fprintln(w, "Unknown command:", cmd)
	}

	if err != nil {
		fmt.Fprintln(w, "error:", describe(err))
	}
	return false
}
