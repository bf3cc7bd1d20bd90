package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ErrInvalidRow is returned by the Check methods. The backend rejects such
// rows before they reach the database.
var ErrInvalidRow = errors.New("invalid row")

const (
	MaxTaskTitle       = 100
	MaxTaskDescription = 1000
	MaxBookmarkTitle   = 200
	MaxDisplayName     = 50
	MinPasswordLength  = 6
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRow, fmt.Sprintf(format, args...))
}

func checkTitle(title string, limit int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < 1 || n > limit {
		return invalid("title must be 1..%d characters", limit)
	}
	return nil
}

// CheckURL accepts absolute http and https URLs with a host.
func CheckURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("url must be an absolute http(s) URL")
	}
	return nil
}

func (in TaskInput) Check() error {
	if err := checkTitle(in.Title, MaxTaskTitle); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Description) > MaxTaskDescription {
		return invalid("description must be at most %d characters", MaxTaskDescription)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return invalid("unknown priority %q", in.Priority)
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalid("unknown status %q", in.Status)
	}
	return nil
}

func (p TaskPatch) Check() error {
	if p.IsEmpty() {
		return invalid("empty patch")
	}
	if p.Title != nil {
		if err := checkTitle(*p.Title, MaxTaskTitle); err != nil {
			return err
		}
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > MaxTaskDescription {
		return invalid("description must be at most %d characters", MaxTaskDescription)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return invalid("unknown priority %q", *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("unknown status %q", *p.Status)
	}
	if p.ClearDueDate && p.DueDate != nil {
		return invalid("due_date and clear_due_date are exclusive")
	}
	return nil
}

func (in BookmarkInput) Check() error {
	if err := checkTitle(in.Title, MaxBookmarkTitle); err != nil {
		return err
	}
	return CheckURL(in.URL)
}

func (p BookmarkPatch) Check() error {
	if p.IsEmpty() {
		return invalid("empty patch")
	}
	if p.Title != nil {
		if err := checkTitle(*p.Title, MaxBookmarkTitle); err != nil {
			return err
		}
	}
	if p.URL != nil {
		return CheckURL(*p.URL)
	}
	return nil
}
