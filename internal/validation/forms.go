package validation

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

// DateLayout is the due date format accepted by task forms.
const DateLayout = "2006-01-02"

type TaskForm struct {
	Title       string `form:"title" validate:"required,max=100"`
	Description string `form:"description" validate:"max=1000"`
	Priority    string `form:"priority" validate:"omitempty,oneof=low medium high"`
	Status      string `form:"status" validate:"omitempty,oneof=pending in-progress completed"`
	DueDate     string `form:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// Input trims and validates the form and converts it to a create payload
// with defaults applied.
func (f TaskForm) Input() (models.TaskInput, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.DueDate = strings.TrimSpace(f.DueDate)

	if err := Validate(f); err != nil {
		return models.TaskInput{}, err
	}

	in := models.TaskInput{
		Title:       f.Title,
		Description: f.Description,
		Priority:    models.TaskPriority(f.Priority),
		Status:      models.TaskStatus(f.Status),
		DueDate:     parseDate(f.DueDate),
	}
	return in.WithDefaults(), nil
}

// TaskPatchForm holds only the fields the user chose to change.
// DueDate "none" clears the due date.
type TaskPatchForm struct {
	Title       *string `form:"title" validate:"omitempty,min=1,max=100"`
	Description *string `form:"description" validate:"omitempty,max=1000"`
	Priority    *string `form:"priority" validate:"omitempty,oneof=low medium high"`
	Status      *string `form:"status" validate:"omitempty,oneof=pending in-progress completed"`
	DueDate     *string `form:"due_date" validate:"omitempty,datetime=2006-01-02|eq=none"`
}

func (f TaskPatchForm) Patch() (models.TaskPatch, error) {
	if f.Title != nil {
		t := strings.TrimSpace(*f.Title)
		f.Title = &t
	}

	if err := Validate(f); err != nil {
		return models.TaskPatch{}, err
	}

	p := models.TaskPatch{Title: f.Title, Description: f.Description}
	if f.Priority != nil {
		v := models.TaskPriority(*f.Priority)
		p.Priority = &v
	}
	if f.Status != nil {
		v := models.TaskStatus(*f.Status)
		p.Status = &v
	}
	if f.DueDate != nil {
		if *f.DueDate == "none" {
			p.ClearDueDate = true
		} else {
			p.DueDate = parseDate(*f.DueDate)
		}
	}
	if p.IsEmpty() {
		return p, Errors{"form": "nothing to update"}
	}
	return p, nil
}

type BookmarkForm struct {
	Title string `form:"title" validate:"required,max=200"`
	URL   string `form:"url" validate:"required,weburl"`
}

// Input normalises the URL before validating it.
func (f BookmarkForm) Input() (models.BookmarkInput, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.URL = NormalizeURL(f.URL)

	if err := Validate(f); err != nil {
		return models.BookmarkInput{}, err
	}
	return models.BookmarkInput{Title: f.Title, URL: f.URL}, nil
}

type BookmarkPatchForm struct {
	Title *string `form:"title" validate:"omitempty,min=1,max=200"`
	URL   *string `form:"url" validate:"omitempty,weburl"`
}

func (f BookmarkPatchForm) Patch() (models.BookmarkPatch, error) {
	if f.Title != nil {
		t := strings.TrimSpace(*f.Title)
		f.Title = &t
	}
	if f.URL != nil {
		u := NormalizeURL(*f.URL)
		f.URL = &u
	}

	if err := Validate(f); err != nil {
		return models.BookmarkPatch{}, err
	}

	p := models.BookmarkPatch{Title: f.Title, URL: f.URL}
	if p.IsEmpty() {
		return p, Errors{"form": "nothing to update"}
	}
	return p, nil
}

type SignInForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type SignUpForm struct {
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
	DisplayName     string `form:"display_name" validate:"max=50"`
}

type ResetPasswordForm struct {
	Email string `form:"email" validate:"required,email"`
}

type ProfileForm struct {
	DisplayName string `form:"display_name" validate:"required,max=50"`
}

type NewPasswordForm struct {
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	return &d
}
