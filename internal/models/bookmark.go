package models

import (
	"net/url"
	"strings"
	"time"
)

type Bookmark struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	URL       string    `json:"url" db:"url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (b Bookmark) GetID() string { return b.ID }

// Matches searches title and url. Task-only predicates never match.
func (b Bookmark) Matches(f Filter) bool {
	if f.Status != "" || f.Priority != "" {
		return false
	}
	if f.Search != "" && !containsFold(b.Title, f.Search) && !containsFold(b.URL, f.Search) {
		return false
	}
	return true
}

func (b Bookmark) Compare(o Bookmark, s Sort) int {
	var c int
	switch s.By {
	case SortUpdatedAt:
		c = b.UpdatedAt.Compare(o.UpdatedAt)
	case SortTitle:
		c = compareFold(b.Title, o.Title)
	case SortURL:
		c = compareFold(b.URL, o.URL)
	default:
		c = b.CreatedAt.Compare(o.CreatedAt)
	}
	return directed(c, b.ID, o.ID, s.Order)
}

// Host is the lower-cased host name without a leading "www.", or "" when the
// URL does not parse.
func (b Bookmark) Host() string {
	u, err := url.Parse(b.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

type BookmarkInput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type BookmarkPatch struct {
	Title *string `json:"title,omitempty"`
	URL   *string `json:"url,omitempty"`
}

func (p BookmarkPatch) IsEmpty() bool {
	return p.Title == nil && p.URL == nil
}
