package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/taskmark/internal/validation"
)

func (a *App) ListBookmarks(ctx context.Context) error {
	st := a.bookmarks.Snapshot()
	if st.Err != nil {
		fmt.Fprintf(a.out, "last sync failed: %s (run 'refresh' to retry)\n", describe(st.Err))
	}

	items := a.bookmarks.Visible()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No bookmarks")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tURL")
	for _, b := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Title, b.URL)
	}
	return tw.Flush()
}

// AddBookmark prompts for a title and URL. A URL without a scheme gets
// https:// prepended.
func (a *App) AddBookmark(ctx context.Context) error {
	var f validation.BookmarkForm
	var err error

	if f.Title, err = getSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if f.URL, err = getSimpleText(a.reader, "URL", a.out); err != nil {
		return err
	}

	in, err := f.Input()
	if err != nil {
		return err
	}

	b, err := a.bookmarks.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created bookmark %s\n", b.ID)
	return nil
}

func (a *App) EditBookmark(ctx context.Context, id string) error {
	var title, url string
	found := false
	for _, b := range a.bookmarks.Snapshot().Items {
		if b.ID == id {
			title, url, found = b.Title, b.URL, true
			break
		}
	}
	if !found {
		return fmt.Errorf("bookmark %s is not loaded", id)
	}

	var f validation.BookmarkPatchForm
	var err error
	if f.Title, err = GetOptional(a.reader, "Title", title, a.out); err != nil {
		return err
	}
	if f.URL, err = GetOptional(a.reader, "URL", url, a.out); err != nil {
		return err
	}

	patch, err := f.Patch()
	if err != nil {
		return err
	}
	if _, err := a.bookmarks.Update(ctx, id, patch); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Bookmark updated")
	return nil
}

func (a *App) DeleteBookmark(ctx context.Context, id string) error {
	if err := a.bookmarks.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Bookmark deleted")
	return nil
}
