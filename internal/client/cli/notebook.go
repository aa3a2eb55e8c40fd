package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/YaniYesh22/snot/internal/client/notebooks"
)

const notebooksRoute = "/notebooks"

// List reloads the notebook set and prints it.
func (a *App) List(ctx context.Context) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}
	if err := a.notes.Load(ctx); err != nil {
		printlnFn("Failed to load notebooks:", err.Error())
		return err
	}
	a.printView()
	return nil
}

// Search narrows the visible list; an empty query clears the filter.
func (a *App) Search(ctx context.Context, query string) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}
	a.notes.SetFilter(query)
	a.printView()
	return nil
}

// Create prompts for a new notebook and adds it to the list immediately,
// whether or not the server confirmed the write.
func (a *App) Create(ctx context.Context) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}

	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	if title == "" {
		printlnFn("Title must not be empty")
		return nil
	}
	content, err := getMultiline(a.reader, "Content", os.Stdout)
	if err != nil {
		return err
	}
	tagLine, err := getSimpleText(a.reader, "Tags (space separated, empty for none)", os.Stdout)
	if err != nil {
		return err
	}

	record, err := a.notes.Create(ctx, title, content, strings.Fields(tagLine))
	if err != nil {
		if errors.Is(err, notebooks.ErrRemoteUnavailable) {
			printlnFn(fmt.Sprintf("Saved locally as %s, will sync when the server is reachable", record.ID))
			return nil
		}
		printlnFn("Failed to create notebook:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Created %s", record.ID))
	return nil
}

// Open shows one notebook in full, including the word count.
func (a *App) Open(ctx context.Context, id string) error {
	if !a.enterRoute(ctx, "/notebook/"+id) {
		return nil
	}

	record, ok := a.notes.Get(id)
	if !ok {
		printlnFn("No notebook with id", id)
		return nil
	}

	printlnFn(fmt.Sprintf("# %s  [%s]", record.Title, record.ID))
	if len(record.Tags) > 0 {
		printlnFn("Tags:", strings.Join(record.Tags, ", "))
	}
	printlnFn("")
	printlnFn(record.Content)
	printlnFn("")
	for _, link := range record.AttachedLinks {
		printlnFn(fmt.Sprintf("Link: %s (%s)", link.URL, link.Label))
	}
	for _, file := range record.AttachedFiles {
		printlnFn(fmt.Sprintf("File: %s, %d bytes, %s", file.Name, file.Size, file.MimeType))
	}
	printlnFn(fmt.Sprintf("%d words, updated %s", wordCount(record.Content),
		record.UpdatedAt.Format("2006-01-02 15:04")))
	return nil
}

// Edit patches title and content. Empty answers keep the current value.
func (a *App) Edit(ctx context.Context, id string) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}

	record, ok := a.notes.Get(id)
	if !ok {
		printlnFn("No notebook with id", id)
		return nil
	}

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s] (empty to keep)", record.Title), os.Stdout)
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "Content (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	var patch notebooks.Patch
	if title != "" {
		patch.Title = &title
	}
	if content != "" {
		patch.Content = &content
	}
	if patch.Title == nil && patch.Content == nil {
		printlnFn("Nothing to change")
		return nil
	}

	return a.applyPatch(ctx, id, patch)
}

// Tag replaces the notebook's tag set. No tags clears it.
func (a *App) Tag(ctx context.Context, id string, tags []string) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}
	if tags == nil {
		tags = []string{}
	}
	return a.applyPatch(ctx, id, notebooks.Patch{Tags: tags})
}

// Move drops one notebook onto another, drag-and-drop style: the first
// takes the second's position in the visible list.
func (a *App) Move(ctx context.Context, id, targetID string) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}
	if err := a.notes.DragReorder(ctx, id, targetID); err != nil {
		printlnFn("Failed to reorder:", err.Error())
		return err
	}
	a.printView()
	return nil
}

// Delete removes the notebook. The removal is local-first and final.
func (a *App) Delete(ctx context.Context, id string) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}
	if err := a.notes.Delete(ctx, id); err != nil {
		printlnFn("Failed to delete:", err.Error())
		return err
	}
	printlnFn("Deleted", id)
	return nil
}

// Refresh replays offline writes and reloads from the server.
func (a *App) Refresh(ctx context.Context) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}
	if err := a.notes.Refresh(ctx); err != nil {
		printlnFn("Refresh failed:", err.Error())
		return err
	}
	a.printView()
	return nil
}

func (a *App) applyPatch(ctx context.Context, id string, patch notebooks.Patch) error {
	record, err := a.notes.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, notebooks.ErrRemoteUnavailable) {
			printlnFn("Saved locally, will sync when the server is reachable")
			return nil
		}
		if errors.Is(err, notebooks.ErrNotFound) {
			printlnFn("No notebook with id", id)
			return nil
		}
		printlnFn("Failed to update:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Updated %s", record.ID))
	return nil
}

func (a *App) printView() {
	records, degraded := a.notes.View()
	failed := a.notes.FailedOps()
	if degraded {
		printlnFn("! server unreachable, showing locally cached data")
	}
	if filter := a.notes.Filter(); filter != "" {
		printlnFn(fmt.Sprintf("Filter: %q (%d match)", filter, len(records)))
	}
	if len(records) == 0 {
		printlnFn("No notebooks")
		return
	}
	for _, record := range records {
		line := fmt.Sprintf("%2d. [%s] %s", record.Order, record.ID, record.Title)
		if len(record.Tags) > 0 {
			line += "  #" + strings.Join(record.Tags, " #")
		}
		if _, ok := failed[record.ID]; ok {
			line += "  (sync failed, edit to retry)"
		} else if notebooks.IsLocalID(record.ID) {
			line += "  (not synced)"
		}
		printlnFn(line)
	}
}
