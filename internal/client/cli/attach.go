package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/YaniYesh22/snot/internal/client/notebooks"
)

// AttachLink adds a link to a notebook.
func (a *App) AttachLink(ctx context.Context, id string) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}

	record, ok := a.notes.Get(id)
	if !ok {
		printlnFn("No notebook with id", id)
		return nil
	}

	link, err := getSimpleText(a.reader, "URL", os.Stdout)
	if err != nil {
		return err
	}
	if link == "" {
		printlnFn("URL must not be empty")
		return nil
	}
	label, err := getSimpleText(a.reader, "Label (optional)", os.Stdout)
	if err != nil {
		return err
	}

	links := append(record.AttachedLinks, notebooks.LinkAttachment{
		ID:      uuid.NewString(),
		URL:     link,
		Label:   label,
		AddedAt: time.Now(),
	})
	return a.applyPatch(ctx, id, notebooks.Patch{Links: links})
}

// AttachFile records the metadata of a local file on a notebook. The file
// content itself is never uploaded or stored.
func (a *App) AttachFile(ctx context.Context, id string) error {
	if !a.enterRoute(ctx, notebooksRoute) {
		return nil
	}

	record, ok := a.notes.Get(id)
	if !ok {
		printlnFn("No notebook with id", id)
		return nil
	}

	path, err := getSimpleText(a.reader, "Path to file", os.Stdout)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		printlnFn("Cannot read file:", err.Error())
		return nil
	}
	if info.IsDir() {
		printlnFn(path, "is a directory")
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	files := append(record.AttachedFiles, notebooks.FileAttachment{
		ID:       uuid.NewString(),
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MimeType: mimeTypeOf(path),
		Locator:  "file://" + abs,
	})

	if err := a.applyPatch(ctx, id, notebooks.Patch{Files: files}); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Attached metadata of %s (%d bytes)", filepath.Base(path), info.Size()))
	return nil
}

func mimeTypeOf(path string) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if t == "" {
		return "application/octet-stream"
	}
	return t
}
