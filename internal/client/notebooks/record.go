// Package notebooks implements the client-side notebook repository: a CRUD
// façade over the remote REST API with a local mirror used as a recovery
// cache, and the normalization layer that folds the API's inconsistent
// response shapes into one canonical record.
package notebooks

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// FileAttachment describes a file attached to a notebook. Only metadata is
// kept; the client never stores file bytes.
type FileAttachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Locator  string `json:"locator"`
}

// LinkAttachment describes a link attached to a notebook.
type LinkAttachment struct {
	ID      string    `json:"id"`
	URL     string    `json:"url"`
	Label   string    `json:"label"`
	AddedAt time.Time `json:"addedAt"`
}

// NotebookRecord is the canonical notebook shape. Every remote response is
// normalized into it before anything else sees the data.
type NotebookRecord struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Content       string           `json:"content"`
	Tags          []string         `json:"tags,omitempty"`
	AttachedFiles []FileAttachment `json:"attachedFiles,omitempty"`
	AttachedLinks []LinkAttachment `json:"attachedLinks,omitempty"`
	Order         int              `json:"order"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	OwnerID       string           `json:"ownerId,omitempty"`
}

// Patch is a partial update. Nil fields are left unchanged; slice fields
// replace the whole slice when non-nil.
type Patch struct {
	Title   *string
	Content *string
	Tags    []string
	Files   []FileAttachment
	Links   []LinkAttachment
}

func (p Patch) apply(r *NotebookRecord, now time.Time) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Content != nil {
		r.Content = *p.Content
	}
	if p.Tags != nil {
		r.Tags = normalizeTags(p.Tags)
	}
	if p.Files != nil {
		r.AttachedFiles = p.Files
	}
	if p.Links != nil {
		r.AttachedLinks = p.Links
	}
	r.UpdatedAt = now
	if r.UpdatedAt.Before(r.CreatedAt) {
		r.UpdatedAt = r.CreatedAt
	}
}

// SortRecords orders records for display: by Order, ties broken by ID so the
// result is deterministic.
func SortRecords(records []NotebookRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Order != records[j].Order {
			return records[i].Order < records[j].Order
		}
		return records[i].ID < records[j].ID
	})
}

// fieldSynonyms maps each canonical field to the source field names seen in
// the wild: one backend emits PascalCase, another camelCase, older payloads
// use legacy names. First match wins.
var fieldSynonyms = map[string][]string{
	"id":        {"NotebookId", "id", "notebookId", "uuid"},
	"title":     {"title", "Title", "name"},
	"content":   {"content", "Content", "body"},
	"tags":      {"tags", "Tags", "labels"},
	"files":     {"attachedFiles", "files", "Files", "attachments"},
	"links":     {"attachedLinks", "links", "Links"},
	"order":     {"order", "Order", "sequence"},
	"createdAt": {"createdAt", "CreatedAt", "created_date", "tsCreated"},
	"updatedAt": {"updatedAt", "UpdatedAt", "updated_date", "tsUpdated"},
	"owner":     {"ownerId", "OwnerId", "userId", "UserId"},
}

// listWrappers are the envelope keys the API wraps collections in,
// depending on which backend answered.
var listWrappers = []string{"Items", "items", "notebooks", "data"}

// NormalizeList folds any known response shape (bare array, wrapped array,
// bare single object) into a slice of canonical records.
func NormalizeList(data []byte) ([]NotebookRecord, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	items, err := unwrapItems(payload)
	if err != nil {
		return nil, err
	}

	records := make([]NotebookRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected item type %T in response", item)
		}
		records = append(records, normalizeItem(obj))
	}
	return records, nil
}

// NormalizeOne returns the first record of the normalized response.
func NormalizeOne(data []byte) (*NotebookRecord, error) {
	records, err := NormalizeList(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

func unwrapItems(payload any) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range listWrappers {
			if inner, ok := v[key].([]any); ok {
				return inner, nil
			}
		}
		// bare single object
		return []any{v}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected response shape %T", payload)
	}
}

func normalizeItem(item map[string]any) NotebookRecord {
	r := NotebookRecord{
		ID:      pickString(item, "id"),
		Title:   pickString(item, "title"),
		Content: pickString(item, "content"),
		Order:   pickInt(item, "order"),
		OwnerID: pickString(item, "owner"),
	}

	r.Tags = normalizeTags(pickStrings(item, "tags"))
	r.CreatedAt = pickTime(item, "createdAt")
	r.UpdatedAt = pickTime(item, "updatedAt")
	if r.UpdatedAt.Before(r.CreatedAt) {
		r.UpdatedAt = r.CreatedAt
	}

	if raw, ok := pick(item, "files"); ok {
		_ = remarshal(raw, &r.AttachedFiles)
	}
	if raw, ok := pick(item, "links"); ok {
		_ = remarshal(raw, &r.AttachedLinks)
	}

	return r
}

func pick(item map[string]any, field string) (any, bool) {
	for _, name := range fieldSynonyms[field] {
		if v, ok := item[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func pickString(item map[string]any, field string) string {
	v, ok := pick(item, field)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func pickInt(item map[string]any, field string) int {
	v, ok := pick(item, field)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func pickStrings(item map[string]any, field string) []string {
	v, ok := pick(item, field)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func pickTime(item map[string]any, field string) time.Time {
	v, ok := pick(item, field)
	if !ok {
		return time.Time{}
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// remarshal converts a loosely typed sub-document into a concrete type by
// round-tripping through JSON. Attachment fields tolerate unknown keys.
func remarshal(raw any, target any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}

// normalizeTags enforces set semantics: deduplicated, sorted, no empties.
func normalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
