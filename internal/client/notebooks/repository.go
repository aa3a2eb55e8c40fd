package notebooks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YaniYesh22/snot/internal/logging"
)

// localIDPrefix marks records created while the remote API was down. They
// live only in the mirror until a later sync replays them.
const localIDPrefix = "local-"

// IsLocalID reports whether an id was minted locally and is not yet known
// to the remote API.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// OwnerSource resolves the id of the currently signed-in owner. It fails
// when nobody is signed in.
type OwnerSource func(ctx context.Context) (string, error)

// Repository is the single data access surface for notebooks. All methods
// are optimistic: local state moves first, the remote write follows, and a
// failed remote write surfaces as a warning wrapped in ErrRemoteUnavailable
// next to a usable record rather than as a hard failure.
type Repository interface {
	// List returns the owner's notebooks sorted for display. degraded is
	// true when the records came from the local mirror instead of the API.
	List(ctx context.Context) (records []NotebookRecord, degraded bool, err error)
	Create(ctx context.Context, title, content string, tags []string) (*NotebookRecord, error)
	Get(ctx context.Context, id string) (*NotebookRecord, error)
	Update(ctx context.Context, id string, patch Patch) (*NotebookRecord, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, orderedIDs []string) error
	// SyncPending replays notebooks created while the remote was down.
	// Each success swaps the local id for the server-minted one in place.
	SyncPending(ctx context.Context) error
}

type repository struct {
	remote Remote
	mirror *Mirror
	owner  OwnerSource
	log    logging.Logger

	now   func() time.Time
	newID func() string
}

func NewRepository(remote Remote, mirror *Mirror, owner OwnerSource, log logging.Logger) Repository {
	return &repository{
		remote: remote,
		mirror: mirror,
		owner:  owner,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (r *repository) List(ctx context.Context) ([]NotebookRecord, bool, error) {
	ownerID, err := r.owner(ctx)
	if err != nil {
		return nil, false, err
	}

	records, err := r.remote.List(ctx, ownerID)
	if err == nil {
		SortRecords(records)
		if err := r.mirror.Save(ctx, ownerID, records); err != nil {
			r.log.Warn(ctx, "failed to refresh notebook mirror", "error", err)
		}
		return records, false, nil
	}

	r.log.Warn(ctx, "notebook list failed, serving mirror", "error", err)
	mirrored, mirrorErr := r.mirror.Load(ctx, ownerID)
	if mirrorErr != nil {
		r.log.Warn(ctx, "notebook mirror unreadable", "error", mirrorErr)
		return []NotebookRecord{}, true, nil
	}
	if mirrored == nil {
		mirrored = []NotebookRecord{}
	}
	SortRecords(mirrored)
	return mirrored, true, nil
}

func (r *repository) Create(ctx context.Context, title, content string, tags []string) (*NotebookRecord, error) {
	ownerID, err := r.owner(ctx)
	if err != nil {
		return nil, err
	}

	existing, _, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	record := NotebookRecord{
		Title:     title,
		Content:   content,
		Tags:      normalizeTags(tags),
		Order:     nextOrder(existing),
		CreatedAt: now,
		UpdatedAt: now,
		OwnerID:   ownerID,
	}

	created, remoteErr := r.remote.Create(ctx, record)
	if remoteErr == nil {
		record = mergeServerRecord(record, *created)
		r.saveMirror(ctx, ownerID, append(existing, record))
		return &record, nil
	}

	// Remote is down: mint a local id and park the record in the mirror.
	// The record is fully usable; the caller relays the warning.
	record.ID = localIDPrefix + r.newID()
	r.saveMirror(ctx, ownerID, append(existing, record))
	return &record, fmt.Errorf("%w: notebook saved locally only: %v", ErrRemoteUnavailable, remoteErr)
}

func (r *repository) Get(ctx context.Context, id string) (*NotebookRecord, error) {
	ownerID, err := r.owner(ctx)
	if err != nil {
		return nil, err
	}

	if !IsLocalID(id) {
		record, remoteErr := r.remote.Get(ctx, ownerID, id)
		if remoteErr == nil {
			return record, nil
		}
		if errors.Is(remoteErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		r.log.Warn(ctx, "notebook get failed, trying mirror", "id", id, "error", remoteErr)
	}

	mirrored, mirrorErr := r.mirror.Load(ctx, ownerID)
	if mirrorErr != nil {
		return nil, fmt.Errorf("failed to load mirror: %w", mirrorErr)
	}
	for i := range mirrored {
		if mirrored[i].ID == id {
			return &mirrored[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *repository) Update(ctx context.Context, id string, patch Patch) (*NotebookRecord, error) {
	ownerID, err := r.owner(ctx)
	if err != nil {
		return nil, err
	}

	record, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *record
	patch.apply(&updated, r.now())

	// Local state moves first so the caller sees the change immediately.
	r.replaceInMirror(ctx, ownerID, updated)

	if IsLocalID(id) {
		return &updated, fmt.Errorf("%w: notebook not yet on server", ErrRemoteUnavailable)
	}

	confirmed, remoteErr := r.remote.Update(ctx, updated)
	if remoteErr != nil {
		return &updated, fmt.Errorf("%w: update saved locally only: %v", ErrRemoteUnavailable, remoteErr)
	}
	merged := mergeServerRecord(updated, *confirmed)
	r.replaceInMirror(ctx, ownerID, merged)
	return &merged, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	ownerID, err := r.owner(ctx)
	if err != nil {
		return err
	}

	mirrored, mirrorErr := r.mirror.Load(ctx, ownerID)
	if mirrorErr != nil {
		r.log.Warn(ctx, "failed to load mirror before delete", "error", mirrorErr)
	}
	kept := make([]NotebookRecord, 0, len(mirrored))
	for _, rec := range mirrored {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	SortRecords(kept)
	compactOrders(kept)
	r.saveMirror(ctx, ownerID, kept)

	if IsLocalID(id) {
		return nil
	}
	if remoteErr := r.remote.Delete(ctx, ownerID, id); remoteErr != nil && !errors.Is(remoteErr, ErrNotFound) {
		// The record is already gone locally; surfacing the failure would
		// only invite a retry against a row the next refresh removes anyway.
		r.log.Error(ctx, "remote delete failed", "id", id, "error", remoteErr)
	}
	return nil
}

func (r *repository) Reorder(ctx context.Context, orderedIDs []string) error {
	ownerID, err := r.owner(ctx)
	if err != nil {
		return err
	}

	mirrored, mirrorErr := r.mirror.Load(ctx, ownerID)
	if mirrorErr != nil {
		return fmt.Errorf("failed to load mirror: %w", mirrorErr)
	}

	byID := make(map[string]*NotebookRecord, len(mirrored))
	for i := range mirrored {
		byID[mirrored[i].ID] = &mirrored[i]
	}

	reordered := make([]NotebookRecord, 0, len(mirrored))
	seen := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if rec, ok := byID[id]; ok {
			reordered = append(reordered, *rec)
			seen[id] = struct{}{}
		}
	}
	// Records missing from the sequence keep their relative order at the end.
	for _, rec := range mirrored {
		if _, ok := seen[rec.ID]; !ok {
			reordered = append(reordered, rec)
		}
	}

	changed := make([]NotebookRecord, 0, len(reordered))
	for i := range reordered {
		if reordered[i].Order != i {
			reordered[i].Order = i
			changed = append(changed, reordered[i])
		}
	}
	r.saveMirror(ctx, ownerID, reordered)

	for _, rec := range changed {
		if IsLocalID(rec.ID) {
			continue
		}
		if _, remoteErr := r.remote.Update(ctx, rec); remoteErr != nil {
			r.log.Warn(ctx, "remote reorder write failed", "id", rec.ID, "error", remoteErr)
		}
	}
	return nil
}

func (r *repository) SyncPending(ctx context.Context) error {
	ownerID, err := r.owner(ctx)
	if err != nil {
		return err
	}

	mirrored, mirrorErr := r.mirror.Load(ctx, ownerID)
	if mirrorErr != nil {
		return fmt.Errorf("failed to load mirror: %w", mirrorErr)
	}

	var firstErr error
	changed := false
	for i := range mirrored {
		if !IsLocalID(mirrored[i].ID) {
			continue
		}
		created, remoteErr := r.remote.Create(ctx, mirrored[i])
		if remoteErr != nil {
			if firstErr == nil {
				firstErr = remoteErr
			}
			continue
		}
		mirrored[i] = mergeServerRecord(mirrored[i], *created)
		r.log.Info(ctx, "replayed pending notebook", "id", mirrored[i].ID)
		changed = true
	}
	if changed {
		r.saveMirror(ctx, ownerID, mirrored)
	}
	if firstErr != nil {
		return fmt.Errorf("%w: pending notebooks not yet replayed: %v", ErrRemoteUnavailable, firstErr)
	}
	return nil
}

func (r *repository) saveMirror(ctx context.Context, ownerID string, records []NotebookRecord) {
	SortRecords(records)
	if err := r.mirror.Save(ctx, ownerID, records); err != nil {
		r.log.Warn(ctx, "failed to update notebook mirror", "error", err)
	}
}

func (r *repository) replaceInMirror(ctx context.Context, ownerID string, record NotebookRecord) {
	mirrored, err := r.mirror.Load(ctx, ownerID)
	if err != nil {
		r.log.Warn(ctx, "failed to load mirror for replace", "error", err)
		return
	}
	replaced := false
	for i := range mirrored {
		if mirrored[i].ID == record.ID {
			mirrored[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		mirrored = append(mirrored, record)
	}
	r.saveMirror(ctx, ownerID, mirrored)
}

// mergeServerRecord takes the server's answer but keeps the optimistic
// values for fields some backends drop from write responses.
func mergeServerRecord(local, server NotebookRecord) NotebookRecord {
	out := server
	if out.ID == "" {
		out.ID = local.ID
	}
	if out.Title == "" {
		out.Title = local.Title
	}
	if out.Content == "" {
		out.Content = local.Content
	}
	if out.Tags == nil {
		out.Tags = local.Tags
	}
	if out.AttachedFiles == nil {
		out.AttachedFiles = local.AttachedFiles
	}
	if out.AttachedLinks == nil {
		out.AttachedLinks = local.AttachedLinks
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = local.CreatedAt
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = local.UpdatedAt
	}
	if out.OwnerID == "" {
		out.OwnerID = local.OwnerID
	}
	if out.Order == 0 && local.Order != 0 {
		out.Order = local.Order
	}
	return out
}

func nextOrder(records []NotebookRecord) int {
	max := -1
	for _, rec := range records {
		if rec.Order > max {
			max = rec.Order
		}
	}
	return max + 1
}

// compactOrders rewrites orders to the dense sequence 0..n-1 in place.
// Records must already be sorted.
func compactOrders(records []NotebookRecord) {
	for i := range records {
		records[i].Order = i
	}
}
