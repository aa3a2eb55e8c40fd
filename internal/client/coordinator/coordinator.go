// Package coordinator keeps the in-memory notebook list the UI renders and
// applies every mutation to it immediately, before the repository confirms
// the write. A delayed reconciliation re-lists from the repository after a
// quiet period so the view converges on the server's answer. Once Close is
// called nothing touches the list again.
package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/YaniYesh22/snot/internal/client/notebooks"
	"github.com/YaniYesh22/snot/internal/logging"
)

// Coordinator serializes all access to the visible notebook state.
type Coordinator struct {
	repo  notebooks.Repository
	log   logging.Logger
	delay time.Duration

	mu        sync.Mutex
	records   []notebooks.NotebookRecord
	failed    map[string]error
	degraded  bool
	filter    string
	closed    bool
	reconcile *time.Timer
}

func New(repo notebooks.Repository, log logging.Logger, reconcileDelay time.Duration) *Coordinator {
	return &Coordinator{
		repo:   repo,
		log:    log,
		delay:  reconcileDelay,
		failed: make(map[string]error),
	}
}

// Load replaces the list with a fresh repository read. Failure marks for
// records that no longer exist are dropped; marks for surviving records
// stay, since a reload may well have reverted the write they flag.
func (c *Coordinator) Load(ctx context.Context) error {
	records, degraded, err := c.repo.List(ctx)
	if err != nil {
		return err
	}
	c.apply(func() {
		c.records = records
		c.degraded = degraded
		present := make(map[string]bool, len(records))
		for _, rec := range records {
			present[rec.ID] = true
		}
		for id := range c.failed {
			if !present[id] {
				delete(c.failed, id)
			}
		}
	})
	return nil
}

// Refresh replays pending offline creates first, then reloads. A remote
// still being down is not a refresh failure; the degraded flag carries it.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if err := c.repo.SyncPending(ctx); err != nil {
		if !errors.Is(err, notebooks.ErrRemoteUnavailable) {
			return err
		}
		c.log.Warn(ctx, "pending notebooks still unsynced", "error", err)
	}
	return c.Load(ctx)
}

// SetFilter narrows the visible records to those matching the query.
func (c *Coordinator) SetFilter(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = strings.TrimSpace(query)
}

func (c *Coordinator) Filter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// View returns the filtered records in display order plus the degraded flag.
func (c *Coordinator) View() ([]notebooks.NotebookRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notebooks.NotebookRecord, 0, len(c.records))
	for _, rec := range c.records {
		if c.matches(rec) {
			out = append(out, rec)
		}
	}
	return out, c.degraded
}

// Get returns a record from the in-memory list.
func (c *Coordinator) Get(id string) (*notebooks.NotebookRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.records {
		if c.records[i].ID == id {
			rec := c.records[i]
			return &rec, true
		}
	}
	return nil, false
}

// FailedOps reports the records whose last create or update did not reach
// the server, keyed by record id. A mark stays until the write succeeds on
// retry, the record is deleted, or a reload no longer returns the record.
func (c *Coordinator) FailedOps() map[string]error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]error, len(c.failed))
	for id, err := range c.failed {
		out[id] = err
	}
	return out
}

// Create adds the notebook to the visible list immediately. The returned
// error, when it wraps notebooks.ErrRemoteUnavailable, is a warning next to
// a usable record, not a failure; the record is marked in FailedOps so the
// caller can offer a retry.
func (c *Coordinator) Create(ctx context.Context, title, content string, tags []string) (*notebooks.NotebookRecord, error) {
	record, err := c.repo.Create(ctx, title, content, tags)
	if err != nil && !errors.Is(err, notebooks.ErrRemoteUnavailable) {
		return nil, err
	}
	c.apply(func() {
		c.records = append(c.records, *record)
		notebooks.SortRecords(c.records)
		if err != nil {
			c.failed[record.ID] = err
		} else {
			delete(c.failed, record.ID)
		}
	})
	c.scheduleReconcile()
	return record, err
}

// Update patches the record in place. Same warning contract as Create.
func (c *Coordinator) Update(ctx context.Context, id string, patch notebooks.Patch) (*notebooks.NotebookRecord, error) {
	record, err := c.repo.Update(ctx, id, patch)
	if err != nil && !errors.Is(err, notebooks.ErrRemoteUnavailable) {
		return nil, err
	}
	c.apply(func() {
		for i := range c.records {
			if c.records[i].ID == id {
				c.records[i] = *record
				break
			}
		}
		if err != nil {
			c.failed[id] = err
		} else {
			delete(c.failed, id)
		}
	})
	c.scheduleReconcile()
	return record, err
}

// Delete removes the record from the visible list immediately and never
// rolls the removal back, whatever the remote does.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.apply(func() {
		kept := c.records[:0]
		for _, rec := range c.records {
			if rec.ID != id {
				kept = append(kept, rec)
			}
		}
		c.records = kept
		for i := range c.records {
			c.records[i].Order = i
		}
		delete(c.failed, id)
	})
	c.scheduleReconcile()
	return nil
}

// DragReorder moves the dragged record to the drop target's position in the
// currently visible list and reorders the whole set accordingly. Records
// hidden by the filter keep their slots, so their relative order survives.
// An unknown id, or dropping a record onto itself, is a no-op.
func (c *Coordinator) DragReorder(ctx context.Context, draggedID, dropTargetID string) error {
	orderedIDs, moved := c.moveRecord(draggedID, dropTargetID)
	if !moved {
		return nil
	}
	if err := c.repo.Reorder(ctx, orderedIDs); err != nil {
		return err
	}
	c.scheduleReconcile()
	return nil
}

// moveRecord splices the dragged record out of the visible sequence,
// reinserts it at the drop target's position, and writes the result back
// over the visible slots of the full list. It returns the new full id
// order, or false when nothing moved.
func (c *Coordinator) moveRecord(draggedID, dropTargetID string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}

	var visible []notebooks.NotebookRecord
	var visibleSlots []int
	for i, rec := range c.records {
		if c.matches(rec) {
			visible = append(visible, rec)
			visibleSlots = append(visibleSlots, i)
		}
	}

	dragIdx, targetIdx := -1, -1
	for i, rec := range visible {
		if rec.ID == draggedID {
			dragIdx = i
		}
		if rec.ID == dropTargetID {
			targetIdx = i
		}
	}
	if dragIdx < 0 || targetIdx < 0 || dragIdx == targetIdx {
		return nil, false
	}

	dragged := visible[dragIdx]
	visible = append(visible[:dragIdx], visible[dragIdx+1:]...)
	if targetIdx > len(visible) {
		targetIdx = len(visible)
	}
	visible = append(visible[:targetIdx], append([]notebooks.NotebookRecord{dragged}, visible[targetIdx:]...)...)

	merged := make([]notebooks.NotebookRecord, len(c.records))
	copy(merged, c.records)
	for i, slot := range visibleSlots {
		merged[slot] = visible[i]
	}

	orderedIDs := make([]string, len(merged))
	for i := range merged {
		merged[i].Order = i
		orderedIDs[i] = merged[i].ID
	}
	c.records = merged
	return orderedIDs, true
}

// Close stops the coordinator. Any in-flight or pending reconciliation
// becomes a no-op; the list never changes after Close returns.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.reconcile != nil {
		c.reconcile.Stop()
		c.reconcile = nil
	}
}

// apply runs a state change under the lock unless the coordinator is closed.
func (c *Coordinator) apply(change func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	change()
}

// scheduleReconcile arms (or re-arms) the delayed re-list that follows every
// mutation. Back-to-back mutations collapse into one reconciliation.
func (c *Coordinator) scheduleReconcile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.delay <= 0 {
		return
	}
	if c.reconcile != nil {
		c.reconcile.Stop()
	}
	c.reconcile = time.AfterFunc(c.delay, c.runReconcile)
}

func (c *Coordinator) runReconcile() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.Load(ctx); err != nil {
		c.log.Warn(ctx, "reconciliation reload failed", "error", err)
	}
}

// matches is called with c.mu held.
func (c *Coordinator) matches(rec notebooks.NotebookRecord) bool {
	if c.filter == "" {
		return true
	}
	q := strings.ToLower(c.filter)
	if strings.Contains(strings.ToLower(rec.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(rec.Content), q) {
		return true
	}
	for _, tag := range rec.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
