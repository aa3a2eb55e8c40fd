package notebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YaniYesh22/snot/internal/client/storage"
)

// Mirror persists the last known notebook set per owner in the durable
// store. It is a recovery cache, never the source of truth: every
// successful remote read overwrites it wholesale.
type Mirror struct {
	store storage.Port
	now   func() time.Time
}

func NewMirror(store storage.Port) *Mirror {
	return &Mirror{store: store, now: time.Now}
}

// Load returns the mirrored records for an owner, or nil when no mirror
// has been written yet.
func (m *Mirror) Load(ctx context.Context, ownerID string) ([]NotebookRecord, error) {
	data, err := m.store.Get(ctx, storage.MirrorKey(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var records []NotebookRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode mirror: %w", err)
	}
	return records, nil
}

// Save replaces the mirror for an owner. When the store supports atomic
// replacement both the snapshot and its write stamp land together.
func (m *Mirror) Save(ctx context.Context, ownerID string, records []NotebookRecord) error {
	if records == nil {
		records = []NotebookRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode mirror: %w", err)
	}
	stamp := []byte(m.now().UTC().Format(time.RFC3339))

	if r, ok := m.store.(storage.Replacer); ok {
		return r.Replace(ctx, map[string][]byte{
			storage.MirrorKey(ownerID):        data,
			storage.MirrorSavedAtKey(ownerID): stamp,
		})
	}
	if err := m.store.Set(ctx, storage.MirrorKey(ownerID), data); err != nil {
		return fmt.Errorf("failed to write mirror: %w", err)
	}
	return m.store.Set(ctx, storage.MirrorSavedAtKey(ownerID), stamp)
}
