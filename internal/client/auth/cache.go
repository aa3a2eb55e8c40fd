package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YaniYesh22/snot/internal/client/storage"
)

// IdentityCache persists the last known identity (email, display name) in
// the durable store so the UI can greet the user before the provider
// responds. It never holds tokens. The cache survives restarts but is wiped
// by the session-boundary logout.
type IdentityCache struct {
	store storage.Port
}

func NewIdentityCache(store storage.Port) *IdentityCache {
	return &IdentityCache{store: store}
}

// Load returns the cached identity, or (nil, nil) when none is stored.
func (c *IdentityCache) Load(ctx context.Context) (*Identity, error) {
	data, err := c.store.Get(ctx, storage.KeyIdentity)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity cache: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("failed to decode identity cache: %w", err)
	}
	return &id, nil
}

func (c *IdentityCache) Save(ctx context.Context, id Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := c.store.Set(ctx, storage.KeyIdentity, data); err != nil {
		return fmt.Errorf("failed to write identity cache: %w", err)
	}
	return nil
}

func (c *IdentityCache) Clear(ctx context.Context) error {
	return c.store.Remove(ctx, storage.KeyIdentity)
}
