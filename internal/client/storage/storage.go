// Package storage defines the key-value ports behind which all client-side
// persistence lives: the durable store (identity cache, notebook mirror) and
// the session-scoped store (fresh-session marker, post-login grace flag).
// Business logic never touches files or databases directly, only a Port.
package storage

import (
	"context"
	"sync"
)

// Port is a minimal key-value store. Get returns (nil, nil) for absent keys:
// absence is an expected outcome, not an error.
type Port interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Replacer is an optional upgrade interface. Stores that support it apply a
// set of writes atomically; callers fall back to sequential Sets otherwise.
type Replacer interface {
	Replace(ctx context.Context, pairs map[string][]byte) error
}

// Memory is an in-process Port. It backs the session-scoped keys (its
// lifetime equals the process lifetime, the moral equivalent of browser
// sessionStorage) and doubles as the universal test fake.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
