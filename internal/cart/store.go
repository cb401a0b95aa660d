package cart

import (
	"context"
	"sync"
)

// SchemaVersion is bumped whenever the persisted cart shape changes. The raw
// JSON is an implementation detail, not a contract; a version mismatch on load
// simply discards the stale cart.
const SchemaVersion = 1

type persisted struct {
	Version int    `json:"version"`
	Items   []Item `json:"items"`
}

// Store persists one cart per browsing session. Implementations must make the
// last write win: there is only ever one writer per session.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps carts in process memory. Used in tests and local runs
// without Redis.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]Item)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.carts[sessionID]
	if !ok {
		return New(), nil
	}
	return New(items...), nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = c.Items()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
