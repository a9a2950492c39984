package cart

import (
	"context"
	"sync"
)

// Store is the durable key-value slot a cart document is written to. The
// document is always read and written as a whole.
type Store interface {
	// Load returns the document saved under key, or ErrSlotEmpty.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the document saved under key.
	Save(ctx context.Context, key string, doc []byte) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.slots[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, key string, doc []byte) error {
	stored := make([]byte, len(doc))
	copy(stored, doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = stored
	return nil
}
