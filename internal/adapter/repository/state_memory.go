package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/hvirta/sanatreeni/internal/entity"
)

// MemoryStateRepository keeps blobs in process memory. Used by tests and by
// the memory storage driver.
type MemoryStateRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStateRepository returns an empty in-memory blob store.
func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{blobs: map[string][]byte{}}
}

func (r *MemoryStateRepository) Load(_ context.Context, name string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	content, ok := r.blobs[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, entity.ErrBlobNotFound)
	}
	copied := make([]byte, len(content))
	copy(copied, content)
	return copied, nil
}

func (r *MemoryStateRepository) Save(_ context.Context, name string, content []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make([]byte, len(content))
	copy(copied, content)
	r.blobs[name] = copied
	return nil
}
