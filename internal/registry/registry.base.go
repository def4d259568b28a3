// Package registry provides a thread-safe generic registry for singleton
// instances (Mongo collections, databases) shared across the application.
package registry

import (
	"fmt"
	"sync"

	"caisseflow/internal/common"
)

// Registry stores items of type T keyed by name. Safe for concurrent use.
type Registry[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

// NewRegistry returns an initialized registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Register stores item under name, overwriting any previous entry.
// Returns whether the name was new.
func (r *Registry[T]) Register(name string, item T) (isNew bool, err error) {
	if name == "" {
		return false, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.items[name]
	r.items[name] = item
	return !exists, nil
}

// Get returns the item registered under name, if any.
func (r *Registry[T]) Get(name string) (item T, exists bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, exists = r.items[name]
	return item, exists
}

// GetOrCreate returns the existing item or creates it through creator while
// holding the lock, so concurrent callers observe a single instance.
func (r *Registry[T]) GetOrCreate(name string, creator func() (T, error)) (item T, err error) {
	if name == "" {
		return item, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, exists := r.items[name]; exists {
		return existing, nil
	}
	created, err := creator()
	if err != nil {
		return item, fmt.Errorf("failed to create item: %w", err)
	}
	r.items[name] = created
	return created, nil
}

// Clear removes an item, running cleanup first when provided.
func (r *Registry[T]) Clear(name string, cleanup func(T) error) (deleted bool, err error) {
	if name == "" {
		return false, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, exists := r.items[name]
	if !exists {
		return false, nil
	}
	if cleanup != nil {
		if err := cleanup(item); err != nil {
			return false, fmt.Errorf("failed to cleanup item %s: %w", name, err)
		}
	}
	delete(r.items, name)
	return true, nil
}
