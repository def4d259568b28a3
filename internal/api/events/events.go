package events

import (
	"context"
	"sync"

	"caisseflow/internal/logger"
)

// Operation describes what happened to a document.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpUpsert Operation = "upsert"
	OpDelete Operation = "delete"
)

// DataChangeEvent is emitted whenever a persisted document changes.
type DataChangeEvent struct {
	CollectionName string
	Operation      Operation
	Document       interface{}
}

// Listener receives data change events. The bus fires each listener on
// its own goroutine, so listeners may block without stalling writes.
type Listener func(ctx context.Context, event DataChangeEvent)

var (
	mu        sync.RWMutex
	listeners = make(map[string][]Listener)
)

// Subscribe registers a listener for a collection. An empty collection
// name subscribes to every collection.
func Subscribe(collectionName string, fn Listener) {
	mu.Lock()
	defer mu.Unlock()
	listeners[collectionName] = append(listeners[collectionName], fn)
}

// EmitDataChanged fires the event to all listeners of the collection
// plus the wildcard listeners. Panics in listeners are contained.
func EmitDataChanged(ctx context.Context, event DataChangeEvent) {
	mu.RLock()
	targets := make([]Listener, 0, len(listeners[event.CollectionName])+len(listeners[""]))
	targets = append(targets, listeners[event.CollectionName]...)
	targets = append(targets, listeners[""]...)
	mu.RUnlock()

	for _, fn := range targets {
		go func(fn Listener) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithModule("events").Errorf("listener panic on %s/%s: %v",
						event.CollectionName, event.Operation, r)
				}
			}()
			fn(context.WithoutCancel(ctx), event)
		}(fn)
	}
}

// Reset drops all listeners. Test helper.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	listeners = make(map[string][]Listener)
}
