// Package locks provides keyed mutual exclusion for serializing work on a
// single entity while leaving unrelated entities fully concurrent.
package locks

import "sync"

// KeyedMutex serializes callers that share a key. Entries are reference
// counted and removed once the last holder releases, so the map does not
// grow with the total number of keys ever locked.
type KeyedMutex[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{
		entries: make(map[K]*entry),
	}
}

// Lock blocks until the lock for key is held and returns the unlock function.
func (k *KeyedMutex[K]) Lock(key K) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
