package realtime

import "sync"

// keyedMutex serializes work per group id. Membership updates are
// load-mutate-save sequences; interleaving them across connections would lose
// updates.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int]*lockEntry)}
}

// Lock acquires the mutex for the key, creating it on first use.
func (k *keyedMutex) Lock(key int) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the key's mutex and frees it once nobody waits.
func (k *keyedMutex) Unlock(key int) {
	k.mu.Lock()
	entry := k.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
