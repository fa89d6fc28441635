package state

import "sync"

// KV is the injected key-value store the form persists drafts into. It
// mirrors the localStorage surface of the original front end so tests can
// swap in an in-memory map.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// MemoryKV is a map-backed KV safe for concurrent use.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get returns the stored value for key.
func (m *MemoryKV) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok
}

// Set stores value under key, replacing any previous value. Last write wins;
// there is no merge, matching the multi-tab contract.
func (m *MemoryKV) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Remove deletes key if present.
func (m *MemoryKV) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}
