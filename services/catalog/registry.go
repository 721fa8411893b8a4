package catalog

import (
	"errors"
	"sync"
)

var (
	// ErrEntryAlreadyRegistered is returned when registering a duplicate service name
	ErrEntryAlreadyRegistered = errors.New("service already registered")

	// ErrInvalidEntry is returned when an entry is missing required fields
	ErrInvalidEntry = errors.New("invalid catalog entry")
)

// Registry is an in-memory service catalog. Registration order is preserved
// because the fallback ranker uses it as a deterministic tie-break.
// Reads vastly outnumber writes: dispatches read a snapshot, refresh replaces
// the whole set atomically.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// NewRegistry creates an empty catalog registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds a service entry to the catalog
func (r *Registry) Register(entry Entry) error {
	if entry.Name == "" || entry.Endpoint == "" {
		return ErrInvalidEntry
	}
	if !entry.Transport.Valid() {
		return ErrInvalidEntry
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.Name]; exists {
		return ErrEntryAlreadyRegistered
	}

	r.entries[entry.Name] = entry
	r.order = append(r.order, entry.Name)
	return nil
}

// ReplaceAll swaps the full entry set in one step, preserving the order of
// the given slice. Used by the periodic catalog refresh so concurrent
// dispatches never observe a half-applied update.
func (r *Registry) ReplaceAll(entries []Entry) error {
	next := make(map[string]Entry, len(entries))
	order := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.Name == "" || entry.Endpoint == "" || !entry.Transport.Valid() {
			return ErrInvalidEntry
		}
		if _, dup := next[entry.Name]; dup {
			return ErrEntryAlreadyRegistered
		}
		next[entry.Name] = entry
		order = append(order, entry.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = next
	r.order = order
	return nil
}

// Lookup returns the entry for a service name
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	return entry, ok
}

// ListAll returns every entry in registration order
func (r *Registry) ListAll() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, r.entries[name])
	}
	return entries
}

// Count returns the number of registered services
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Snapshot returns an immutable point-in-time copy of the catalog. One
// dispatch works against one snapshot for its whole lifetime.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{entries: r.ListAll()}
}

// Snapshot is a frozen catalog view handed to a single dispatch
type Snapshot struct {
	entries []Entry
}

// NewSnapshot builds a snapshot directly from entries, mainly for tests
func NewSnapshot(entries []Entry) Snapshot {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return Snapshot{entries: copied}
}

// Lookup returns the entry for a service name
func (s Snapshot) Lookup(name string) (Entry, bool) {
	for _, entry := range s.entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}

// ListAll returns every entry in registration order
func (s Snapshot) ListAll() []Entry {
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Len returns the number of entries in the snapshot
func (s Snapshot) Len() int {
	return len(s.entries)
}
