package session

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() Store {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[DefaultName]
	return value, ok && value != ""
}

func (s *memoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[DefaultName] = token
	return nil
}

func (s *memoryStore) Clear(_ context.Context, name string, _ ClearOptions) error {
	if name == "" {
		name = DefaultName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}

type (
	memoryEntry struct {
		token     string
		expiresAt time.Time
	}
	memoryRegistry struct {
		mu      sync.Mutex
		entries map[string]memoryEntry
		now     func() time.Time
	}
	// registryStore is a handle on one sid. It holds nothing itself, so opening a
	// session that is never written costs no memory.
	registryStore struct {
		registry *memoryRegistry
		sid      string
	}
)

// MemoryRegistry keeps mirrors in process memory. A sid has an entry only while a token
// is stored for it; Clear and lapsed expiries evict it.
func MemoryRegistry() Registry {
	return &memoryRegistry{entries: map[string]memoryEntry{}, now: time.Now}
}

func (r *memoryRegistry) Open(sid string) Store {
	return &registryStore{registry: r, sid: sid}
}

func (r *memoryRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *memoryRegistry) get(sid string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[sid]
	if !ok {
		return "", false
	}
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		delete(r.entries, sid)
		return "", false
	}
	return entry.token, entry.token != ""
}

func (r *memoryRegistry) put(sid, token string, ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token == "" {
		delete(r.entries, sid)
		return
	}
	entry := memoryEntry{token: token}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.entries[sid] = entry
	r.sweep()
}

// sweep drops lapsed entries. Callers hold mu.
func (r *memoryRegistry) sweep() {
	now := r.now()
	for sid, entry := range r.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(r.entries, sid)
		}
	}
}

func (r *memoryRegistry) remove(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sid)
}

func (s *registryStore) Get(_ context.Context) (string, bool) {
	return s.registry.get(s.sid)
}

func (s *registryStore) Set(_ context.Context, token string) error {
	s.registry.put(s.sid, token, 0)
	return nil
}

func (s *registryStore) SetFor(_ context.Context, token string, ttl time.Duration) error {
	s.registry.put(s.sid, token, ttl)
	return nil
}

func (s *registryStore) Clear(_ context.Context, name string, _ ClearOptions) error {
	if name != "" && name != DefaultName {
		return nil
	}
	s.registry.remove(s.sid)
	return nil
}
