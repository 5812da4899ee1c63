package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryItem struct {
	state   State
	expires time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*memoryItem
	ttl   time.Duration
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{items: make(map[string]*memoryItem), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, username string) (*State, error) {
	now := m.now()
	st := State{ID: uuid.NewString(), Username: username, CreatedAt: now, UpdatedAt: now}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[st.ID] = &memoryItem{state: st, expires: now.Add(m.ttl)}
	out := st.Clone()
	return &out, nil
}

// live returns the unexpired item for id, refreshing its TTL. Callers hold mu.
func (m *MemoryStore) live(id string) (*memoryItem, bool) {
	it, ok := m.items[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if !now.Before(it.expires) {
		delete(m.items, id)
		return nil, false
	}
	it.expires = now.Add(m.ttl)
	return it, true
}

func (m *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	out := it.state.Clone()
	return &out, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*State)) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	st := it.state.Clone()
	fn(&st)
	st.ID = id
	st.UpdatedAt = m.now()
	it.state = st.Clone()
	return &st, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.items {
		if it.state.Username == username {
			delete(m.items, id)
		}
	}
	return nil
}

// Sweep removes expired sessions. The server runs it periodically.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, it := range m.items {
		if !now.Before(it.expires) {
			delete(m.items, id)
			removed++
		}
	}
	return removed
}
