package verification

import (
	"context"
	"sync"
	"time"
)

// Entry is a pending code for one phone number.
type Entry struct {
	Hash      []byte
	Attempts  int
	CreatedAt time.Time
}

// CodeStore keeps pending codes until they expire or are consumed.
// Load returns (nil, nil) for unknown or expired phones.
type CodeStore interface {
	Save(ctx context.Context, phone string, entry Entry, ttl time.Duration) error
	Load(ctx context.Context, phone string) (*Entry, error)
	IncrementAttempts(ctx context.Context, phone string) (int, error)
	Delete(ctx context.Context, phone string) error
}

type memoryEntry struct {
	Entry
	expiresAt time.Time
}

// MemoryStore is a process-local CodeStore for single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, phone string, entry Entry, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[phone] = memoryEntry{Entry: entry, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, phone string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.liveLocked(phone)
	if !ok {
		return nil, nil
	}
	out := e.Entry
	out.Hash = append([]byte(nil), e.Hash...)
	return &out, nil
}

func (m *MemoryStore) IncrementAttempts(_ context.Context, phone string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.liveLocked(phone)
	if !ok {
		return 0, nil
	}
	e.Attempts++
	m.entries[phone] = e
	return e.Attempts, nil
}

func (m *MemoryStore) Delete(_ context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, phone)
	return nil
}

func (m *MemoryStore) liveLocked(phone string) (memoryEntry, bool) {
	e, ok := m.entries[phone]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, phone)
		return memoryEntry{}, false
	}
	return e, true
}
