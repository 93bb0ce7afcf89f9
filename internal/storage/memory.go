package storage

import (
	"context"
	"sync"
	"time"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
)

// MemoryStore is the Store used when no Redis address is configured.
// Alerts have no subscribers and are dropped.
type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string]memorySession
	history    []models.VerdictEntry
	counts     map[string]int64
	sessionTTL time.Duration
	now        func() time.Time
}

type memorySession struct {
	session   models.Session
	expiresAt time.Time
}

func NewMemoryStore(sessionTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]memorySession),
		counts:     make(map[string]int64),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (m *MemoryStore) SaveSession(_ context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memorySession{session: session}
	if m.sessionTTL > 0 {
		entry.expiresAt = m.now().Add(m.sessionTTL)
	}
	m.sessions[session.ID] = entry
	return nil
}

func (m *MemoryStore) LoadSession(_ context.Context, id string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.sessions, id)
		return models.Session{}, ErrSessionNotFound
	}
	return entry.session, nil
}

func (m *MemoryStore) RecordVerdict(_ context.Context, entry models.VerdictEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, entry)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.counts[entry.Label]++
	return nil
}

func (m *MemoryStore) RecentVerdicts(_ context.Context, limit int) ([]models.VerdictEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit > len(m.history) {
		limit = len(m.history)
	}
	out := make([]models.VerdictEntry, 0, max(limit, 0))
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.history[i])
	}
	return out, nil
}

func (m *MemoryStore) VerdictCounts(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) PublishAlert(context.Context, models.Alert) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
