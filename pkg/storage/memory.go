package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

const DefaultCapacity = 500

// MemoryStore keeps the most recent snapshots in a fixed-size ring
type MemoryStore struct {
	mu    sync.RWMutex
	ring  []*models.Snapshot
	next  int
	count int
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{ring: make([]*models.Snapshot, capacity)}
}

func (m *MemoryStore) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CollectedAt.IsZero() {
		snap.CollectedAt = time.Now()
	}

	stored := *snap

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring[m.next] = &stored
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
	return nil
}

func (m *MemoryStore) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := 0; i < m.count; i++ {
		if s := m.at(i); s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListSnapshots(ctx context.Context, limit int) ([]*models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > m.count {
		limit = m.count
	}
	out := make([]*models.Snapshot, 0, limit)
	for i := 0; i < limit; i++ {
		cp := *m.at(i)
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.count == 0 {
		return nil, ErrNotFound
	}
	cp := *m.at(0)
	return &cp, nil
}

// at returns the i-th newest snapshot. Caller holds the lock.
func (m *MemoryStore) at(i int) *models.Snapshot {
	idx := (m.next - 1 - i + len(m.ring)) % len(m.ring)
	return m.ring[idx]
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
