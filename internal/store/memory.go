package store

import (
	"context"
	"sync"

	"github.com/dshills/vulnscout/internal/model"
)

// DefaultMemoryLimit caps the in-memory store; the oldest scans are dropped.
const DefaultMemoryLimit = 5000

// Memory is a process-local Store.
type Memory struct {
	mu    sync.RWMutex
	scans []model.Scan // oldest first
	limit int
}

// NewMemory returns an empty store holding at most limit scans
// (DefaultMemoryLimit when limit <= 0).
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &Memory{limit: limit}
}

func (m *Memory) Insert(_ context.Context, scan *model.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, cloneScan(scan))
	if over := len(m.scans) - m.limit; over > 0 {
		m.scans = append([]model.Scan(nil), m.scans[over:]...)
	}
	return nil
}

func (m *Memory) List(_ context.Context, limit int) ([]model.Scan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = len(m.scans)
	}
	out := make([]model.Scan, 0, min(limit, len(m.scans)))
	for i := len(m.scans) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneScan(&m.scans[i]))
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (*model.Scan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.scans {
		if m.scans[i].ID == id {
			c := cloneScan(&m.scans[i])
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Close() error { return nil }
