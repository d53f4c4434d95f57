package store

import (
	"context"
	"sync"

	"github.com/Flyrell/logbook/internal/attendance"
)

// Memory is an in-process store. It backs tests and the transient fallback
// used when the configured store cannot be reached.
type Memory struct {
	mu         sync.Mutex
	settings   map[string]Settings
	attendance map[string]attendance.Snapshot
	hub        hub
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		settings:   make(map[string]Settings),
		attendance: make(map[string]attendance.Snapshot),
	}
}

func (m *Memory) GetSettings(_ context.Context, uid string) (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.settings[uid]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) SetSettings(_ context.Context, uid string, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[uid] = s
	return nil
}

func (m *Memory) ReadAttendance(_ context.Context, uid string, keys []string) (attendance.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return pick(m.attendance[uid], keys), nil
}

func (m *Memory) WriteAttendance(_ context.Context, uid string, entries map[string]attendance.Entry) error {
	m.mu.Lock()
	cur, ok := m.attendance[uid]
	if !ok {
		cur = attendance.Snapshot{}
		m.attendance[uid] = cur
	}
	applied := applyLWW(cur, entries)
	m.mu.Unlock()

	m.hub.publish(uid, applied)
	return nil
}

func (m *Memory) Subscribe(_ context.Context, uid string, keys []string, fn SnapshotFunc) (func(), error) {
	return m.hub.add(uid, keys, fn), nil
}

func (m *Memory) Close() error { return nil }
