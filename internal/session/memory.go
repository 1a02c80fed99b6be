package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value   string
	written time.Time
}

// MemoryKV keeps session state in process. State is lost on restart.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]map[string]entry
	now  func() time.Time
}

var (
	_ KV     = (*MemoryKV)(nil)
	_ Purger = (*MemoryKV)(nil)
)

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]map[string]entry), now: time.Now}
}

func (m *MemoryKV) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[sessionID][key]
	return e.value, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[sessionID]
	if !ok {
		s = make(map[string]entry)
		m.data[sessionID] = s
	}
	s[key] = entry{value: value, written: m.now()}
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.data[sessionID]; ok {
		delete(s, key)
		if len(s) == 0 {
			delete(m.data, sessionID)
		}
	}
	return nil
}

func (m *MemoryKV) PurgeBefore(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for sid, s := range m.data {
		for k, e := range s {
			if e.written.Before(t) {
				delete(s, k)
				n++
			}
		}
		if len(s) == 0 {
			delete(m.data, sid)
		}
	}
	return n, nil
}
