package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Store used for tests and single-process setups.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string]map[string][]byte)}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Provision(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.namespaces[namespace]; !ok {
		m.namespaces[namespace] = make(map[string][]byte)
	}
	return nil
}

func (m *Memory) Get(_ context.Context, namespace, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		return nil, false
	}
	v, ok := ns[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (m *Memory) Set(_ context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		return unavailable(namespace, key, nil)
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}
