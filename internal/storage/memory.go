package storage

import (
	"context"
	"sync"
)

// Memory 进程内存储，maxBytes > 0 时按 key+value 总长度限制配额
type Memory struct {
	mu       sync.RWMutex
	data     map[string]string
	size     int
	maxBytes int
}

func NewMemory(maxBytes int) *Memory {
	return &Memory{data: make(map[string]string), maxBytes: maxBytes}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.size + len(value)
	if old, ok := m.data[key]; ok {
		size -= len(old)
	} else {
		size += len(key)
	}
	if m.maxBytes > 0 && size > m.maxBytes {
		return ErrQuotaExceeded
	}
	m.data[key] = value
	m.size = size
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.size -= len(key) + len(old)
		delete(m.data, key)
	}
	return nil
}
