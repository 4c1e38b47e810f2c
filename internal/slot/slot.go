// Package slot provides the durable key-value slot the project store is
// persisted into.
package slot

import (
	"context"
	"sync"
)

// StoreKey is the fixed key holding the encoded project store.
const StoreKey = "cinesuite-projects"

// Slot stores opaque blobs under string keys. Load reports ok=false when the
// key holds no usable data.
type Slot interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}

// Memory is an in-process Slot. The zero value is ready to use.
type Memory struct {
	mu    sync.Mutex
	items map[string][]byte
	saves int
}

// NewMemory returns an empty in-memory slot.
func NewMemory() *Memory { return &Memory{} }

// Load implements Slot.
func (m *Memory) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Save implements Slot.
func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string][]byte)
	}
	m.items[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
