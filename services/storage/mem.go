package storage

import (
	"strings"
	"sync"
)

// Mem keeps values in a map, nothing outlives the process.
// It backs the "memory" storage backend and tests.
type Mem struct {
	namespace string

	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemStore(namespace string) *Mem {
	return &Mem{
		namespace: namespace,
		values:    make(map[string][]byte),
	}
}

func clone(b []byte) []byte {
	return append(make([]byte, 0, len(b)), b...)
}

func (m *Mem) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = clone(value)
	return nil
}

func (m *Mem) Get(key string) (*KeyValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNoKeyExists
	}
	return &KeyValue{Key: key, Value: clone(v)}, nil
}

func (m *Mem) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Mem) Exists(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok, nil
}

// List returns the entries under prefix ordered by key.
func (m *Mem) List(prefix string) ([]*KeyValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kvs := []*KeyValue{}
	for k, v := range m.values {
		if strings.HasPrefix(k, prefix) {
			kvs = append(kvs, &KeyValue{Key: k, Value: clone(v)})
		}
	}
	sortKVs(kvs)
	return kvs, nil
}
