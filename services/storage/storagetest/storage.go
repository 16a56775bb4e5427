package storagetest

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
	bolt "go.etcd.io/bbolt"
)

// TestStore hands out bolt backed stores of a single temporary database,
// standing in for the storage service of the service under test.
type TestStore struct {
	db *bolt.DB

	mu     sync.Mutex
	stores map[string]storage.Interface
}

// New opens the database. It is closed when the test finishes.
func New(t testing.TB) *TestStore {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "hydrolake.db"), 0600, nil)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &TestStore{
		db:     db,
		stores: make(map[string]storage.Interface),
	}
}

// Store returns the store of namespace, the same one for every call.
func (s *TestStore) Store(namespace string) storage.Interface {
	s.mu.Lock()
	defer s.mu.Unlock()
	if store, ok := s.stores[namespace]; ok {
		return store
	}
	store := storage.NewBolt(s.db, namespace)
	s.stores[namespace] = store
	return store
}

// Namespaces returns the number of namespaces handed out.
func (s *TestStore) Namespaces() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}
