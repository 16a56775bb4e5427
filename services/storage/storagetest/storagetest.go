package storagetest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
	bolt "go.etcd.io/bbolt"
)

// ErrUnavailable is returned by every operation of a FailingStore.
var ErrUnavailable = errors.New("storage unavailable")

// NewBolt opens a bolt database in a temporary directory
// that is removed when the test finishes.
func NewBolt(t testing.TB, bucket string) *storage.Bolt {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "bolt.db"), 0600, nil)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewBolt(db, bucket)
}

// FailingStore fails every read and write, like a disabled or full store.
type FailingStore struct {
	// Err overrides the returned error when set.
	Err error
}

func (s FailingStore) err() error {
	if s.Err != nil {
		return s.Err
	}
	return ErrUnavailable
}

func (s FailingStore) Get(string) (*storage.KeyValue, error)    { return nil, s.err() }
func (s FailingStore) Exists(string) (bool, error)              { return false, s.err() }
func (s FailingStore) List(string) ([]*storage.KeyValue, error) { return nil, s.err() }
func (s FailingStore) Put(string, []byte) error                 { return s.err() }
func (s FailingStore) Delete(string) error                      { return s.err() }

// ReadOnlyStore wraps a store and fails every write, like a store whose quota is exceeded.
type ReadOnlyStore struct {
	storage.Interface
}

func (ReadOnlyStore) Put(string, []byte) error { return errors.New("quota exceeded") }
func (ReadOnlyStore) Delete(string) error      { return errors.New("quota exceeded") }
