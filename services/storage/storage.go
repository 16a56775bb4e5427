package storage

import (
	"errors"
	"sort"
)

// ErrNoKeyExists is returned by Get for a missing key.
var ErrNoKeyExists = errors.New("no key exists")

// Interface is the key value store of one namespace.
// Deleting a missing key is not an error.
type Interface interface {
	Get(key string) (*KeyValue, error)
	Exists(key string) (bool, error)
	// List returns the entries whose key starts with prefix, ordered by key.
	List(prefix string) ([]*KeyValue, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

type KeyValue struct {
	Key   string
	Value []byte
}

func sortKVs(kvs []*KeyValue) {
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })
}
