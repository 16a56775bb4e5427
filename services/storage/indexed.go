package storage

import (
	"encoding"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	dataDir    = "data"
	indexesDir = "indexes"

	IDIndex = "id"
)

var (
	ErrObjectExists   = errors.New("object already exists")
	ErrNoObjectExists = errors.New("no object exists")
)

// BinaryObject is a record of an IndexedStore.
type BinaryObject interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	ObjectID() string
}

type NewObjectF func() BinaryObject

// Index orders the objects of a store by the key Key computes for them.
// Non unique keys are suffixed with the object ID.
type Index struct {
	Name   string
	Key    func(BinaryObject) (string, error)
	Unique bool
}

func (idx Index) entry(o BinaryObject) (string, error) {
	k, err := idx.Key(o)
	if err != nil {
		return "", errors.Wrapf(err, "index %s", idx.Name)
	}
	if idx.Unique {
		return k, nil
	}
	return k + "/" + o.ObjectID(), nil
}

type IndexedStoreConfig struct {
	// Prefix of every key, one path segment.
	Prefix    string
	NewObject NewObjectF
	Indexes   []Index
}

// NewIndexedStoreConfig returns a config with the unique IDIndex.
func NewIndexedStoreConfig(prefix string, newObject NewObjectF) IndexedStoreConfig {
	return IndexedStoreConfig{
		Prefix:    prefix,
		NewObject: newObject,
		Indexes: []Index{{
			Name:   IDIndex,
			Unique: true,
			Key: func(o BinaryObject) (string, error) {
				return o.ObjectID(), nil
			},
		}},
	}
}

func segment(s string) bool {
	return s != "" && !strings.Contains(s, "/")
}

func (c IndexedStoreConfig) Validate() error {
	if !segment(c.Prefix) {
		return fmt.Errorf("invalid prefix %q", c.Prefix)
	}
	if c.NewObject == nil {
		return errors.New("must provide a NewObject function")
	}
	seen := make(map[string]bool, len(c.Indexes))
	for _, idx := range c.Indexes {
		if !segment(idx.Name) {
			return fmt.Errorf("invalid index name %q", idx.Name)
		}
		if seen[idx.Name] {
			return fmt.Errorf("duplicate index %q", idx.Name)
		}
		seen[idx.Name] = true
		if idx.Key == nil {
			return fmt.Errorf("index %q has no Key function", idx.Name)
		}
	}
	return nil
}

// IndexedStore keeps objects of one kind in a flat key value store,
// with index entries pointing back at them:
//
//	/<prefix>/data/<id>                 encoded object
//	/<prefix>/indexes/<index>/<entry>   object id
//
// Writes to the data and index keys are separate, after a failure
// Rebuild restores the indexes from the data.
type IndexedStore struct {
	store     Interface
	prefix    string
	indexes   []Index
	newObject NewObjectF
}

func NewIndexedStore(store Interface, c IndexedStoreConfig) (*IndexedStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &IndexedStore{
		store:     store,
		prefix:    "/" + c.Prefix + "/",
		indexes:   c.Indexes,
		newObject: c.NewObject,
	}, nil
}

func (s *IndexedStore) dataKey(id string) string {
	return s.prefix + dataDir + "/" + id
}

func (s *IndexedStore) indexDir(index string) string {
	return s.prefix + indexesDir + "/" + index + "/"
}

func (s *IndexedStore) Get(id string) (BinaryObject, error) {
	kv, err := s.store.Get(s.dataKey(id))
	if err == ErrNoKeyExists {
		return nil, ErrNoObjectExists
	}
	if err != nil {
		return nil, err
	}
	return s.decode(kv)
}

func (s *IndexedStore) decode(kv *KeyValue) (BinaryObject, error) {
	o := s.newObject()
	if err := o.UnmarshalBinary(kv.Value); err != nil {
		return nil, errors.Wrapf(err, "decode %s", kv.Key)
	}
	return o, nil
}

// Create stores o, failing with ErrObjectExists when its ID is taken.
func (s *IndexedStore) Create(o BinaryObject) error {
	_, err := s.Get(o.ObjectID())
	switch err {
	case nil:
		return ErrObjectExists
	case ErrNoObjectExists:
		return s.write(o, nil)
	default:
		return err
	}
}

// Put creates o or replaces the object with its ID.
func (s *IndexedStore) Put(o BinaryObject) error {
	old, err := s.Get(o.ObjectID())
	if err == ErrNoObjectExists {
		return s.write(o, nil)
	}
	if err != nil {
		return err
	}
	return s.write(o, old)
}

func (s *IndexedStore) write(o, old BinaryObject) error {
	data, err := o.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.store.Put(s.dataKey(o.ObjectID()), data); err != nil {
		return err
	}
	for _, idx := range s.indexes {
		entry, err := idx.entry(o)
		if err != nil {
			return err
		}
		if old != nil {
			oldEntry, err := idx.entry(old)
			if err != nil {
				return err
			}
			if oldEntry == entry {
				continue
			}
			if err := s.store.Delete(s.indexDir(idx.Name) + oldEntry); err != nil {
				return err
			}
		}
		if err := s.store.Put(s.indexDir(idx.Name)+entry, []byte(o.ObjectID())); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the object with id and its index entries.
// A missing object is not an error.
func (s *IndexedStore) Delete(id string) error {
	o, err := s.Get(id)
	if err == ErrNoObjectExists {
		return nil
	}
	if err != nil {
		return err
	}
	for _, idx := range s.indexes {
		entry, err := idx.entry(o)
		if err != nil {
			return err
		}
		if err := s.store.Delete(s.indexDir(idx.Name) + entry); err != nil {
			return err
		}
	}
	return s.store.Delete(s.dataKey(id))
}

// ListOptions selects a window of an index.
type ListOptions struct {
	Index  string
	Offset int
	// Limit <= 0 returns every object after Offset.
	Limit int
	// Reverse walks the index from its last entry.
	Reverse bool
}

// List returns the objects in the order of an index.
// Index entries whose object is gone are skipped.
func (s *IndexedStore) List(opts ListOptions) ([]BinaryObject, error) {
	entries, err := s.store.List(s.indexDir(opts.Index))
	if err != nil {
		return nil, err
	}
	if opts.Reverse {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(entries) {
			return []BinaryObject{}, nil
		}
		entries = entries[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(entries) {
		entries = entries[:opts.Limit]
	}

	objects := make([]BinaryObject, 0, len(entries))
	for _, e := range entries {
		o, err := s.Get(string(e.Value))
		if err == ErrNoObjectExists {
			continue
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return objects, nil
}

// Rebuild drops every index entry and recreates them from the stored objects.
func (s *IndexedStore) Rebuild() error {
	for _, idx := range s.indexes {
		entries, err := s.store.List(s.indexDir(idx.Name))
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.store.Delete(e.Key); err != nil {
				return errors.Wrapf(err, "clear index %s", idx.Name)
			}
		}
	}
	data, err := s.store.List(s.prefix + dataDir + "/")
	if err != nil {
		return err
	}
	for _, kv := range data {
		o, err := s.decode(kv)
		if err != nil {
			return err
		}
		for _, idx := range s.indexes {
			entry, err := idx.entry(o)
			if err != nil {
				return err
			}
			if err := s.store.Put(s.indexDir(idx.Name)+entry, []byte(o.ObjectID())); err != nil {
				return errors.Wrapf(err, "index %s", kv.Key)
			}
		}
	}
	return nil
}

func ImpossibleTypeErr(exp interface{}, got interface{}) error {
	return fmt.Errorf("impossible error, object not of type %T, got %T", exp, got)
}
