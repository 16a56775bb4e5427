package storage

import (
	"bytes"

	bolt "go.etcd.io/bbolt"
)

// Bolt stores a namespace in a top level bucket of a bolt database.
// The bucket is created by the first write.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
}

func NewBolt(db *bolt.DB, namespace string) *Bolt {
	return &Bolt{db: db, bucket: []byte(namespace)}
}

// view runs fn with the bucket, fn is not called while the bucket does not exist.
func (b *Bolt) view(fn func(*bolt.Bucket) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		if bk := tx.Bucket(b.bucket); bk != nil {
			return fn(bk)
		}
		return nil
	})
}

func (b *Bolt) Put(key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists(b.bucket)
		if err != nil {
			return err
		}
		return bk.Put([]byte(key), value)
	})
}

func (b *Bolt) Get(key string) (*KeyValue, error) {
	var kv *KeyValue
	err := b.view(func(bk *bolt.Bucket) error {
		// values are only valid inside the transaction
		if v := bk.Get([]byte(key)); v != nil {
			kv = &KeyValue{Key: key, Value: clone(v)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if kv == nil {
		return nil, ErrNoKeyExists
	}
	return kv, nil
}

func (b *Bolt) Exists(key string) (bool, error) {
	exists := false
	err := b.view(func(bk *bolt.Bucket) error {
		exists = bk.Get([]byte(key)) != nil
		return nil
	})
	return exists, err
}

func (b *Bolt) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if bk := tx.Bucket(b.bucket); bk != nil {
			return bk.Delete([]byte(key))
		}
		return nil
	})
}

// List walks the keys from prefix in the order bolt keeps them, which is by key.
func (b *Bolt) List(prefix string) ([]*KeyValue, error) {
	kvs := []*KeyValue{}
	p := []byte(prefix)
	err := b.view(func(bk *bolt.Bucket) error {
		c := bk.Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			if v == nil {
				// nested bucket
				continue
			}
			kvs = append(kvs, &KeyValue{Key: string(k), Value: clone(v)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kvs, nil
}
