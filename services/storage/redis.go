package storage

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultRedisOpTimeout = 2 * time.Second

// Redis implementation of Interface.
// Keys are stored as "<namespace>:<key>".
type Redis struct {
	client    redis.UniversalClient
	namespace string
	timeout   time.Duration
}

func NewRedis(client redis.UniversalClient, namespace string) *Redis {
	return &Redis{
		client:    client,
		namespace: namespace,
		timeout:   defaultRedisOpTimeout,
	}
}

func (r *Redis) key(k string) string {
	return r.namespace + ":" + k
}

func (r *Redis) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *Redis) Put(key string, value []byte) error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Redis) Get(key string) (*KeyValue, error) {
	ctx, cancel := r.ctx()
	defer cancel()
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNoKeyExists
	}
	if err != nil {
		return nil, err
	}
	return &KeyValue{
		Key:   key,
		Value: value,
	}, nil
}

func (r *Redis) Delete(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis) Exists(key string) (bool, error) {
	ctx, cancel := r.ctx()
	defer cancel()
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) List(prefix string) ([]*KeyValue, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	var kvs []*KeyValue
	iter := r.client.Scan(ctx, 0, escapeGlob(r.key(prefix))+"*", 100).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		value, err := r.client.Get(ctx, full).Bytes()
		if err == redis.Nil {
			// deleted between scan and get
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "get %q", full)
		}
		kvs = append(kvs, &KeyValue{
			Key:   strings.TrimPrefix(full, r.namespace+":"),
			Value: value,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "scan keys")
	}
	sortKVs(kvs)
	return kvs, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
