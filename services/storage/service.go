package storage

import (
	"context"
	"crypto/tls"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
)

type Diagnostic interface {
	Opened(backend, location string)
	Error(msg string, err error)
}

type Service struct {
	c Config

	boltdb *bolt.DB
	redis  *redis.Client
	stores map[string]Interface
	mu     sync.Mutex

	diag Diagnostic
}

func NewService(conf Config, d Diagnostic) *Service {
	return &Service{
		c:      conf,
		diag:   d,
		stores: make(map[string]Interface),
	}
}

func (s *Service) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.c.Backend {
	case BackendBolt:
		err := os.MkdirAll(path.Dir(s.c.BoltDBPath), 0755)
		if err != nil {
			return errors.Wrapf(err, "mkdir dirs %q", s.c.BoltDBPath)
		}
		db, err := bolt.Open(s.c.BoltDBPath, 0600, &bolt.Options{
			Timeout: time.Duration(s.c.BoltTimeout),
		})
		if err != nil {
			return errors.Wrapf(err, "open boltdb @ %q", s.c.BoltDBPath)
		}
		s.boltdb = db
		s.diag.Opened(BackendBolt, s.c.BoltDBPath)
	case BackendRedis:
		opts, err := redis.ParseURL(s.c.RedisURL)
		if err != nil {
			return errors.Wrap(err, "parse redis url")
		}
		opts.DialTimeout = 5 * time.Second
		opts.ReadTimeout = 2 * time.Second
		opts.WriteTimeout = 2 * time.Second
		if opts.TLSConfig == nil && strings.HasPrefix(s.c.RedisURL, "rediss://") {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return errors.Wrap(err, "redis ping failed")
		}
		s.redis = client
		s.diag.Opened(BackendRedis, opts.Addr)
	case BackendMemory:
		s.diag.Opened(BackendMemory, "")
	default:
		return errors.Errorf("unknown storage backend %q", s.c.Backend)
	}
	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.boltdb != nil {
		err = s.boltdb.Close()
		s.boltdb = nil
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil && err == nil {
			err = rerr
		}
		s.redis = nil
	}
	s.stores = make(map[string]Interface)
	return err
}

// Store returns a namespaced store.
// Calling Store with the same namespace returns the same store.
func (s *Service) Store(name string) Interface {
	s.mu.Lock()
	defer s.mu.Unlock()
	if store, ok := s.stores[name]; ok {
		return store
	}
	var store Interface
	switch {
	case s.boltdb != nil:
		store = NewBolt(s.boltdb, name)
	case s.redis != nil:
		store = NewRedis(s.redis, name)
	default:
		store = NewMemStore(name)
	}
	s.stores[name] = store
	return store
}
