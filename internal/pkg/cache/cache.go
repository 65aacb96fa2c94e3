package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/fcescuela/clubhouse/internal/pkg/env"
)

const (
	generationSuffix = ":gen"
	generationTTL    = 24 * time.Hour
	opTimeout        = 500 * time.Millisecond
)

var errGenerationMoved = errors.New("cache generation moved")

// NewClientFromEnv connects to the Redis compatible cache server configured
// by CACHE_HOST, CACHE_PORT and CACHE_PASSWORD. A failed ping is logged only.
func NewClientFromEnv() *redis.Client {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       env.GetEnvInt("CACHE_DB", 0),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if pong, err := client.Ping(ctx).Result(); err != nil {
		log.Warnf("[Cache] Could not connect to cache server: %v", err)
	} else {
		log.Infof("[Cache] Connected to cache server: %s", pong)
	}
	return client
}

// Store is a cache-aside layer over Redis. Every backend failure degrades to
// a miss; callers never see cache errors.
//
// Each key has a generation counter. Invalidate bumps it, and a loader result
// is only stored if the generation did not move while it was loading, so a
// slow reader cannot put back a snapshot taken before a write.
type Store struct {
	client *redis.Client

	mu      sync.Mutex
	pending map[string]struct{}
}

// New wraps client. A nil client yields a store that always misses.
func New(client *redis.Client) *Store {
	return &Store{
		client:  client,
		pending: make(map[string]struct{}),
	}
}

// Client exposes the underlying connection for components sharing it.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Read returns the cached value for key, or calls loader, caches its result
// for ttl and returns it. Loader errors are returned and nothing is cached.
func Read[T any](ctx context.Context, s *Store, key string, ttl time.Duration, loader func(ctx context.Context) (T, error)) (T, error) {
	if !s.usable(ctx, key) {
		return loader(ctx)
	}

	if raw, ok := s.get(ctx, key); ok {
		var cached T
		err := json.Unmarshal(raw, &cached)
		if err == nil {
			return cached, nil
		}
		log.Warnf("[Cache] Dropping undecodable entry %s: %v", key, err)
		s.Invalidate(ctx, key)
	}

	gen, genOK := s.generation(ctx, key)
	value, err := loader(ctx)
	if err != nil {
		return value, err
	}
	if genOK {
		s.store(ctx, key, gen, value, ttl)
	}
	return value, nil
}

// Invalidate evicts keys. Keys that could not be evicted are bypassed by Read
// in this process until a later eviction succeeds.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if s == nil || s.client == nil || len(keys) == 0 {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	for _, key := range keys {
		if err := s.evict(opCtx, key); err != nil {
			log.Warnf("[Cache] Invalidate %s failed, bypassing until retried: %v", key, err)
			s.markPending(key)
			continue
		}
		s.clearPending(key)
	}
}

func (s *Store) evict(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, key+generationSuffix)
	pipe.Expire(ctx, key+generationSuffix, generationTTL)
	pipe.Del(ctx, key)
	_, err := pipe.Exec(ctx)
	return err
}

// usable reports whether the cache may be consulted for key right now.
func (s *Store) usable(ctx context.Context, key string) bool {
	if s == nil || s.client == nil {
		return false
	}
	if !s.isPending(key) {
		return true
	}
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.evict(opCtx, key); err != nil {
		return false
	}
	s.clearPending(key)
	return true
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := s.client.Get(opCtx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("[Cache] Get %s failed: %v", key, err)
		}
		return nil, false
	}
	return raw, true
}

func (s *Store) generation(ctx context.Context, key string) (string, bool) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	gen, err := s.client.Get(opCtx, key+generationSuffix).Result()
	if errors.Is(err, redis.Nil) {
		return "", true
	}
	if err != nil {
		return "", false
	}
	return gen, true
}

func (s *Store) store(ctx context.Context, key, gen string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warnf("[Cache] Marshal %s failed: %v", key, err)
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	genKey := key + generationSuffix
	err = s.client.Watch(opCtx, func(tx *redis.Tx) error {
		current, err := tx.Get(opCtx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errGenerationMoved
		}
		_, err = tx.TxPipelined(opCtx, func(p redis.Pipeliner) error {
			p.Set(opCtx, key, data, ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errGenerationMoved), errors.Is(err, redis.TxFailedErr):
		log.Debugf("[Cache] Skipped storing %s: invalidated during load", key)
	default:
		log.Warnf("[Cache] Set %s failed: %v", key, err)
	}
}

func (s *Store) markPending(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = struct{}{}
}

func (s *Store) clearPending(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

func (s *Store) isPending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}
