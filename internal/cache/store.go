package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frxplorer/api/internal/model"
)

// Store holds encoded map blobs keyed by (fingerprint, map name, encoding).
// Put is idempotent and last-writer-wins; Get never observes a partial
// write. Missing blobs are model.ErrNotFound, backend failures are
// model.ErrCacheIO, so callers can tell "recompute" apart from "cache
// unavailable".
type Store interface {
	GetMap(ctx context.Context, fingerprint, mapName, encoding string) ([]byte, error)
	PutMap(ctx context.Context, fingerprint, mapName, encoding string, blob []byte) error
	HasMap(ctx context.Context, fingerprint, mapName, encoding string) (bool, error)
	DeleteMap(ctx context.Context, fingerprint, mapName, encoding string) error
}

func blobKey(fingerprint, mapName, encoding string) string {
	return fmt.Sprintf("map:%s:%s:%s", fingerprint, mapName, encoding)
}

// RedisStore keeps blobs in Redis with a retention window. Redis SET/GET
// are atomic per key, which gives the never-torn-read guarantee for free.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RedisStore{client: client, retention: retention}
}

func (s *RedisStore) GetMap(ctx context.Context, fingerprint, mapName, encoding string) ([]byte, error) {
	data, err := s.client.Get(ctx, blobKey(fingerprint, mapName, encoding)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get %s: %v", model.ErrCacheIO, mapName, err)
	}
	return data, nil
}

func (s *RedisStore) PutMap(ctx context.Context, fingerprint, mapName, encoding string, blob []byte) error {
	if err := s.client.Set(ctx, blobKey(fingerprint, mapName, encoding), blob, s.retention).Err(); err != nil {
		return fmt.Errorf("%w: put %s: %v", model.ErrCacheIO, mapName, err)
	}
	return nil
}

func (s *RedisStore) HasMap(ctx context.Context, fingerprint, mapName, encoding string) (bool, error) {
	n, err := s.client.Exists(ctx, blobKey(fingerprint, mapName, encoding)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", model.ErrCacheIO, mapName, err)
	}
	return n > 0, nil
}

func (s *RedisStore) DeleteMap(ctx context.Context, fingerprint, mapName, encoding string) error {
	if err := s.client.Del(ctx, blobKey(fingerprint, mapName, encoding)).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %v", model.ErrCacheIO, mapName, err)
	}
	return nil
}

// MemoryStore is the fallback used when Redis is not configured, and the
// store tests run against. Blobs are copied on both sides of the map so a
// reader can never observe a write in progress.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) GetMap(_ context.Context, fingerprint, mapName, encoding string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[blobKey(fingerprint, mapName, encoding)]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (s *MemoryStore) PutMap(_ context.Context, fingerprint, mapName, encoding string, blob []byte) error {
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.mu.Lock()
	s.blobs[blobKey(fingerprint, mapName, encoding)] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) HasMap(_ context.Context, fingerprint, mapName, encoding string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[blobKey(fingerprint, mapName, encoding)]
	return ok, nil
}

func (s *MemoryStore) DeleteMap(_ context.Context, fingerprint, mapName, encoding string) error {
	s.mu.Lock()
	delete(s.blobs, blobKey(fingerprint, mapName, encoding))
	s.mu.Unlock()
	return nil
}
