package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frxplorer/api/internal/model"
)

// TaskStore persists poll-able task records. The map service is the only
// writer; handlers and workers read through it.
type TaskStore interface {
	Save(ctx context.Context, task *model.Task) error
	Get(ctx context.Context, id string) (*model.Task, error)
}

// RedisTaskStore keeps task records as JSON under task:<id>, the same shape
// the rest of the cache uses.
type RedisTaskStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisTaskStore(client *redis.Client, retention time.Duration) *RedisTaskStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RedisTaskStore{client: client, retention: retention}
}

func (s *RedisTaskStore) Save(ctx context.Context, task *model.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, "task:"+task.ID, data, s.retention).Err(); err != nil {
		return fmt.Errorf("%w: save task: %v", model.ErrCacheIO, err)
	}
	return nil
}

func (s *RedisTaskStore) Get(ctx context.Context, id string) (*model.Task, error) {
	data, err := s.client.Get(ctx, "task:"+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get task: %v", model.ErrCacheIO, err)
	}
	var task model.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// MemoryTaskStore is the fallback when Redis is not configured.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]model.Task)}
}

func (s *MemoryTaskStore) Save(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	s.tasks[task.ID] = *task
	s.mu.Unlock()
	return nil
}

func (s *MemoryTaskStore) Get(_ context.Context, id string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &task, nil
}
