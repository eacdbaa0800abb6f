package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/frxplorer/api/internal/model"
)

// SeedStore persists seed presets.
type SeedStore interface {
	Save(ctx context.Context, seed *model.Seed) error
	Get(ctx context.Context, id string) (*model.Seed, error)
	List(ctx context.Context) ([]*model.Seed, error)
	// NextDisplayID hands out the next sequential human-facing number.
	NextDisplayID(ctx context.Context) (int, error)
}

// RedisSeedStore keeps seeds under seed:<id> with an index set for listing
// and a counter for display ids.
type RedisSeedStore struct {
	client *redis.Client
}

func NewRedisSeedStore(client *redis.Client) *RedisSeedStore {
	return &RedisSeedStore{client: client}
}

func (s *RedisSeedStore) Save(ctx context.Context, seed *model.Seed) error {
	data, err := json.Marshal(seed)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, "seed:"+seed.ID, data, 0)
	pipe.SAdd(ctx, "seeds:index", seed.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: save seed: %v", model.ErrCacheIO, err)
	}
	return nil
}

func (s *RedisSeedStore) Get(ctx context.Context, id string) (*model.Seed, error) {
	data, err := s.client.Get(ctx, "seed:"+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get seed: %v", model.ErrCacheIO, err)
	}
	var seed model.Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *RedisSeedStore) List(ctx context.Context) ([]*model.Seed, error) {
	ids, err := s.client.SMembers(ctx, "seeds:index").Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list seeds: %v", model.ErrCacheIO, err)
	}
	seeds := make([]*model.Seed, 0, len(ids))
	for _, id := range ids {
		seed, err := s.Get(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

func (s *RedisSeedStore) NextDisplayID(ctx context.Context) (int, error) {
	n, err := s.client.Incr(ctx, "seeds:counter").Result()
	if err != nil {
		return 0, fmt.Errorf("%w: seed counter: %v", model.ErrCacheIO, err)
	}
	return int(n), nil
}

// MemorySeedStore is the fallback when Redis is not configured.
type MemorySeedStore struct {
	mu      sync.RWMutex
	seeds   map[string]model.Seed
	counter int
}

func NewMemorySeedStore() *MemorySeedStore {
	return &MemorySeedStore{seeds: make(map[string]model.Seed)}
}

func (s *MemorySeedStore) Save(_ context.Context, seed *model.Seed) error {
	s.mu.Lock()
	s.seeds[seed.ID] = *seed
	s.mu.Unlock()
	return nil
}

func (s *MemorySeedStore) Get(_ context.Context, id string) (*model.Seed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seed, ok := s.seeds[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &seed, nil
}

func (s *MemorySeedStore) List(_ context.Context) ([]*model.Seed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seeds := make([]*model.Seed, 0, len(s.seeds))
	for id := range s.seeds {
		seed := s.seeds[id]
		seeds = append(seeds, &seed)
	}
	return seeds, nil
}

func (s *MemorySeedStore) NextDisplayID(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return s.counter, nil
}

// SeedService manages saved parameter presets: create, list, update, and
// the retire/restore lifecycle. Retired seeds are kept, never deleted.
type SeedService struct {
	store SeedStore
}

func NewSeedService(store SeedStore) *SeedService {
	return &SeedService{store: store}
}

func (s *SeedService) Create(ctx context.Context, req *model.SeedCreateRequest) (*model.Seed, error) {
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}
	displayID, err := s.store.NextDisplayID(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	seed := &model.Seed{
		ID:        uuid.New().String(),
		DisplayID: displayID,
		Name:      req.Name,
		Params:    req.Params,
		Status:    model.SeedStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// List returns seeds with the given status ("active" or "retired"), newest
// first.
func (s *SeedService) List(ctx context.Context, status string) ([]*model.Seed, error) {
	if status == "" {
		status = model.SeedStatusActive
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seeds := make([]*model.Seed, 0, len(all))
	for _, seed := range all {
		if seed.Status == status {
			seeds = append(seeds, seed)
		}
	}
	sort.Slice(seeds, func(i, j int) bool {
		return seeds[i].CreatedAt.After(seeds[j].CreatedAt)
	})
	return seeds, nil
}

func (s *SeedService) Get(ctx context.Context, id string) (*model.Seed, error) {
	return s.store.Get(ctx, id)
}

func (s *SeedService) Update(ctx context.Context, id string, req *model.SeedUpdateRequest) (*model.Seed, error) {
	seed, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		seed.Name = *req.Name
	}
	if req.Params != nil {
		if err := req.Params.Validate(); err != nil {
			return nil, err
		}
		seed.Params = *req.Params
	}
	seed.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

func (s *SeedService) Retire(ctx context.Context, id string) (*model.Seed, error) {
	return s.setStatus(ctx, id, model.SeedStatusRetired)
}

func (s *SeedService) Restore(ctx context.Context, id string) (*model.Seed, error) {
	return s.setStatus(ctx, id, model.SeedStatusActive)
}

func (s *SeedService) setStatus(ctx context.Context, id, status string) (*model.Seed, error) {
	seed, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if seed.Status == status {
		return nil, fmt.Errorf("seed already %s", status)
	}
	seed.Status = status
	seed.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, seed); err != nil {
		return nil, err
	}
	return seed, nil
}
