package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/frxplorer/api/internal/cache"
	"github.com/frxplorer/api/internal/client"
	"github.com/frxplorer/api/internal/fractal"
	"github.com/frxplorer/api/internal/model"
)

// ImageStore persists rendered-image log records.
type ImageStore interface {
	Save(ctx context.Context, rec *model.ImageRecord) error
	Get(ctx context.Context, id string) (*model.ImageRecord, error)
	List(ctx context.Context) ([]*model.ImageRecord, error)
}

// RedisImageStore keeps records under image:<id> with an index set.
type RedisImageStore struct {
	client *redis.Client
}

func NewRedisImageStore(client *redis.Client) *RedisImageStore {
	return &RedisImageStore{client: client}
}

func (s *RedisImageStore) Save(ctx context.Context, rec *model.ImageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, "image:"+rec.ID, data, 0)
	pipe.SAdd(ctx, "images:index", rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: save image record: %v", model.ErrCacheIO, err)
	}
	return nil
}

func (s *RedisImageStore) Get(ctx context.Context, id string) (*model.ImageRecord, error) {
	data, err := s.client.Get(ctx, "image:"+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get image record: %v", model.ErrCacheIO, err)
	}
	var rec model.ImageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisImageStore) List(ctx context.Context) ([]*model.ImageRecord, error) {
	ids, err := s.client.SMembers(ctx, "images:index").Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list image records: %v", model.ErrCacheIO, err)
	}
	recs := make([]*model.ImageRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// MemoryImageStore is the fallback when Redis is not configured.
type MemoryImageStore struct {
	mu   sync.RWMutex
	recs map[string]model.ImageRecord
}

func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{recs: make(map[string]model.ImageRecord)}
}

func (s *MemoryImageStore) Save(_ context.Context, rec *model.ImageRecord) error {
	s.mu.Lock()
	s.recs[rec.ID] = *rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryImageStore) Get(_ context.Context, id string) (*model.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryImageStore) List(_ context.Context) ([]*model.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*model.ImageRecord, 0, len(s.recs))
	for id := range s.recs {
		rec := s.recs[id]
		recs = append(recs, &rec)
	}
	return recs, nil
}

// ImageService logs rendered images and, when object storage is configured,
// archives a display-normalized PNG of the map alongside the log entry.
type ImageService struct {
	store   ImageStore
	cache   cache.Store
	storage client.StorageClient
}

func NewImageService(store ImageStore, cacheStore cache.Store, storage client.StorageClient) *ImageService {
	return &ImageService{store: store, cache: cacheStore, storage: storage}
}

// Log records a rendered image. The raw map must already be cached; the
// archived copy goes through the display normalization, unlike the cache's
// invertible PNG encoding.
func (s *ImageService) Log(ctx context.Context, req *model.ImageLogRequest) (*model.ImageRecord, error) {
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}
	if !model.ValidMapName(req.MapName) {
		return nil, &model.ParamsError{Field: "mapName", Reason: fmt.Sprintf("unknown map %q", req.MapName)}
	}
	fp := req.Params.Fingerprint()

	raw, err := s.cache.GetMap(ctx, fp, req.MapName, model.EncodingRaw)
	if err != nil {
		return nil, err
	}

	rec := &model.ImageRecord{
		ID:        uuid.New().String(),
		SeedID:    req.SeedID,
		MapName:   req.MapName,
		Encoding:  model.EncodingPNG,
		Status:    model.SeedStatusActive,
		CreatedAt: time.Now(),
	}

	if s.storage != nil {
		values, err := cache.DecodeRaw(raw)
		if err != nil {
			return nil, err
		}
		display := fractal.NormalizeForDisplay(values, req.MapName, req.Params.MaxIterations)
		blob, err := cache.EncodePNG(display, req.Params.Resolution)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("images/%s/%s.png", fp, req.MapName)
		url, err := s.storage.Upload(ctx, key, bytes.NewReader(blob), "image/png")
		if err != nil {
			// The log entry is still useful without the archived copy.
			log.Printf("image archive upload failed: %v", err)
		} else {
			rec.StoredURL = url
		}
	}

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns image records with the given status, newest first.
func (s *ImageService) List(ctx context.Context, status string) ([]*model.ImageRecord, error) {
	if status == "" {
		status = model.SeedStatusActive
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	recs := make([]*model.ImageRecord, 0, len(all))
	for _, rec := range all {
		if rec.Status == status {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

func (s *ImageService) Retire(ctx context.Context, id string) (*model.ImageRecord, error) {
	return s.setStatus(ctx, id, model.SeedStatusRetired)
}

func (s *ImageService) Restore(ctx context.Context, id string) (*model.ImageRecord, error) {
	return s.setStatus(ctx, id, model.SeedStatusActive)
}

func (s *ImageService) setStatus(ctx context.Context, id, status string) (*model.ImageRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == status {
		return nil, fmt.Errorf("image already %s", status)
	}
	rec.Status = status
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
