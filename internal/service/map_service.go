package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/frxplorer/api/internal/cache"
	"github.com/frxplorer/api/internal/model"
)

// Asynq task type names
const (
	TaskTypeCompute = "fractal:compute"
	TaskTypePNG     = "fractal:png"
)

// TaskEnqueuer is the slice of *asynq.Client the map service needs.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// MapService is the boundary in front of the field computation: it answers
// from the cache when it can, otherwise ensures exactly one task per
// fingerprint is in flight and hands back its id to poll.
//
// The inflight map is the single source of truth for "is something already
// computing this fingerprint"; the queue is only the executor behind it.
type MapService struct {
	store    cache.Store
	tasks    TaskStore
	enqueuer TaskEnqueuer

	mu       sync.Mutex
	inflight map[string]string // inflight key -> task id, retained after failure until the next attempt replaces it
}

func NewMapService(store cache.Store, tasks TaskStore, enqueuer TaskEnqueuer) *MapService {
	return &MapService{
		store:    store,
		tasks:    tasks,
		enqueuer: enqueuer,
		inflight: make(map[string]string),
	}
}

func inflightKey(kind, fingerprint, mapName string) string {
	if mapName == "" {
		return kind + ":" + fingerprint
	}
	return kind + ":" + fingerprint + ":" + mapName
}

// Calculate ensures the maps for a parameter set exist or are being
// computed. A full cache hit returns status "cached" with no task; anything
// else returns "calculating" with the id of the in-flight task, freshly
// created or attached to, never a duplicate computation.
func (s *MapService) Calculate(ctx context.Context, params *model.FractalParams) (*model.CalculateResponse, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	fp := params.Fingerprint()

	cached, err := s.allRawCached(ctx, fp)
	if err != nil {
		return nil, err
	}
	if cached {
		return &model.CalculateResponse{Status: "cached", Fingerprint: fp}, nil
	}

	taskID, err := s.ensureTask(ctx, model.TaskKindCompute, fp, "", func(id string) (*asynq.Task, []asynq.Option, error) {
		payload, err := json.Marshal(model.ComputeTaskPayload{TaskID: id, Params: *params})
		if err != nil {
			return nil, nil, err
		}
		opts := []asynq.Option{
			asynq.Queue("compute"),
			asynq.MaxRetry(0),
			asynq.Retention(24 * time.Hour),
		}
		return asynq.NewTask(TaskTypeCompute, payload), opts, nil
	})
	if err != nil {
		return nil, err
	}

	return &model.CalculateResponse{Status: "calculating", TaskID: taskID, Fingerprint: fp}, nil
}

// GetMapBlob fetches one encoded map. On a PNG request whose raw map is
// cached but whose PNG is not, it queues an encode task and returns its id;
// the caller answers 202 and the client polls.
func (s *MapService) GetMapBlob(ctx context.Context, params *model.FractalParams, mapName, encoding string) (blob []byte, taskID string, err error) {
	if err := params.Validate(); err != nil {
		return nil, "", err
	}
	if !model.ValidMapName(mapName) {
		return nil, "", &model.ParamsError{Field: "map_name", Reason: fmt.Sprintf("unknown map %q", mapName)}
	}
	if !model.ValidEncoding(encoding) {
		return nil, "", &model.ParamsError{Field: "map_type", Reason: fmt.Sprintf("unknown encoding %q", encoding)}
	}
	fp := params.Fingerprint()

	blob, err = s.store.GetMap(ctx, fp, mapName, encoding)
	if err == nil {
		return blob, "", nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, "", err
	}
	if encoding != model.EncodingPNG {
		if ferr := s.computeFailure(ctx, fp); ferr != nil {
			return nil, "", ferr
		}
		return nil, "", model.ErrNotFound
	}

	// PNGs are generated on demand from the cached raw map.
	hasRaw, err := s.store.HasMap(ctx, fp, mapName, model.EncodingRaw)
	if err != nil {
		return nil, "", err
	}
	if !hasRaw {
		if ferr := s.computeFailure(ctx, fp); ferr != nil {
			return nil, "", ferr
		}
		return nil, "", model.ErrNotFound
	}

	taskID, err = s.ensureTask(ctx, model.TaskKindPNG, fp, mapName, func(id string) (*asynq.Task, []asynq.Option, error) {
		payload, err := json.Marshal(model.PNGTaskPayload{
			TaskID:      id,
			Params:      *params,
			MapName:     mapName,
			Fingerprint: fp,
		})
		if err != nil {
			return nil, nil, err
		}
		opts := []asynq.Option{
			asynq.Queue("png"),
			asynq.MaxRetry(0),
			asynq.Retention(24 * time.Hour),
		}
		return asynq.NewTask(TaskTypePNG, payload), opts, nil
	})
	if err != nil {
		return nil, "", err
	}
	return nil, taskID, nil
}

// Status returns the poll-able record for a task.
func (s *MapService) Status(ctx context.Context, taskID string) (*model.TaskStatusResponse, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &model.TaskStatusResponse{
		TaskID:      task.ID,
		State:       task.State,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
	}, nil
}

// ensureTask returns the id of the in-flight task for the key, creating and
// enqueueing one only when none exists. Terminal tasks (a previous failure)
// do not block a fresh attempt.
func (s *MapService) ensureTask(ctx context.Context, kind, fingerprint, mapName string, build func(id string) (*asynq.Task, []asynq.Option, error)) (string, error) {
	key := inflightKey(kind, fingerprint, mapName)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.inflight[key]; ok {
		task, err := s.tasks.Get(ctx, existing)
		if err == nil && !task.State.Terminal() {
			return existing, nil
		}
		delete(s.inflight, key)
	}

	id := uuid.New().String()
	record := &model.Task{
		ID:          id,
		Kind:        kind,
		Fingerprint: fingerprint,
		MapName:     mapName,
		State:       model.TaskPending,
		CreatedAt:   time.Now(),
	}
	if err := s.tasks.Save(ctx, record); err != nil {
		return "", err
	}

	asynqTask, opts, err := build(id)
	if err != nil {
		return "", err
	}
	if _, err := s.enqueuer.Enqueue(asynqTask, opts...); err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.inflight[key] = id
	return id, nil
}

// StartTask transitions a task to Running. Called by workers only.
func (s *MapService) StartTask(ctx context.Context, taskID string) error {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task.State.Terminal() {
		return fmt.Errorf("task %s already terminal", taskID)
	}
	now := time.Now()
	task.State = model.TaskRunning
	task.StartedAt = &now
	return s.tasks.Save(ctx, task)
}

// CompleteTask marks a task Succeeded. The worker must have finished every
// cache write before calling this: a poller observing Succeeded may read
// all of the fingerprint's maps without further synchronization.
func (s *MapService) CompleteTask(ctx context.Context, taskID string) error {
	return s.finishTask(ctx, taskID, model.TaskSucceeded, nil)
}

// FailTask marks a task Failed with a human-readable detail. The failure is
// retained on the record; the fingerprint becomes eligible for a fresh
// attempt on the next request.
func (s *MapService) FailTask(ctx context.Context, taskID, detail string) error {
	return s.finishTask(ctx, taskID, model.TaskFailed, &detail)
}

func (s *MapService) finishTask(ctx context.Context, taskID string, state model.TaskState, detail *string) error {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	now := time.Now()
	task.State = state
	task.Error = detail
	task.CompletedAt = &now
	if err := s.tasks.Save(ctx, task); err != nil {
		return err
	}

	// Succeeded tasks leave the inflight map; failed ones stay so a later
	// fetch can report the failure instead of a bare miss. ensureTask
	// replaces terminal entries, so retries are not blocked.
	if state == model.TaskSucceeded {
		key := inflightKey(task.Kind, task.Fingerprint, task.MapName)
		s.mu.Lock()
		if s.inflight[key] == taskID {
			delete(s.inflight, key)
		}
		s.mu.Unlock()
	}
	return nil
}

// computeFailure reports the retained failure for a fingerprint's compute
// task, or nil when nothing failed (never attempted, still running, or
// already replaced by a fresh attempt).
func (s *MapService) computeFailure(ctx context.Context, fingerprint string) error {
	s.mu.Lock()
	id, ok := s.inflight[inflightKey(model.TaskKindCompute, fingerprint, "")]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	task, err := s.tasks.Get(ctx, id)
	if err != nil || task.State != model.TaskFailed {
		return nil
	}
	reason := "computation failed"
	if task.Error != nil {
		reason = *task.Error
	}
	return &model.ComputeError{Fingerprint: fingerprint, Reason: reason}
}

func (s *MapService) allRawCached(ctx context.Context, fingerprint string) (bool, error) {
	for _, name := range model.MapNames {
		ok, err := s.store.HasMap(ctx, fingerprint, name, model.EncodingRaw)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
