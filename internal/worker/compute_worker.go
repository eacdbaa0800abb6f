package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/frxplorer/api/internal/cache"
	"github.com/frxplorer/api/internal/fractal"
	"github.com/frxplorer/api/internal/model"
	"github.com/frxplorer/api/internal/service"
	"github.com/frxplorer/api/internal/websocket"
)

// ComputeWorker runs field evaluations off the compute queue. A job either
// writes every raw map for its fingerprint and only then goes Succeeded, or
// rolls its writes back and goes Failed; partial results never stay
// visible.
type ComputeWorker struct {
	mapService *service.MapService
	store      cache.Store
	hub        *websocket.Hub
	rowWorkers int
}

func NewComputeWorker(mapService *service.MapService, store cache.Store, hub *websocket.Hub) *ComputeWorker {
	return &ComputeWorker{
		mapService: mapService,
		store:      store,
		hub:        hub,
	}
}

// SetRowWorkers fixes the per-evaluation goroutine count instead of
// defaulting to GOMAXPROCS.
func (w *ComputeWorker) SetRowWorkers(n int) {
	w.rowWorkers = n
}

// ProcessTask handles one fractal:compute task.
func (w *ComputeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ComputeTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal compute payload: %w", err)
	}

	taskID := payload.TaskID
	fp := payload.Params.Fingerprint()
	log.Printf("Starting field computation %s (fingerprint %s)", taskID, fp)

	if err := w.mapService.StartTask(ctx, taskID); err != nil {
		return err
	}
	w.notify(taskID, model.TaskRunning, "")

	evaluator, err := fractal.NewEvaluator(payload.Params)
	if err != nil {
		return w.fail(ctx, taskID, err)
	}
	if w.rowWorkers > 0 {
		evaluator.SetWorkers(w.rowWorkers)
	}

	field, err := evaluator.Evaluate(ctx)
	if err != nil {
		return w.fail(ctx, taskID, &model.ComputeError{Fingerprint: fp, Reason: err.Error()})
	}

	// Encode everything before writing anything: the only realistic failure
	// past this point is the store itself.
	blobs := make(map[string][]byte, len(model.MapNames))
	for _, name := range model.MapNames {
		blob, err := cache.EncodeRaw(field.Maps[name])
		if err != nil {
			return w.fail(ctx, taskID, fmt.Errorf("encode %s: %w", name, err))
		}
		blobs[name] = blob
	}

	written := make([]string, 0, len(model.MapNames))
	for _, name := range model.MapNames {
		if err := w.store.PutMap(ctx, fp, name, model.EncodingRaw, blobs[name]); err != nil {
			for _, undo := range written {
				if derr := w.store.DeleteMap(ctx, fp, undo, model.EncodingRaw); derr != nil {
					log.Printf("rollback of %s/%s failed: %v", fp, undo, derr)
				}
			}
			return w.fail(ctx, taskID, err)
		}
		written = append(written, name)
	}

	// All cache writes happened-before this transition; a poller that sees
	// Succeeded can read every map.
	if err := w.mapService.CompleteTask(ctx, taskID); err != nil {
		return err
	}
	w.notify(taskID, model.TaskSucceeded, "")
	log.Printf("Field computation %s succeeded", taskID)
	return nil
}

func (w *ComputeWorker) fail(ctx context.Context, taskID string, cause error) error {
	if err := w.mapService.FailTask(ctx, taskID, cause.Error()); err != nil {
		log.Printf("failed to record task failure for %s: %v", taskID, err)
	}
	w.notify(taskID, model.TaskFailed, cause.Error())
	return cause
}

func (w *ComputeWorker) notify(taskID string, state model.TaskState, detail string) {
	if w.hub == nil {
		return
	}
	w.hub.BroadcastState(taskID, state, detail)
}
