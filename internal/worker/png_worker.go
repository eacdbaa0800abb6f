package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/frxplorer/api/internal/cache"
	"github.com/frxplorer/api/internal/model"
	"github.com/frxplorer/api/internal/service"
	"github.com/frxplorer/api/internal/websocket"
)

// PNGWorker encodes cached raw maps into the quantized grayscale PNG
// encoding, on demand.
type PNGWorker struct {
	mapService *service.MapService
	store      cache.Store
	hub        *websocket.Hub
}

func NewPNGWorker(mapService *service.MapService, store cache.Store, hub *websocket.Hub) *PNGWorker {
	return &PNGWorker{mapService: mapService, store: store, hub: hub}
}

// ProcessTask handles one fractal:png task.
func (w *PNGWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.PNGTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal png payload: %w", err)
	}

	taskID := payload.TaskID
	if err := w.mapService.StartTask(ctx, taskID); err != nil {
		return err
	}

	raw, err := w.store.GetMap(ctx, payload.Fingerprint, payload.MapName, model.EncodingRaw)
	if err != nil {
		return w.fail(ctx, taskID, fmt.Errorf("raw map unavailable: %w", err))
	}
	values, err := cache.DecodeRaw(raw)
	if err != nil {
		return w.fail(ctx, taskID, err)
	}

	blob, err := cache.EncodePNG(values, payload.Params.Resolution)
	if err != nil {
		return w.fail(ctx, taskID, err)
	}
	if err := w.store.PutMap(ctx, payload.Fingerprint, payload.MapName, model.EncodingPNG, blob); err != nil {
		return w.fail(ctx, taskID, err)
	}

	if err := w.mapService.CompleteTask(ctx, taskID); err != nil {
		return err
	}
	if w.hub != nil {
		w.hub.BroadcastState(taskID, model.TaskSucceeded, "")
	}
	log.Printf("PNG generation %s succeeded (%s)", taskID, payload.MapName)
	return nil
}

func (w *PNGWorker) fail(ctx context.Context, taskID string, cause error) error {
	if err := w.mapService.FailTask(ctx, taskID, cause.Error()); err != nil {
		log.Printf("failed to record task failure for %s: %v", taskID, err)
	}
	if w.hub != nil {
		w.hub.BroadcastState(taskID, model.TaskFailed, cause.Error())
	}
	return cause
}
