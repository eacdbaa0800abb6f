package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/frxplorer/api/internal/cache"
	"github.com/frxplorer/api/internal/model"
	"github.com/frxplorer/api/internal/service"
)

func TestPNGWorker_EncodesCachedRawMap(t *testing.T) {
	store := cache.NewMemoryStore()
	tasks := service.NewMemoryTaskStore()
	enq := &fakeEnqueuer{}
	svc := service.NewMapService(store, tasks, enq)
	w := NewPNGWorker(svc, store, nil)
	ctx := context.Background()

	params := workerParams()
	fp := params.Fingerprint()

	values := make([]float32, params.Resolution*params.Resolution)
	for i := range values {
		values[i] = float32(i % 7)
	}
	raw, err := cache.EncodeRaw(values)
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}
	if err := store.PutMap(ctx, fp, model.MapDistance, model.EncodingRaw, raw); err != nil {
		t.Fatalf("PutMap: %v", err)
	}

	// The request path queues the encode task.
	_, taskID, err := svc.GetMapBlob(ctx, params, model.MapDistance, model.EncodingPNG)
	if err != nil {
		t.Fatalf("GetMapBlob: %v", err)
	}
	if taskID == "" {
		t.Fatal("expected a png task id")
	}

	if err := w.ProcessTask(ctx, enq.last(t)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}

	status, err := svc.Status(ctx, taskID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.State != model.TaskSucceeded {
		t.Fatalf("state = %q, want succeeded", status.State)
	}

	blob, _, err := svc.GetMapBlob(ctx, params, model.MapDistance, model.EncodingPNG)
	if err != nil {
		t.Fatalf("png still missing after the task: %v", err)
	}
	levels, res, err := cache.DecodePNG(blob)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	if res != params.Resolution {
		t.Errorf("resolution = %d, want %d", res, params.Resolution)
	}
	if len(levels) != params.Resolution*params.Resolution {
		t.Errorf("got %d levels", len(levels))
	}
}

func TestPNGWorker_MissingRawFailsTask(t *testing.T) {
	store := cache.NewMemoryStore()
	tasks := service.NewMemoryTaskStore()
	svc := service.NewMapService(store, tasks, &fakeEnqueuer{})
	w := NewPNGWorker(svc, store, nil)
	ctx := context.Background()

	params := workerParams()
	record := &model.Task{
		ID:          "png-task",
		Kind:        model.TaskKindPNG,
		Fingerprint: params.Fingerprint(),
		MapName:     model.MapDistance,
		State:       model.TaskPending,
	}
	if err := tasks.Save(ctx, record); err != nil {
		t.Fatalf("Save: %v", err)
	}
	payload, _ := json.Marshal(model.PNGTaskPayload{
		TaskID:      "png-task",
		Params:      *params,
		MapName:     model.MapDistance,
		Fingerprint: params.Fingerprint(),
	})

	if err := w.ProcessTask(ctx, asynq.NewTask(service.TaskTypePNG, payload)); err == nil {
		t.Fatal("expected the missing raw map to fail the task")
	}

	status, err := svc.Status(ctx, "png-task")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.State != model.TaskFailed {
		t.Errorf("state = %q, want failed", status.State)
	}

	if _, err := store.GetMap(ctx, params.Fingerprint(), model.MapDistance, model.EncodingPNG); !errors.Is(err, model.ErrNotFound) {
		t.Error("failed encode must not cache a png")
	}
}
