package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/frxplorer/api/internal/cache"
	"github.com/frxplorer/api/internal/service"
)

// fakeEnqueuer keeps enqueued tasks so tests can drive workers directly.
type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "queued"}, nil
}

func (f *fakeEnqueuer) last(t *testing.T) *asynq.Task {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tasks) == 0 {
		t.Fatal("no task was enqueued")
	}
	return f.tasks[len(f.tasks)-1]
}

type testApp struct {
	app      *fiber.App
	store    *cache.MemoryStore
	enqueuer *fakeEnqueuer
	mapSvc   *service.MapService
	seedSvc  *service.SeedService
	imageSvc *service.ImageService
}

// setupApp wires the full route surface against in-memory stores.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	store := cache.NewMemoryStore()
	tasks := service.NewMemoryTaskStore()
	enq := &fakeEnqueuer{}
	mapSvc := service.NewMapService(store, tasks, enq)
	seedSvc := service.NewSeedService(service.NewMemorySeedStore())
	imageSvc := service.NewImageService(service.NewMemoryImageStore(), store, nil)

	validate := validator.New()
	mapHandler := NewMapHandler(mapSvc, validate)
	seedHandler := NewSeedHandler(seedSvc, validate)
	imageHandler := NewImageHandler(imageSvc, validate)

	app := fiber.New()
	api := app.Group("/api")

	maps := api.Group("/maps")
	maps.Get("/calculate", mapHandler.Calculate)
	maps.Get("/status/:taskId", mapHandler.Status)
	maps.Get("/get", mapHandler.GetMap)

	seeds := api.Group("/seeds")
	seeds.Post("/", seedHandler.Create)
	seeds.Get("/", seedHandler.List)
	seeds.Get("/:seedId", seedHandler.Get)
	seeds.Put("/:seedId", seedHandler.Update)
	seeds.Post("/:seedId/retire", seedHandler.Retire)
	seeds.Post("/:seedId/restore", seedHandler.Restore)

	images := api.Group("/images")
	images.Post("/", imageHandler.Log)
	images.Get("/", imageHandler.List)
	images.Post("/:imageId/retire", imageHandler.Retire)
	images.Post("/:imageId/restore", imageHandler.Restore)

	return &testApp{
		app:      app,
		store:    store,
		enqueuer: enq,
		mapSvc:   mapSvc,
		seedSvc:  seedSvc,
		imageSvc: imageSvc,
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, target, err)
	}
	return resp
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body: %s)", resp.StatusCode, want, body)
	}
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return body
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", body, err)
	}
	return result
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	result := parseJSON(t, resp)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected an error object, got %v", result)
	}
	code, _ := errObj["code"].(string)
	return code
}
