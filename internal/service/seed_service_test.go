package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frxplorer/api/internal/model"
)

func TestSeedService_CreateAndGet(t *testing.T) {
	svc := NewSeedService(NewMemorySeedStore())
	ctx := context.Background()

	seed, err := svc.Create(ctx, &model.SeedCreateRequest{Name: "seahorse valley", Params: *testParams()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if seed.ID == "" {
		t.Fatal("expected an id")
	}
	if seed.Status != model.SeedStatusActive {
		t.Errorf("status = %q, want active", seed.Status)
	}

	got, err := svc.Get(ctx, seed.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "seahorse valley" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Params.Fingerprint() != testParams().Fingerprint() {
		t.Error("stored params do not match")
	}
}

func TestSeedService_SequentialDisplayIDs(t *testing.T) {
	svc := NewSeedService(NewMemorySeedStore())
	ctx := context.Background()

	for i, name := range []string{"first", "second", "third"} {
		seed, err := svc.Create(ctx, &model.SeedCreateRequest{Name: name, Params: *testParams()})
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		if seed.DisplayID != i+1 {
			t.Errorf("%s got display id %d, want %d", name, seed.DisplayID, i+1)
		}
	}
}

func TestSeedService_CreateRejectsInvalidParams(t *testing.T) {
	svc := NewSeedService(NewMemorySeedStore())

	params := *testParams()
	params.Bailout = 0
	_, err := svc.Create(context.Background(), &model.SeedCreateRequest{Name: "broken", Params: params})
	if !model.IsInvalidParams(err) {
		t.Errorf("expected a params error, got %v", err)
	}
}

func TestSeedService_ListFiltersAndSorts(t *testing.T) {
	store := NewMemorySeedStore()
	svc := NewSeedService(store)
	ctx := context.Background()

	// Seed the store directly so creation times are distinct and known.
	base := time.Now()
	for i, name := range []string{"oldest", "middle", "newest"} {
		store.Save(ctx, &model.Seed{
			ID:        name,
			Name:      name,
			Params:    *testParams(),
			Status:    model.SeedStatusActive,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	store.Save(ctx, &model.Seed{
		ID:        "gone",
		Name:      "gone",
		Params:    *testParams(),
		Status:    model.SeedStatusRetired,
		CreatedAt: base,
	})

	active, err := svc.List(ctx, model.SeedStatusActive)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("got %d active seeds, want 3", len(active))
	}
	if active[0].Name != "newest" || active[2].Name != "oldest" {
		t.Errorf("expected newest-first order, got %s ... %s", active[0].Name, active[2].Name)
	}

	retired, err := svc.List(ctx, model.SeedStatusRetired)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(retired) != 1 || retired[0].Name != "gone" {
		t.Errorf("retired list = %v", retired)
	}
}

func TestSeedService_Update(t *testing.T) {
	svc := NewSeedService(NewMemorySeedStore())
	ctx := context.Background()

	seed, _ := svc.Create(ctx, &model.SeedCreateRequest{Name: "before", Params: *testParams()})

	name := "after"
	newParams := *testParams()
	newParams.Resolution = 16
	updated, err := svc.Update(ctx, seed.ID, &model.SeedUpdateRequest{Name: &name, Params: &newParams})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "after" || updated.Params.Resolution != 16 {
		t.Errorf("update not applied: %+v", updated)
	}

	badParams := *testParams()
	badParams.Power = 0
	if _, err := svc.Update(ctx, seed.ID, &model.SeedUpdateRequest{Params: &badParams}); !model.IsInvalidParams(err) {
		t.Errorf("expected a params error, got %v", err)
	}
}

func TestSeedService_RetireRestoreLifecycle(t *testing.T) {
	svc := NewSeedService(NewMemorySeedStore())
	ctx := context.Background()

	seed, _ := svc.Create(ctx, &model.SeedCreateRequest{Name: "preset", Params: *testParams()})

	retired, err := svc.Retire(ctx, seed.ID)
	if err != nil {
		t.Fatalf("Retire: %v", err)
	}
	if retired.Status != model.SeedStatusRetired {
		t.Errorf("status = %q, want retired", retired.Status)
	}
	if _, err := svc.Retire(ctx, seed.ID); err == nil {
		t.Error("double retire should fail")
	}

	restored, err := svc.Restore(ctx, seed.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Status != model.SeedStatusActive {
		t.Errorf("status = %q, want active", restored.Status)
	}
}

func TestSeedService_UnknownID(t *testing.T) {
	svc := NewSeedService(NewMemorySeedStore())
	ctx := context.Background()

	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Retire(ctx, "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Retire: expected ErrNotFound, got %v", err)
	}
}
