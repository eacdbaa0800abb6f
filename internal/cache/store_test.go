package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/frxplorer/api/internal/model"
)

func TestMemoryStore_PutGetRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	blob := []byte{1, 2, 3, 4}
	if err := store.PutMap(ctx, "fp", model.MapDistance, model.EncodingRaw, blob); err != nil {
		t.Fatalf("PutMap: %v", err)
	}

	got, err := store.GetMap(ctx, "fp", model.MapDistance, model.EncodingRaw)
	if err != nil {
		t.Fatalf("GetMap: %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("got %v, want %v", got, blob)
	}

	ok, err := store.HasMap(ctx, "fp", model.MapDistance, model.EncodingRaw)
	if err != nil || !ok {
		t.Errorf("HasMap = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestMemoryStore_MissIsNotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetMap(ctx, "fp", model.MapDistance, model.EncodingRaw); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	ok, err := store.HasMap(ctx, "fp", model.MapDistance, model.EncodingRaw)
	if err != nil || ok {
		t.Errorf("HasMap = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.PutMap(ctx, "fp", model.MapDistance, model.EncodingRaw, []byte("raw"))
	store.PutMap(ctx, "fp", model.MapDistance, model.EncodingPNG, []byte("png"))
	store.PutMap(ctx, "fp", model.MapIterations, model.EncodingRaw, []byte("other"))

	got, _ := store.GetMap(ctx, "fp", model.MapDistance, model.EncodingPNG)
	if string(got) != "png" {
		t.Errorf("encoding dimension leaked: got %q", got)
	}
	if _, err := store.GetMap(ctx, "other-fp", model.MapDistance, model.EncodingRaw); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("fingerprint dimension leaked: %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.PutMap(ctx, "fp", model.MapDistance, model.EncodingRaw, []byte("raw"))
	if err := store.DeleteMap(ctx, "fp", model.MapDistance, model.EncodingRaw); err != nil {
		t.Fatalf("DeleteMap: %v", err)
	}
	if _, err := store.GetMap(ctx, "fp", model.MapDistance, model.EncodingRaw); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting a missing key is a no-op.
	if err := store.DeleteMap(ctx, "fp", model.MapDistance, model.EncodingRaw); err != nil {
		t.Errorf("double delete: %v", err)
	}
}

func TestMemoryStore_CopiesBlobs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	blob := []byte{1, 2, 3}
	store.PutMap(ctx, "fp", model.MapDistance, model.EncodingRaw, blob)
	blob[0] = 99

	got, _ := store.GetMap(ctx, "fp", model.MapDistance, model.EncodingRaw)
	if got[0] != 1 {
		t.Error("store did not copy the blob on write")
	}
	got[1] = 99
	again, _ := store.GetMap(ctx, "fp", model.MapDistance, model.EncodingRaw)
	if again[1] != 2 {
		t.Error("store did not copy the blob on read")
	}
}

func TestLastWriterWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.PutMap(ctx, "fp", model.MapDistance, model.EncodingRaw, []byte("first"))
	store.PutMap(ctx, "fp", model.MapDistance, model.EncodingRaw, []byte("second"))
	got, _ := store.GetMap(ctx, "fp", model.MapDistance, model.EncodingRaw)
	if string(got) != "second" {
		t.Errorf("got %q, want the later write", got)
	}
}
