package replay

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/apedley/SparkyFitness/internal/model"
)

// newTestStore creates a snapshot store on a temporary on-disk database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replay.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	payload := []byte(`{"user_id":"u1","data":{"steps":[]}}`)
	if err := store.Save(ctx, DatasetWellness, payload); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, DatasetWellness)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("loaded %q, want %q", got, payload)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Save(ctx, DatasetActivities, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, DatasetActivities, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.Load(ctx, DatasetActivities)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("expected the later snapshot, got %q", got)
	}
}

func TestStore_DatasetsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Save(ctx, DatasetWellness, []byte(`{"kind":"wellness"}`)); err != nil {
		t.Fatalf("save wellness: %v", err)
	}
	if err := store.Save(ctx, DatasetActivities, []byte(`{"kind":"activities"}`)); err != nil {
		t.Fatalf("save activities: %v", err)
	}

	wellness, err := store.Load(ctx, DatasetWellness)
	if err != nil {
		t.Fatalf("load wellness: %v", err)
	}
	activities, err := store.Load(ctx, DatasetActivities)
	if err != nil {
		t.Fatalf("load activities: %v", err)
	}
	if string(wellness) == string(activities) {
		t.Fatal("datasets must not share a row")
	}
}

func TestStore_LoadMissingDataset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Load(ctx, DatasetWellness)
	if err == nil {
		t.Fatal("expected an error for a dataset never saved")
	}
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "replay.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Save(ctx, DatasetWellness, []byte(`{"persisted":true}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Load(ctx, DatasetWellness)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if string(got) != `{"persisted":true}` {
		t.Fatalf("snapshot lost across reopen: %q", got)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "replay.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open with missing parent: %v", err)
	}
	_ = store.Close()
}
