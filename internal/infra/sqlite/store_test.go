package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dvloznov/finance-ledger/internal/persist"
)

func TestStore_SaveLoadPrune(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"), 2)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if _, err := store.Load(ctx); !errors.Is(err, persist.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	for _, payload := range []string{"one", "two", "three"} {
		if err := store.Save(ctx, []byte(payload)); err != nil {
			t.Fatalf("Save(%q) failed: %v", payload, err)
		}
	}

	data, err := store.Load(ctx)
	if err != nil || string(data) != "three" {
		t.Errorf("Load = %q, %v", data, err)
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("kept %d snapshots, want 2", len(infos))
	}
	if infos[0].Size != 5 || infos[0].ID <= infos[1].ID {
		t.Errorf("unexpected listing %+v", infos)
	}

	older, err := store.LoadByID(ctx, infos[1].ID)
	if err != nil || string(older) != "two" {
		t.Errorf("LoadByID = %q, %v", older, err)
	}
	if _, err := store.LoadByID(ctx, 9999); !errors.Is(err, persist.ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshots.db")

	store, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Save(ctx, []byte(`{"version":3}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store.Close()

	reopened, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	data, err := reopened.Load(ctx)
	if err != nil || string(data) != `{"version":3}` {
		t.Errorf("Load = %q, %v", data, err)
	}
}
