package persist

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// MultiStore mirrors every save to all of its stores concurrently and loads
// from the first store that has a snapshot.
type MultiStore struct {
	stores []SnapshotStore
}

// NewMultiStore combines stores; the order decides load precedence.
func NewMultiStore(stores ...SnapshotStore) *MultiStore {
	return &MultiStore{stores: stores}
}

// Save implements SnapshotStore. It fails if any store fails.
func (m *MultiStore) Save(ctx context.Context, data []byte) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, store := range m.stores {
		g.Go(func() error {
			if err := store.Save(gctx, data); err != nil {
				return fmt.Errorf("store %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("MultiStore.Save: %w", err)
	}
	return nil
}

// Load implements SnapshotStore. Stores that fail are skipped as long as a
// later one succeeds.
func (m *MultiStore) Load(ctx context.Context) ([]byte, error) {
	var errs []error
	for _, store := range m.stores {
		data, err := store.Load(ctx)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNoSnapshot) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("MultiStore.Load: %w", errors.Join(errs...))
	}
	return nil, ErrNoSnapshot
}

var _ SnapshotStore = (*MultiStore)(nil)
