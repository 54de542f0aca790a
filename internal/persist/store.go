// Package persist moves encoded ledger snapshots between the ledger and
// durable storage.
package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/snapshot"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// SnapshotStore saves and loads one encoded bundle.
type SnapshotStore interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// FileStore keeps the bundle in a single local file. Writes go to a
// temporary file that is renamed over the target, so a crash never leaves a
// truncated snapshot behind.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save implements SnapshotStore.
func (s *FileStore) Save(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("FileStore.Save: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("FileStore.Save: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("FileStore.Save: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("FileStore.Save: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("FileStore.Save: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("FileStore.Save: rename: %w", err)
	}
	return nil
}

// Load implements SnapshotStore.
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("FileStore.Load: %w", err)
	}
	return data, nil
}

// LoadState reads and decodes the stored bundle. ok is false when the store
// is empty.
func LoadState(ctx context.Context, store SnapshotStore) (state domain.State, ok bool, err error) {
	data, err := store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return domain.State{}, false, nil
	}
	if err != nil {
		return domain.State{}, false, fmt.Errorf("LoadState: %w", err)
	}
	state, _, err = snapshot.Decode(data)
	if err != nil {
		return domain.State{}, false, fmt.Errorf("LoadState: decode: %w", err)
	}
	return state, true, nil
}

// SaveState encodes state and writes it synchronously.
func SaveState(ctx context.Context, store SnapshotStore, state domain.State) error {
	data, err := snapshot.Encode(state)
	if err != nil {
		return fmt.Errorf("SaveState: %w", err)
	}
	if err := store.Save(ctx, data); err != nil {
		return fmt.Errorf("SaveState: %w", err)
	}
	return nil
}

var _ SnapshotStore = (*FileStore)(nil)
