package gcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-ledger/internal/persist"
)

const snapshotContentType = "application/json"

// Store keeps the ledger snapshot in one bucket object.
type Store struct {
	storage ObjectStorage
	bucket  string
	object  string
}

// NewStore creates a snapshot store for gs://bucket/object.
func NewStore(storage ObjectStorage, uri string) (*Store, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("NewStore: %w", err)
	}
	return &Store{storage: storage, bucket: bucket, object: object}, nil
}

// URI returns the gs:// location of the snapshot.
func (s *Store) URI() string {
	return "gs://" + s.bucket + "/" + s.object
}

// Save implements persist.SnapshotStore.
func (s *Store) Save(ctx context.Context, data []byte) error {
	if err := s.storage.WriteObject(ctx, s.bucket, s.object, data, snapshotContentType); err != nil {
		return fmt.Errorf("Store.Save: %w", err)
	}
	return nil
}

// Load implements persist.SnapshotStore.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	data, err := s.storage.ReadObject(ctx, s.bucket, s.object)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, persist.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("Store.Load: %w", err)
	}
	return data, nil
}

// ReadURI downloads the object at a gs:// URI.
func ReadURI(ctx context.Context, storage ObjectStorage, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("ReadURI: %w", err)
	}
	return storage.ReadObject(ctx, bucket, object)
}

// WriteURI uploads data to a gs:// URI.
func WriteURI(ctx context.Context, storage ObjectStorage, uri string, data []byte, contentType string) error {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return fmt.Errorf("WriteURI: %w", err)
	}
	return storage.WriteObject(ctx, bucket, object, data, contentType)
}

var _ persist.SnapshotStore = (*Store)(nil)
