// Package gcs stores ledger snapshots and exports in Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type ObjectStorage interface {
	// ReadObject downloads the object bytes.
	ReadObject(ctx context.Context, bucket, object string) ([]byte, error)

	// WriteObject uploads data, replacing any existing object.
	WriteObject(ctx context.Context, bucket, object string, data []byte, contentType string) error
}
