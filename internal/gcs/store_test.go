package gcs

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/finance-ledger/internal/persist"
)

// fakeStorage keeps objects in a map keyed by bucket/object.
type fakeStorage struct {
	objects      map[string][]byte
	contentTypes map[string]string
	err          error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeStorage) ReadObject(ctx context.Context, bucket, object string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[bucket+"/"+object]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return data, nil
}

func (f *fakeStorage) WriteObject(ctx context.Context, bucket, object string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.objects[bucket+"/"+object] = data
	f.contentTypes[bucket+"/"+object] = contentType
	return nil
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://ledger/snapshots/ledger.json", "ledger", "snapshots/ledger.json", false},
		{"gs://ledger/ledger.json", "ledger", "ledger.json", false},
		{"gs://ledger", "", "", true},
		{"gs://ledger/", "", "", true},
		{"s3://ledger/x.json", "", "", true},
		{"/tmp/ledger.json", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI() = %q, %q", bucket, object)
			}
		})
	}
}

func TestFilenameFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gs://bucket/folder/ledger.json", "ledger.json"},
		{"gs://bucket/ledger.json", "ledger.json"},
		{"gs://bucket", "bucket"},
	}
	for _, tt := range tests {
		if got := FilenameFromURI(tt.uri); got != tt.want {
			t.Errorf("FilenameFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStorage()
	store, err := NewStore(fake, "gs://ledger-bucket/state/ledger.json")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store.URI() != "gs://ledger-bucket/state/ledger.json" {
		t.Errorf("URI() = %q", store.URI())
	}

	if _, err := store.Load(ctx); !errors.Is(err, persist.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	if err := store.Save(ctx, []byte(`{"version":3}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ct := fake.contentTypes["ledger-bucket/state/ledger.json"]; ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	data, err := store.Load(ctx)
	if err != nil || string(data) != `{"version":3}` {
		t.Errorf("Load = %q, %v", data, err)
	}

	fake.err = errors.New("permission denied")
	if _, err := store.Load(ctx); err == nil || errors.Is(err, persist.ErrNoSnapshot) {
		t.Errorf("expected wrapped error, got %v", err)
	}

	if _, err := NewStore(fake, "ledger.json"); err == nil {
		t.Error("expected error for non-gs URI")
	}
}

func TestReadWriteURI(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStorage()
	if err := WriteURI(ctx, fake, "gs://b/exports/tx.csv", []byte("a,b,c"), "text/csv"); err != nil {
		t.Fatalf("WriteURI failed: %v", err)
	}
	data, err := ReadURI(ctx, fake, "gs://b/exports/tx.csv")
	if err != nil || string(data) != "a,b,c" {
		t.Errorf("ReadURI = %q, %v", data, err)
	}
	if _, err := ReadURI(ctx, fake, "not-a-uri"); err == nil {
		t.Error("expected error")
	}
}
