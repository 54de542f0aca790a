package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/jobs"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/snapshot"
	"github.com/rs/zerolog"
)

// QueuePersister hands each ledger state to a job publisher. It never
// blocks the ledger: encode or publish failures are logged and the snapshot
// is dropped, the next mutation carries the full state again.
type QueuePersister struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewQueuePersister creates a persister publishing to p.
func NewQueuePersister(p jobs.Publisher, log zerolog.Logger) *QueuePersister {
	return &QueuePersister{publisher: p, log: log}
}

// Persist implements ledger.Persister.
func (p *QueuePersister) Persist(ctx context.Context, rev int64, state domain.State) {
	data, err := snapshot.Encode(state)
	if err != nil {
		p.log.Error().Err(err).Int64("revision", rev).Msg("Failed to encode snapshot")
		return
	}
	job := &jobs.PersistSnapshotJob{Revision: rev, Payload: data}
	if err := p.publisher.PublishSnapshot(ctx, job); err != nil {
		p.log.Warn().Err(err).Int64("revision", rev).Msg("Snapshot dropped")
		return
	}
	p.log.Debug().Int64("revision", rev).Int("bytes", len(data)).Msg("Snapshot queued")
}

// SyncPersister writes every state straight to the store. Used by short
// lived processes where a background queue would outlive its work.
type SyncPersister struct {
	store SnapshotStore
	log   zerolog.Logger

	mu   sync.Mutex
	last int64
}

// NewSyncPersister creates a persister writing to store.
func NewSyncPersister(store SnapshotStore, log zerolog.Logger) *SyncPersister {
	return &SyncPersister{store: store, log: log}
}

// Persist implements ledger.Persister.
func (p *SyncPersister) Persist(ctx context.Context, rev int64, state domain.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rev <= p.last {
		return
	}
	if err := SaveState(ctx, p.store, state); err != nil {
		p.log.Warn().Err(err).Int64("revision", rev).Msg("Failed to persist snapshot")
		return
	}
	p.last = rev
}

// SnapshotWriter is the job handler that writes queued snapshots. Saves are
// serialized and a job older than the last written revision is skipped, so
// retries and parallel workers cannot roll the store back.
type SnapshotWriter struct {
	store SnapshotStore
	log   zerolog.Logger

	mu   sync.Mutex
	last int64
}

// NewSnapshotWriter creates a writer for store.
func NewSnapshotWriter(store SnapshotStore, log zerolog.Logger) *SnapshotWriter {
	return &SnapshotWriter{store: store, log: log}
}

// Handle implements jobs.JobHandler.
func (w *SnapshotWriter) Handle(ctx context.Context, job jobs.Job) error {
	snap, ok := job.(*jobs.PersistSnapshotJob)
	if !ok {
		return fmt.Errorf("Handle: unexpected job type %s", job.GetType())
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if snap.Revision <= w.last {
		w.log.Debug().Int64("revision", snap.Revision).Int64("last", w.last).Msg("Skipping stale snapshot")
		return jobs.ErrSkipped
	}
	if err := w.store.Save(ctx, snap.Payload); err != nil {
		w.log.Warn().Err(err).Int64("revision", snap.Revision).Int("retry", snap.RetryCount).Msg("Snapshot save failed")
		return fmt.Errorf("Handle: save revision %d: %w", snap.Revision, err)
	}
	w.last = snap.Revision
	w.log.Debug().Int64("revision", snap.Revision).Msg("Snapshot saved")
	return nil
}

// LastRevision returns the newest revision written.
func (w *SnapshotWriter) LastRevision() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

var (
	_ ledger.Persister = (*QueuePersister)(nil)
	_ ledger.Persister = (*SyncPersister)(nil)
)
