package inmemory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), jobID)
	t.Fatalf("job %s did not reach status %s, last = %+v", jobID, want, job)
}

func TestQueue_ProcessesJobs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	q := NewQueue(10, store)

	var mu sync.Mutex
	var seen [][]byte
	err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.(*jobs.PersistSnapshotJob).Payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.PersistSnapshotJob{Revision: 1, Payload: []byte(`{"version":3}`)}
	if err := q.PublishSnapshot(ctx, job); err != nil {
		t.Fatalf("PublishSnapshot failed: %v", err)
	}
	if job.JobID == "" || job.MaxRetries != 3 || job.Size != 13 {
		t.Errorf("defaults not applied: %+v", job)
	}

	waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if err := q.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || string(seen[0]) != `{"version":3}` {
		t.Errorf("handler saw %q", seen)
	}
	stored, _ := store.GetJob(ctx, job.JobID)
	if stored.Payload != nil {
		t.Error("store must not keep payloads")
	}
}

func TestQueue_FullBufferRejects(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	q := NewQueue(1, store)

	if err := q.PublishSnapshot(ctx, &jobs.PersistSnapshotJob{Revision: 1}); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	rejected := &jobs.PersistSnapshotJob{Revision: 2}
	if err := q.PublishSnapshot(ctx, rejected); !errors.Is(err, jobs.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	stored, err := store.GetJob(ctx, rejected.JobID)
	if err != nil || stored.Status != jobs.JobStatusFailed {
		t.Errorf("rejected job = %+v, %v", stored, err)
	}
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	q := NewQueue(10, store, WithWorkers(1), WithRetryBackoff(time.Millisecond))

	var calls atomic.Int32
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		if calls.Add(1) == 1 {
			return errors.New("bucket unavailable")
		}
		return nil
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.PersistSnapshotJob{Revision: 1}
	if err := q.PublishSnapshot(ctx, job); err != nil {
		t.Fatalf("PublishSnapshot failed: %v", err)
	}
	waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)

	stored, _ := store.GetJob(ctx, job.JobID)
	if stored.RetryCount != 1 || stored.Error != "" {
		t.Errorf("unexpected job %+v", stored)
	}
}

func TestQueue_GivesUpAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	q := NewQueue(10, store, WithMaxRetries(2), WithRetryBackoff(time.Millisecond))

	var calls atomic.Int32
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		calls.Add(1)
		return errors.New("disk full")
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.PersistSnapshotJob{Revision: 1}
	if err := q.PublishSnapshot(ctx, job); err != nil {
		t.Fatalf("PublishSnapshot failed: %v", err)
	}
	waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if got := calls.Load(); got != 3 {
		t.Errorf("handler calls = %d, want 3", got)
	}
}

func TestQueue_SkippedJobs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	q := NewQueue(10, store)
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		return jobs.ErrSkipped
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.PersistSnapshotJob{Revision: 1}
	if err := q.PublishSnapshot(ctx, job); err != nil {
		t.Fatalf("PublishSnapshot failed: %v", err)
	}
	waitForStatus(t, store, job.JobID, jobs.JobStatusSkipped)
}

func TestQueue_StopDrainsBufferedJobs(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(10, nil, WithWorkers(2))

	for i := 1; i <= 3; i++ {
		if err := q.PublishSnapshot(ctx, &jobs.PersistSnapshotJob{Revision: int64(i)}); err != nil {
			t.Fatalf("PublishSnapshot failed: %v", err)
		}
	}

	var processed atomic.Int32
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		processed.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := q.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if got := processed.Load(); got != 3 {
		t.Errorf("processed = %d, want 3", got)
	}

	if err := q.PublishSnapshot(ctx, &jobs.PersistSnapshotJob{}); !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
	if err := q.Start(ctx, nil); !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}

func TestQueue_RetryRunsOnACopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	q := NewQueue(10, store, WithWorkers(3), WithRetryBackoff(time.Millisecond))

	var mu sync.Mutex
	var attempts []*jobs.PersistSnapshotJob
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		attempts = append(attempts, job.(*jobs.PersistSnapshotJob))
		n := len(attempts)
		mu.Unlock()
		if n < 3 {
			return errors.New("bucket unavailable")
		}
		return nil
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.PersistSnapshotJob{Revision: 1, Payload: []byte("x")}
	if err := q.PublishSnapshot(ctx, job); err != nil {
		t.Fatalf("PublishSnapshot failed: %v", err)
	}
	waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(attempts))
	}
	if attempts[0] == attempts[1] || attempts[1] == attempts[2] {
		t.Error("each retry must get its own job value")
	}
	// Earlier attempts keep the status their worker left them in.
	for i, a := range attempts[:2] {
		if a.Status != jobs.JobStatusRetrying || a.RetryCount != i+1 {
			t.Errorf("attempt %d = %s/%d, want retrying/%d", i, a.Status, a.RetryCount, i+1)
		}
	}
	if string(attempts[2].Payload) != "x" {
		t.Errorf("retry lost its payload: %q", attempts[2].Payload)
	}

	stored, _ := store.GetJob(ctx, job.JobID)
	if stored.RetryCount != 2 || stored.Error != "" || stored.StartedAt == nil {
		t.Errorf("unexpected stored job %+v", stored)
	}
}
