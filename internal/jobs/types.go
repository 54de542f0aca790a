package jobs

import (
	"context"
	"errors"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypePersistSnapshot writes an encoded ledger bundle to the snapshot store.
	JobTypePersistSnapshot JobType = "persist_snapshot"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusSkipped indicates a newer snapshot was already written.
	JobStatusSkipped JobStatus = "skipped"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

var (
	// ErrQueueFull is returned by publishers that refuse to block.
	ErrQueueFull = errors.New("queue is full")

	// ErrQueueClosed is returned once the queue has been stopped.
	ErrQueueClosed = errors.New("queue is closed")

	// ErrJobNotFound is returned by job stores for unknown IDs.
	ErrJobNotFound = errors.New("job not found")
)

// PersistSnapshotJob carries one encoded ledger bundle.
type PersistSnapshotJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Revision increases with every mutation; a store never goes back to an
	// older revision.
	Revision int64 `json:"revision"`

	// Payload is the encoded bundle. Job stores do not keep it.
	Payload []byte `json:"-"`

	// Size is len(Payload) at publish time.
	Size int `json:"size"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *PersistSnapshotJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *PersistSnapshotJob) GetType() JobType {
	return JobTypePersistSnapshot
}

// GetStatus implements the Job interface.
func (j *PersistSnapshotJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishSnapshot enqueues a snapshot job. It never blocks: when the
	// queue is full it returns ErrQueueFull.
	PublishSnapshot(ctx context.Context, job *PersistSnapshotJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs, processes what is still queued and waits
	// for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
// Returning ErrSkipped marks the job as skipped instead of completed.
type JobHandler func(ctx context.Context, job Job) error

// ErrSkipped tells the queue the job was intentionally not executed.
var ErrSkipped = errors.New("job skipped")

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *PersistSnapshotJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*PersistSnapshotJob, error)

	// ListJobs retrieves jobs with optional filtering, newest revision first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*PersistSnapshotJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
