package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dvloznov/finance-ledger/internal/jobs"
)

// Store is an in-memory implementation of JobStore.
// It keeps job metadata only (no payloads) and is safe for concurrent use.
// Entries beyond the retention limit are evicted oldest revision first.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*jobs.PersistSnapshotJob
	retention int
}

// NewStore creates a new in-memory job store keeping at most retention jobs.
// A retention of zero keeps everything.
func NewStore(retention int) *Store {
	return &Store{
		jobs:      make(map[string]*jobs.PersistSnapshotJob),
		retention: retention,
	}
}

// SaveJob implements the JobStore interface.
// It saves or updates a job in memory.
func (s *Store) SaveJob(ctx context.Context, job *jobs.PersistSnapshotJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Create a copy to avoid external modifications
	jobCopy := *job
	jobCopy.Payload = nil
	s.jobs[job.JobID] = &jobCopy

	if s.retention > 0 && len(s.jobs) > s.retention {
		s.evictLocked()
	}
	return nil
}

func (s *Store) evictLocked() {
	all := s.sortedLocked()
	for _, job := range all[s.retention:] {
		delete(s.jobs, job.JobID)
	}
}

// GetJob implements the JobStore interface.
// It retrieves a job by ID from memory.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.PersistSnapshotJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("GetJob: %s: %w", jobID, jobs.ErrJobNotFound)
	}

	// Return a copy to avoid external modifications
	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs implements the JobStore interface.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.PersistSnapshotJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.PersistSnapshotJob
	for _, job := range s.sortedLocked() {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}

	// Apply limit and offset
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.PersistSnapshotJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// sortedLocked returns the stored jobs ordered by revision, newest first.
func (s *Store) sortedLocked() []*jobs.PersistSnapshotJob {
	all := make([]*jobs.PersistSnapshotJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		all = append(all, job)
	}
	slices.SortFunc(all, func(a, b *jobs.PersistSnapshotJob) int {
		if a.Revision != b.Revision {
			if a.Revision > b.Revision {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return all
}

// UpdateJobStatus implements the JobStore interface.
// It updates the status of a job in memory.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("UpdateJobStatus: %s: %w", jobID, jobs.ErrJobNotFound)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	return nil
}

// Ensure Store implements JobStore interface.
var _ jobs.JobStore = (*Store)(nil)
