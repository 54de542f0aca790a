package inmemory

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/finance-ledger/internal/jobs"
)

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)

	for i, status := range []jobs.JobStatus{jobs.JobStatusCompleted, jobs.JobStatusFailed, jobs.JobStatusCompleted} {
		job := &jobs.PersistSnapshotJob{JobID: string(rune('a' + i)), Revision: int64(i + 1), Status: status}
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"c", "b", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusCompleted}, []string{"c", "a"}},
		{"limit", jobs.JobFilter{Limit: 1}, []string{"c"}},
		{"offset", jobs.JobFilter{Offset: 2}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].JobID != tt.want[i] {
					t.Errorf("job[%d] = %s, want %s", i, got[i].JobID, tt.want[i])
				}
			}
		})
	}
}

func TestStore_Retention(t *testing.T) {
	ctx := context.Background()
	store := NewStore(2)
	for i := 1; i <= 4; i++ {
		_ = store.SaveJob(ctx, &jobs.PersistSnapshotJob{JobID: string(rune('0' + i)), Revision: int64(i)})
	}

	got, _ := store.ListJobs(ctx, jobs.JobFilter{})
	if len(got) != 2 || got[0].JobID != "4" || got[1].JobID != "3" {
		t.Errorf("retained = %+v", got)
	}
	if _, err := store.GetJob(ctx, "1"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	if err := store.SaveJob(ctx, &jobs.PersistSnapshotJob{}); err == nil {
		t.Error("expected error for missing job ID")
	}
	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, "x"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}
