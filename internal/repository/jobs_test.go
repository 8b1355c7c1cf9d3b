package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
)

func newJob(id string, jobType domain.JobType, status domain.JobStatus, createdAt time.Time) *domain.Job {
	return &domain.Job{
		ID:        id,
		Type:      jobType,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestMemoryRepositoryCRUD(t *testing.T) {
	repo := NewMemoryJobsRepository()
	ctx := context.Background()

	job := newJob("job_1", domain.JobTypePPTX2JSON, domain.JobStatusPending, time.Now().UTC())
	job.Metadata = map[string]any{"original_name": "deck.pptx"}
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := repo.GetJob(ctx, "job_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Type != domain.JobTypePPTX2JSON || loaded.Status != domain.JobStatusPending {
		t.Fatalf("unexpected job: %+v", loaded)
	}

	loaded.Status = domain.JobStatusCompleted
	if err := repo.UpdateJob(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}
	reloaded, _ := repo.GetJob(ctx, "job_1")
	if reloaded.Status != domain.JobStatusCompleted {
		t.Fatalf("update not persisted: %+v", reloaded)
	}

	if err := repo.DeleteJob(ctx, "job_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetJob(ctx, "job_1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.UpdateJob(ctx, job); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating deleted job, got %v", err)
	}
}

func TestMemoryRepositoryRejectsTerminalOverwrite(t *testing.T) {
	repo := NewMemoryJobsRepository()
	ctx := context.Background()

	job := newJob("job_1", domain.JobTypePPTX2JSON, domain.JobStatusProcessing, time.Now().UTC())
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled := newJob("job_1", domain.JobTypePPTX2JSON, domain.JobStatusFailed, job.CreatedAt)
	cancelled.ErrorMessage = "job cancelled by request"
	if err := repo.UpdateJob(ctx, cancelled); err != nil {
		t.Fatalf("terminal write: %v", err)
	}

	// A worker result landing after cancellation must be refused.
	late := newJob("job_1", domain.JobTypePPTX2JSON, domain.JobStatusCompleted, job.CreatedAt)
	late.Progress = 100
	if err := repo.UpdateJob(ctx, late); !errors.Is(err, ErrFinished) {
		t.Fatalf("expected ErrFinished overwriting terminal job, got %v", err)
	}

	stored, _ := repo.GetJob(ctx, "job_1")
	if stored.Status != domain.JobStatusFailed || stored.ErrorMessage != "job cancelled by request" {
		t.Fatalf("terminal record was overwritten: %+v", stored)
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryJobsRepository()
	ctx := context.Background()

	job := newJob("job_1", domain.JobTypePPTX2JSON, domain.JobStatusPending, time.Now().UTC())
	job.Metadata = map[string]any{"key": "original"}
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mutating either the input or a loaded copy must not leak into the store.
	job.Metadata["key"] = "mutated-input"
	loaded, _ := repo.GetJob(ctx, "job_1")
	loaded.Metadata["key"] = "mutated-copy"
	loaded.Status = domain.JobStatusFailed

	fresh, _ := repo.GetJob(ctx, "job_1")
	if fresh.Metadata["key"] != "original" || fresh.Status != domain.JobStatusPending {
		t.Fatalf("stored job was mutated through a reference: %+v", fresh)
	}
}

func TestMemoryRepositoryListFiltersAndPages(t *testing.T) {
	repo := NewMemoryJobsRepository()
	ctx := context.Background()
	base := time.Now().UTC()

	jobs := []*domain.Job{
		newJob("job_a", domain.JobTypePPTX2JSON, domain.JobStatusCompleted, base.Add(-3*time.Minute)),
		newJob("job_b", domain.JobTypePPTX2JSON, domain.JobStatusPending, base.Add(-2*time.Minute)),
		newJob("job_c", domain.JobTypeJSON2PPTX, domain.JobStatusPending, base.Add(-1*time.Minute)),
		newJob("job_d", domain.JobTypeThumbnails, domain.JobStatusFailed, base),
	}
	for _, job := range jobs {
		if err := repo.CreateJob(ctx, job); err != nil {
			t.Fatalf("create %s: %v", job.ID, err)
		}
	}

	items, total, err := repo.ListJobs(ctx, domain.JobListFilter{Status: domain.JobStatusPending})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 pending jobs, got total=%d items=%d", total, len(items))
	}
	// Newest first.
	if items[0].JobID != "job_c" || items[1].JobID != "job_b" {
		t.Fatalf("expected newest-first ordering, got %+v", items)
	}

	items, total, err = repo.ListJobs(ctx, domain.JobListFilter{Type: domain.JobTypePPTX2JSON})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 extract jobs, got %d", total)
	}

	from := base.Add(-90 * time.Second)
	items, total, err = repo.ListJobs(ctx, domain.JobListFilter{From: &from})
	if err != nil {
		t.Fatalf("list by from: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 jobs after cutoff, got %d items=%+v", total, items)
	}

	items, total, err = repo.ListJobs(ctx, domain.JobListFilter{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if total != 4 || len(items) != 1 {
		t.Fatalf("expected last page with 1 item, got total=%d items=%d", total, len(items))
	}

	_, total, err = repo.ListJobs(ctx, domain.JobListFilter{Page: 9, PageSize: 3})
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected total to survive empty page, got %d", total)
	}
}
