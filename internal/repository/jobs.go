package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
)

var (
	ErrNotFound = errors.New("resource not found")
	// ErrFinished rejects an update whose stored record is already
	// terminal, so a late worker write can never resurrect a job that was
	// cancelled or timed out in the meantime.
	ErrFinished = errors.New("job already finished")
)

// JobsRepository abstracts job persistence and query operations.
type JobsRepository interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	// UpdateJob replaces the record, but only while the stored record is
	// non-terminal; it reports ErrFinished otherwise.
	UpdateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	ListJobs(ctx context.Context, filter domain.JobListFilter) ([]domain.JobListItem, int, error)
}

// MemoryJobsRepository stores jobs in memory for local development.
type MemoryJobsRepository struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

func NewMemoryJobsRepository() *MemoryJobsRepository {
	return &MemoryJobsRepository{
		jobs: make(map[string]*domain.Job),
	}
}

func (r *MemoryJobsRepository) CreateJob(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *MemoryJobsRepository) UpdateJob(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.jobs[job.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status.Terminal() {
		return ErrFinished
	}
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *MemoryJobsRepository) GetJob(_ context.Context, jobID string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(job), nil
}

func (r *MemoryJobsRepository) DeleteJob(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[jobID]; !ok {
		return ErrNotFound
	}
	delete(r.jobs, jobID)
	return nil
}

func (r *MemoryJobsRepository) ListJobs(
	_ context.Context,
	filter domain.JobListFilter,
) ([]domain.JobListItem, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items := make([]domain.JobListItem, 0)
	for _, job := range r.jobs {
		if filter.Type != "" && job.Type != filter.Type {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.From != nil && job.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && job.CreatedAt.After(*filter.To) {
			continue
		}
		items = append(items, domain.JobListItem{
			JobID:     job.ID,
			Type:      job.Type,
			Status:    job.Status,
			Progress:  job.Progress,
			CreatedAt: job.CreatedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	total := len(items)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []domain.JobListItem{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}

	return items[start:end], total, nil
}

func cloneJob(job *domain.Job) *domain.Job {
	if job == nil {
		return nil
	}
	clone := *job
	clone.Result = append([]byte(nil), job.Result...)
	if job.Metadata != nil {
		clone.Metadata = make(map[string]any, len(job.Metadata))
		for key, value := range job.Metadata {
			clone.Metadata[key] = value
		}
	}
	if job.CompletedAt != nil {
		completedAt := *job.CompletedAt
		clone.CompletedAt = &completedAt
	}
	return &clone
}
