// Package orchestrator schedules async conversion jobs: a FIFO queue of
// job ids, a polling dispatcher bounded by a concurrency ceiling, per-job
// timeouts, and cooperative cancellation.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
	"github.com/anlaklab/simple-luna-sub003/internal/jobstore"
	"github.com/anlaklab/simple-luna-sub003/internal/repository"
)

var ErrJobNotFound = errors.New("job not found")

const (
	defaultMaxConcurrentJobs = 3
	defaultDispatchInterval  = 100 * time.Millisecond
	defaultJobTimeout        = 5 * time.Minute

	// progressStarted is written when a worker claims the job, so a
	// processing job is never reported at zero progress.
	progressStarted = 5
)

// Runner executes one claimed job. Implementations report progress through
// the callback and must return promptly once ctx is cancelled.
type Runner interface {
	Run(ctx context.Context, envelope jobstore.Envelope, progress func(int)) (json.RawMessage, map[string]any, error)
}

type Config struct {
	MaxConcurrentJobs int
	DispatchInterval  time.Duration
	DefaultJobTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentJobs <= 0 {
		c.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if c.DispatchInterval <= 0 {
		c.DispatchInterval = defaultDispatchInterval
	}
	if c.DefaultJobTimeout <= 0 {
		c.DefaultJobTimeout = defaultJobTimeout
	}
	return c
}

// activeJob tracks one running job. Once expired is set the worker no
// longer owns the job record and must not write a terminal state.
type activeJob struct {
	cancel  context.CancelFunc
	timer   *time.Timer
	started time.Time
	expired bool
}

type Orchestrator struct {
	cfg    Config
	repo   repository.JobsRepository
	store  jobstore.Store
	runner Runner
	logger *log.Logger

	mu     sync.Mutex
	queue  []string
	active map[string]*activeJob
}

func New(
	cfg Config,
	repo repository.JobsRepository,
	store jobstore.Store,
	runner Runner,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg.withDefaults(),
		repo:   repo,
		store:  store,
		runner: runner,
		logger: logger,
		queue:  make([]string, 0),
		active: make(map[string]*activeJob),
	}
}

// EnqueueOptions tune a single submission.
type EnqueueOptions struct {
	// Timeout overrides the configured default when positive.
	Timeout  time.Duration
	Metadata map[string]any
}

// Enqueue registers a pending job and queues its payload for dispatch.
// The returned job snapshot is the record as persisted.
func (o *Orchestrator) Enqueue(
	ctx context.Context,
	jobType domain.JobType,
	payload json.RawMessage,
	opts EnqueueOptions,
) (*domain.Job, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = o.cfg.DefaultJobTimeout
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        "job_" + uuid.NewString(),
		Type:      jobType,
		Status:    domain.JobStatusPending,
		Progress:  0,
		Metadata:  opts.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := o.repo.CreateJob(ctx, job); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, err, "create job record")
	}
	envelope := jobstore.Envelope{
		JobID:     job.ID,
		Type:      jobType,
		TimeoutMS: timeout.Milliseconds(),
		Payload:   payload,
	}
	if err := o.store.Put(ctx, envelope); err != nil {
		return nil, domain.WrapError(domain.ErrCodeServiceUnavailable, err, "queue job payload")
	}

	o.mu.Lock()
	o.queue = append(o.queue, job.ID)
	o.mu.Unlock()

	if o.logger != nil {
		o.logger.Printf("job enqueued id=%s type=%s timeout=%s", job.ID, jobType, timeout)
	}
	return job, nil
}

// GetStatus returns the persisted job record.
func (o *Orchestrator) GetStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := o.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// Cancel stops a job. Queued jobs fail immediately; running jobs get a
// cooperative cancel and their record is marked failed right away so a
// late worker result cannot resurrect it. Cancelling an already terminal
// job is a no-op.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	job, err := o.GetStatus(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return nil
	}

	o.mu.Lock()
	o.queue = removeID(o.queue, jobID)
	if running, ok := o.active[jobID]; ok {
		running.expired = true
		running.timer.Stop()
		running.cancel()
	}
	o.mu.Unlock()

	_ = o.store.Delete(ctx, jobID)
	err = o.finishJob(ctx, job, domain.JobStatusFailed, "job cancelled by request")
	if errors.Is(err, repository.ErrFinished) {
		// The job reached a terminal state between the status read and
		// the write; cancel stays an idempotent no-op.
		return nil
	}
	return err
}

// QueueStats snapshots the queue without touching the repository.
func (o *Orchestrator) QueueStats() domain.QueueStats {
	o.mu.Lock()
	defer o.mu.Unlock()

	activeIDs := make([]string, 0, len(o.active))
	for jobID := range o.active {
		activeIDs = append(activeIDs, jobID)
	}
	return domain.QueueStats{
		QueueLength:     len(o.queue),
		ProcessingCount: len(o.active),
		MaxConcurrent:   o.cfg.MaxConcurrentJobs,
		ActiveJobIDs:    activeIDs,
	}
}

// Start runs the dispatch loop until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.DispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.dispatch(ctx)
		}
	}
}

// dispatch claims queued jobs up to the concurrency ceiling.
func (o *Orchestrator) dispatch(ctx context.Context) {
	for {
		o.mu.Lock()
		if len(o.queue) == 0 || len(o.active) >= o.cfg.MaxConcurrentJobs {
			o.mu.Unlock()
			return
		}
		jobID := o.queue[0]
		o.queue = o.queue[1:]
		o.mu.Unlock()

		envelope, err := o.store.Get(ctx, jobID)
		if err != nil {
			// Cancelled while queued, or the payload expired.
			if o.logger != nil && !errors.Is(err, jobstore.ErrNotFound) {
				o.logger.Printf("job dispatch failed id=%s error=%v", jobID, err)
			}
			continue
		}

		o.launch(ctx, envelope)
	}
}

func (o *Orchestrator) launch(parent context.Context, envelope jobstore.Envelope) {
	jobCtx, cancel := context.WithCancel(parent)
	timeout := time.Duration(envelope.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = o.cfg.DefaultJobTimeout
	}

	running := &activeJob{cancel: cancel, started: time.Now()}
	running.timer = time.AfterFunc(timeout, func() {
		o.expireJob(parent, envelope.JobID, timeout)
	})

	o.mu.Lock()
	o.active[envelope.JobID] = running
	o.mu.Unlock()

	go o.runJob(jobCtx, parent, envelope, running)
}

func (o *Orchestrator) runJob(
	jobCtx context.Context,
	parent context.Context,
	envelope jobstore.Envelope,
	running *activeJob,
) {
	defer func() {
		running.timer.Stop()
		running.cancel()
		o.mu.Lock()
		delete(o.active, envelope.JobID)
		o.mu.Unlock()
	}()

	job, err := o.GetStatus(parent, envelope.JobID)
	if err != nil {
		if o.logger != nil {
			o.logger.Printf("job claim failed id=%s error=%v", envelope.JobID, err)
		}
		return
	}
	if job.Status.Terminal() {
		return
	}

	job.Status = domain.JobStatusProcessing
	job.Progress = progressStarted
	job.UpdatedAt = time.Now().UTC()
	if err := o.repo.UpdateJob(parent, job); err != nil {
		if o.logger != nil && !errors.Is(err, repository.ErrFinished) {
			o.logger.Printf("job start write failed id=%s error=%v", envelope.JobID, err)
		}
		return
	}

	result, metadata, runErr := o.runner.Run(jobCtx, envelope, func(progress int) {
		o.reportProgress(parent, envelope.JobID, progress)
	})

	_ = o.store.Delete(parent, envelope.JobID)

	// A timed-out or cancelled job was already finalized; the late
	// result is dropped.
	o.mu.Lock()
	owner := !running.expired
	o.mu.Unlock()
	if !owner {
		return
	}

	current, err := o.GetStatus(parent, envelope.JobID)
	if err != nil || current.Status.Terminal() {
		return
	}

	if runErr != nil {
		_ = o.finishJob(parent, current, domain.JobStatusFailed, runErr.Error())
		return
	}

	current.Result = result
	if metadata != nil {
		current.Metadata = mergeMetadata(current.Metadata, metadata)
	}
	current.Progress = 100
	// The repository refuses to overwrite a terminal record, so a cancel
	// or timeout landing during this write wins and the result is dropped.
	err = o.finishJob(parent, current, domain.JobStatusCompleted, "")
	if err != nil && !errors.Is(err, repository.ErrFinished) && o.logger != nil {
		o.logger.Printf("job completion write failed id=%s error=%v", envelope.JobID, err)
	}
}

// expireJob fires from the timeout timer. It marks the record failed and
// cancels the worker; the slot itself frees when the worker returns.
func (o *Orchestrator) expireJob(ctx context.Context, jobID string, timeout time.Duration) {
	o.mu.Lock()
	running, ok := o.active[jobID]
	if !ok || running.expired {
		o.mu.Unlock()
		return
	}
	running.expired = true
	running.cancel()
	o.mu.Unlock()

	job, err := o.GetStatus(ctx, jobID)
	if err != nil || job.Status.Terminal() {
		return
	}
	if o.logger != nil {
		o.logger.Printf("job timed out id=%s after=%s", jobID, timeout)
	}
	_ = o.finishJob(ctx, job, domain.JobStatusFailed, "job timed out after "+timeout.String())
}

// reportProgress persists a progress checkpoint. Progress never moves
// backwards and never reaches 100 before completion.
func (o *Orchestrator) reportProgress(ctx context.Context, jobID string, progress int) {
	if progress > 99 {
		progress = 99
	}
	job, err := o.GetStatus(ctx, jobID)
	if err != nil || job.Status.Terminal() || progress <= job.Progress {
		return
	}
	job.Progress = progress
	job.UpdatedAt = time.Now().UTC()
	_ = o.repo.UpdateJob(ctx, job)
}

// finishJob writes the terminal state. CompletedAt and the processing
// duration are stamped here and nowhere else.
func (o *Orchestrator) finishJob(
	ctx context.Context,
	job *domain.Job,
	status domain.JobStatus,
	errorMessage string,
) error {
	now := time.Now().UTC()
	job.Status = status
	job.ErrorMessage = errorMessage
	job.UpdatedAt = now
	job.CompletedAt = &now
	job.ProcessingTimeMS = now.Sub(job.CreatedAt).Milliseconds()
	if status == domain.JobStatusFailed && job.Progress >= 100 {
		job.Progress = 99
	}
	return o.repo.UpdateJob(ctx, job)
}

func removeID(queue []string, jobID string) []string {
	filtered := queue[:0]
	for _, id := range queue {
		if id != jobID {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

func mergeMetadata(base, extra map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any, len(extra))
	}
	for key, value := range extra {
		base[key] = value
	}
	return base
}
