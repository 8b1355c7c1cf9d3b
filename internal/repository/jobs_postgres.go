package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
)

type PostgresJobsRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresJobsRepository(ctx context.Context, databaseURL string) (*PostgresJobsRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return &PostgresJobsRepository{pool: pool}, nil
}

func (r *PostgresJobsRepository) Close() {
	r.pool.Close()
}

func (r *PostgresJobsRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	metadata, err := encodeMetadata(job.Metadata)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO jobs (
			id,
			type,
			status,
			progress,
			result,
			error_message,
			metadata,
			created_at,
			updated_at,
			completed_at,
			processing_time_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		job.ID,
		string(job.Type),
		string(job.Status),
		job.Progress,
		job.Result,
		job.ErrorMessage,
		metadata,
		job.CreatedAt,
		job.UpdatedAt,
		job.CompletedAt,
		job.ProcessingTimeMS,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *PostgresJobsRepository) UpdateJob(ctx context.Context, job *domain.Job) error {
	metadata, err := encodeMetadata(job.Metadata)
	if err != nil {
		return err
	}

	command, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = $2,
			progress = $3,
			result = $4,
			error_message = $5,
			metadata = $6,
			updated_at = $7,
			completed_at = $8,
			processing_time_ms = $9
		WHERE id = $1
		  AND status NOT IN ('completed', 'failed')
	`,
		job.ID,
		string(job.Status),
		job.Progress,
		job.Result,
		job.ErrorMessage,
		metadata,
		job.UpdatedAt,
		job.CompletedAt,
		job.ProcessingTimeMS,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if command.RowsAffected() == 0 {
		var status string
		err := r.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, job.ID).Scan(&status)
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check job status: %w", err)
		}
		return ErrFinished
	}
	return nil
}

func (r *PostgresJobsRepository) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var (
		job         domain.Job
		jobType     string
		status      string
		result      []byte
		metadata    []byte
		completedAt *time.Time
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, type, status, progress, result, error_message, metadata,
			created_at, updated_at, completed_at, processing_time_ms
		FROM jobs
		WHERE id = $1
	`, jobID).Scan(
		&job.ID,
		&jobType,
		&status,
		&job.Progress,
		&result,
		&job.ErrorMessage,
		&metadata,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt,
		&job.ProcessingTimeMS,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query job: %w", err)
	}

	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	job.Result = json.RawMessage(result)
	job.CompletedAt = completedAt
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
			return nil, fmt.Errorf("decode job metadata: %w", err)
		}
	}
	return &job, nil
}

func (r *PostgresJobsRepository) DeleteJob(ctx context.Context, jobID string) error {
	command, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresJobsRepository) ListJobs(
	ctx context.Context,
	filter domain.JobListFilter,
) ([]domain.JobListItem, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	baseQuery, args := buildJobFilters(filter)

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	listQuery := fmt.Sprintf(
		`SELECT id, type, status, progress, created_at
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		baseQuery,
		len(args)+1,
		len(args)+2,
	)
	listArgs := append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	rows, err := r.pool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	items := make([]domain.JobListItem, 0)
	for rows.Next() {
		var (
			item    domain.JobListItem
			jobType string
			status  string
		)
		if err := rows.Scan(&item.JobID, &jobType, &status, &item.Progress, &item.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan job item: %w", err)
		}
		item.Type = domain.JobType(jobType)
		item.Status = domain.JobStatus(status)
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate job items: %w", rows.Err())
	}

	return items, total, nil
}

func buildJobFilters(filter domain.JobListFilter) (string, []any) {
	query := strings.Builder{}
	query.WriteString("FROM jobs WHERE 1=1")

	args := make([]any, 0, 4)
	argIndex := 1

	if filter.Type != "" {
		query.WriteString(fmt.Sprintf(" AND type = $%d", argIndex))
		args = append(args, string(filter.Type))
		argIndex++
	}

	if filter.Status != "" {
		query.WriteString(fmt.Sprintf(" AND status = $%d", argIndex))
		args = append(args, string(filter.Status))
		argIndex++
	}

	if filter.From != nil {
		query.WriteString(fmt.Sprintf(" AND created_at >= $%d", argIndex))
		args = append(args, *filter.From)
		argIndex++
	}

	if filter.To != nil {
		query.WriteString(fmt.Sprintf(" AND created_at <= $%d", argIndex))
		args = append(args, *filter.To)
		argIndex++
	}

	return query.String(), args
}

func encodeMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode job metadata: %w", err)
	}
	return encoded, nil
}
