package domain

import (
	"encoding/json"
	"time"
)

type JobType string

const (
	JobTypePPTX2JSON       JobType = "pptx2json"
	JobTypeJSON2PPTX       JobType = "json2pptx"
	JobTypeExtractMetadata JobType = "extract-metadata"
	JobTypeExtractAssets   JobType = "extract-assets"
	JobTypeThumbnails      JobType = "thumbnails"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the canonical async unit tracked by the orchestrator.
// CompletedAt is set exactly when Status is terminal.
type Job struct {
	ID               string
	Type             JobType
	Status           JobStatus
	Progress         int
	Result           json.RawMessage
	ErrorMessage     string
	Metadata         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
	ProcessingTimeMS int64
}

// QueueStats is a point-in-time snapshot of the orchestrator queue.
type QueueStats struct {
	QueueLength     int      `json:"queue_length"`
	ProcessingCount int      `json:"processing_count"`
	MaxConcurrent   int      `json:"max_concurrent"`
	ActiveJobIDs    []string `json:"active_job_ids"`
}

type JobListFilter struct {
	Status   JobStatus
	Type     JobType
	Page     int
	PageSize int
	From     *time.Time
	To       *time.Time
}

type JobListItem struct {
	JobID     string
	Type      JobType
	Status    JobStatus
	Progress  int
	CreatedAt time.Time
}
