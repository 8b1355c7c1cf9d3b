package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
	"github.com/anlaklab/simple-luna-sub003/internal/orchestrator"
)

// Jobs serves /v1/jobs (listing) and /v1/jobs/{id} (status, cancel).
func (api *API) Jobs(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/v1/jobs"))
	jobID = strings.TrimPrefix(jobID, "/")

	if jobID == "" {
		api.listJobs(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		api.jobStatus(w, r, jobID)
	case http.MethodDelete:
		api.cancelJob(w, r, jobID)
	default:
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func (api *API) jobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := api.orchestrator.GetStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, orchestrator.ErrJobNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, jobResponse(job))
}

// cancelJob is idempotent: cancelling an already finished job leaves it
// untouched and reports its terminal status.
func (api *API) cancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	err := api.orchestrator.Cancel(r.Context(), jobID)
	switch {
	case errors.Is(err, orchestrator.ErrJobNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "job not found")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to cancel job")
		return
	}

	job, err := api.orchestrator.GetStatus(r.Context(), jobID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id": jobID,
		"status": job.Status,
	})
}

func (api *API) listJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items, total, err := api.repo.ListJobs(r.Context(), filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list jobs")
		return
	}

	jobs := make([]map[string]any, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, map[string]any{
			"job_id":     item.JobID,
			"type":       item.Type,
			"status":     item.Status,
			"progress":   item.Progress,
			"created_at": item.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":      jobs,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func parseListFilter(r *http.Request) (domain.JobListFilter, error) {
	query := r.URL.Query()
	filter := domain.JobListFilter{
		Status: domain.JobStatus(query.Get("status")),
		Type:   domain.JobType(query.Get("type")),
	}

	var err error
	if filter.Page, err = parsePositiveInt(query.Get("page"), 1); err != nil {
		return filter, errors.New("page must be a positive integer")
	}
	if filter.PageSize, err = parsePositiveInt(query.Get("page_size"), 20); err != nil {
		return filter, errors.New("page_size must be a positive integer")
	}
	if filter.From, err = parseOptionalDateTime(query.Get("from")); err != nil {
		return filter, errors.New("from must be an RFC 3339 timestamp")
	}
	if filter.To, err = parseOptionalDateTime(query.Get("to")); err != nil {
		return filter, errors.New("to must be an RFC 3339 timestamp")
	}
	return filter, nil
}

func parsePositiveInt(value string, fallback int) (int, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errInvalidPayload
	}
	return parsed, nil
}

func parseOptionalDateTime(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, errInvalidPayload
	}
	return &parsed, nil
}

// QueueStats serves the orchestrator snapshot.
func (api *API) QueueStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, api.orchestrator.QueueStats())
}
