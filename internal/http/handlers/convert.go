package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
	"github.com/anlaklab/simple-luna-sub003/internal/orchestrator"
)

type extractRequest struct {
	FilePath     string `json:"file_path"`
	OriginalName string `json:"original_name,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	MetadataOnly bool   `json:"metadata_only,omitempty"`
	TimeoutMS    int64  `json:"timeout_ms,omitempty"`
	Options      struct {
		ValidateSchema bool `json:"validate_schema"`
		AutoFix        bool `json:"auto_fix"`
		SynthesizeIDs  bool `json:"synthesize_ids"`
	} `json:"options"`
}

// Extract accepts a source presentation for async conversion to the
// universal schema. Replays with the same Idempotency-Key return the
// originally created job.
func (api *API) Extract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var request extractRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "request body is not a valid extract request")
		return
	}
	if strings.TrimSpace(request.FilePath) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "file_path is required")
		return
	}

	jobType := domain.JobTypePPTX2JSON
	if request.MetadataOnly {
		jobType = domain.JobTypeExtractMetadata
	}

	payload := domain.ExtractPayload{
		FilePath:     request.FilePath,
		OriginalName: request.OriginalName,
		UserID:       request.UserID,
		Options: domain.ExtractOptions{
			ValidateSchema: request.Options.ValidateSchema,
			AutoFix:        request.Options.AutoFix,
			SynthesizeIDs:  request.Options.SynthesizeIDs,
		},
	}
	api.submitJob(w, r, jobType, payload, request.TimeoutMS, map[string]any{
		"original_name": request.OriginalName,
	})
}

type reconstructRequest struct {
	Document   json.RawMessage `json:"document"`
	OutputName string          `json:"output_name,omitempty"`
	TimeoutMS  int64           `json:"timeout_ms,omitempty"`
}

// Reconstruct accepts universal schema JSON for async rebuild into a
// native presentation file.
func (api *API) Reconstruct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var request reconstructRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "request body is not a valid reconstruct request")
		return
	}
	if len(request.Document) == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "document is required")
		return
	}

	payload := domain.ReconstructPayload{
		Document:   request.Document,
		OutputName: request.OutputName,
	}
	api.submitJob(w, r, domain.JobTypeJSON2PPTX, payload, request.TimeoutMS, map[string]any{
		"output_name": request.OutputName,
	})
}

type renderRequest struct {
	FilePath  string `json:"file_path"`
	Format    string `json:"format,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	TimeoutMS int64  `json:"timeout_ms,omitempty"`
}

// Thumbnails queues slide rendering for a source presentation.
func (api *API) Thumbnails(w http.ResponseWriter, r *http.Request) {
	api.submitRender(w, r, domain.JobTypeThumbnails)
}

// Assets queues embedded media extraction for a source presentation.
func (api *API) Assets(w http.ResponseWriter, r *http.Request) {
	api.submitRender(w, r, domain.JobTypeExtractAssets)
}

func (api *API) submitRender(w http.ResponseWriter, r *http.Request, jobType domain.JobType) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var request renderRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "request body is not a valid render request")
		return
	}
	if strings.TrimSpace(request.FilePath) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "file_path is required")
		return
	}

	payload := domain.RenderPayload{
		FilePath: request.FilePath,
		Format:   request.Format,
		Width:    request.Width,
		Height:   request.Height,
	}
	api.submitJob(w, r, jobType, payload, request.TimeoutMS, nil)
}

// submitJob enqueues a job and writes the 202 acknowledgement. The
// idempotency check keys on header plus payload hash, so a replay with a
// changed body is a conflict rather than a silent second job.
func (api *API) submitJob(
	w http.ResponseWriter,
	r *http.Request,
	jobType domain.JobType,
	payload any,
	timeoutMS int64,
	metadata map[string]any,
) {
	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	payloadHash := hashPayload(payload)
	if idempotencyKey != "" {
		if entry, ok := api.idempotency.Get(idempotencyKey); ok {
			if entry.PayloadHash != payloadHash {
				writeError(w, r, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload")
				return
			}
			writeJSON(w, http.StatusAccepted, map[string]any{
				"job_id": entry.JobID,
				"status": domain.JobStatusPending,
			})
			return
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to encode job payload")
		return
	}

	job, err := api.orchestrator.Enqueue(r.Context(), jobType, encoded, orchestrator.EnqueueOptions{
		Timeout:  time.Duration(timeoutMS) * time.Millisecond,
		Metadata: metadata,
	})
	if err != nil {
		api.logger.Printf("enqueue failed type=%s error=%v", jobType, err)
		writeDomainError(w, r, err)
		return
	}

	if idempotencyKey != "" {
		api.idempotency.Put(idempotencyKey, payloadHash, job.ID)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"type":   job.Type,
		"status": job.Status,
	})
}
