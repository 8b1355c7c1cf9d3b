package handlers

import (
	"encoding/json"
	"errors"
	"hash/fnv"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/anlaklab/simple-luna-sub003/internal/ai"
	"github.com/anlaklab/simple-luna-sub003/internal/domain"
	"github.com/anlaklab/simple-luna-sub003/internal/http/middleware"
	"github.com/anlaklab/simple-luna-sub003/internal/orchestrator"
	"github.com/anlaklab/simple-luna-sub003/internal/repository"
	"github.com/anlaklab/simple-luna-sub003/internal/schema"
)

var errInvalidPayload = errors.New("invalid payload")

type API struct {
	orchestrator *orchestrator.Orchestrator
	repo         repository.JobsRepository
	validator    *schema.Validator
	chat         *ai.Client
	logger       *log.Logger
	idempotency  *idempotencyStore
}

func NewAPI(
	orch *orchestrator.Orchestrator,
	repo repository.JobsRepository,
	validator *schema.Validator,
	chat *ai.Client,
	logger *log.Logger,
) *API {
	return &API{
		orchestrator: orch,
		repo:         repo,
		validator:    validator,
		chat:         chat,
		logger:       logger,
		idempotency:  newIdempotencyStore(),
	}
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	payload := errorPayload{RequestID: middleware.GetRequestID(r.Context())}
	payload.Error.Code = code
	payload.Error.Message = message
	writeJSON(w, statusCode, payload)
}

// writeDomainError maps the pipeline error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.CodeOf(err)
	writeError(w, r, statusForCode(code), string(code), err.Error())
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.ErrCodeValidation, domain.ErrCodeFile, domain.ErrCodeSchema:
		return http.StatusBadRequest
	case domain.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case domain.ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return errInvalidPayload
	}
	return nil
}

// jobResponse is the wire form of a job record.
func jobResponse(job *domain.Job) map[string]any {
	response := map[string]any{
		"job_id":     job.ID,
		"type":       job.Type,
		"status":     job.Status,
		"progress":   job.Progress,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	if job.CompletedAt != nil {
		response["completed_at"] = *job.CompletedAt
		response["processing_time_ms"] = job.ProcessingTimeMS
	}
	if len(job.Metadata) > 0 {
		response["metadata"] = job.Metadata
	}
	if len(job.Result) > 0 {
		response["result"] = jsonRawOrFallback(job.Result)
	}
	if job.ErrorMessage != "" {
		response["error"] = map[string]any{
			"code":    "processing_error",
			"message": job.ErrorMessage,
		}
	}
	return response
}

func jsonRawOrFallback(value []byte) any {
	var decoded any
	if err := json.Unmarshal(value, &decoded); err == nil {
		return decoded
	}
	return string(value)
}

type idempotencyEntry struct {
	PayloadHash uint64
	JobID       string
	CreatedAt   time.Time
}

type idempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idempotencyEntry
}

func newIdempotencyStore() *idempotencyStore {
	return &idempotencyStore{
		entries: make(map[string]idempotencyEntry),
	}
}

func (s *idempotencyStore) Get(key string) (idempotencyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	return entry, ok
}

func (s *idempotencyStore) Put(key string, payloadHash uint64, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = idempotencyEntry{
		PayloadHash: payloadHash,
		JobID:       jobID,
		CreatedAt:   time.Now().UTC(),
	}
}

func hashPayload(value any) uint64 {
	payload, _ := json.Marshal(value)
	hasher := fnv.New64a()
	_, _ = hasher.Write(payload)
	return hasher.Sum64()
}
