package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/anlaklab/simple-luna-sub003/internal/schema"
)

type validateRequest struct {
	Document      json.RawMessage `json:"document"`
	AutoFix       bool            `json:"auto_fix,omitempty"`
	SynthesizeIDs bool            `json:"synthesize_ids,omitempty"`
}

// Validate runs the schema validator synchronously on a submitted
// document. Unlike the conversion endpoints it never queues a job.
func (api *API) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var request validateRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "request body is not a valid validate request")
		return
	}
	if len(request.Document) == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "document is required")
		return
	}

	result, err := api.validator.ValidateJSON(request.Document, schema.FixOptions{
		AutoFix:       request.AutoFix,
		SynthesizeIDs: request.SynthesizeIDs,
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "document is not valid JSON")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"validation": result,
		"compliance": schema.BuildComplianceReport(result),
	})
}
