package handlers

import (
	"net/http"
	"time"
)

var serviceStartedAt = time.Now().UTC()

// Health reports liveness plus a queue snapshot, so a probe can tell a
// saturated worker pool apart from a dead process without auth.
func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	stats := api.orchestrator.QueueStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(serviceStartedAt).Seconds()),
		"queue": map[string]any{
			"length":         stats.QueueLength,
			"processing":     stats.ProcessingCount,
			"max_concurrent": stats.MaxConcurrent,
		},
		"chat_enabled": api.chat.Available(),
	})
}
