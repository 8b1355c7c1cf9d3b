package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/anlaklab/simple-luna-sub003/internal/ai"
)

const chatInstructions = "You answer questions about a presentation " +
	"described by the attached universal schema JSON. Ground every answer " +
	"in the document content and say so when the document does not contain " +
	"the answer."

// Deck chat caps the document excerpt handed to the model.
const maxChatDocumentBytes = 60_000

type chatRequest struct {
	Question string          `json:"question"`
	Document json.RawMessage `json:"document"`
}

// Chat answers a question about a converted document.
func (api *API) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if api.chat == nil || !api.chat.Available() {
		writeError(w, r, http.StatusServiceUnavailable, "service_unavailable", "chat is not configured")
		return
	}

	var request chatRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "request body is not a valid chat request")
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}
	if len(request.Document) == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "document is required")
		return
	}

	document := truncateToRuneBoundary(request.Document, maxChatDocumentBytes)

	result, err := api.chat.Complete(r.Context(), ai.CompletionRequest{
		Instructions: chatInstructions,
		Input:        fmt.Sprintf("Document:\n%s\n\nQuestion: %s", document, request.Question),
		Temperature:  0.2,
	})
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "service_unavailable", "chat is not configured")
			return
		}
		api.logger.Printf("chat completion failed error=%v", err)
		writeError(w, r, http.StatusBadGateway, "provider_error", "chat provider request failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer": result.Text,
		"model":  result.ModelID,
		"usage": map[string]int{
			"input_tokens":  result.InputTokens,
			"output_tokens": result.OutputTokens,
		},
	})
}

// truncateToRuneBoundary cuts the excerpt at the limit without splitting
// a multi-byte character, so slide text never reaches the model with a
// mangled trailing rune.
func truncateToRuneBoundary(data []byte, limit int) []byte {
	if len(data) <= limit {
		return data
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut]
}
