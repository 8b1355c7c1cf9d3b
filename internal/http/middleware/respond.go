package middleware

import (
	"encoding/json"
	"net/http"
)

// refusal mirrors the handlers' error envelope so clients parse
// middleware rejections and pipeline errors the same way.
type refusal struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func writeRefusal(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	body := refusal{RequestID: GetRequestID(r.Context())}
	body.Error.Code = code
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
