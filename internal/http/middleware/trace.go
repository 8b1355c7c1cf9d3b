package middleware

import (
	"log"
	"net/http"
	"time"
)

// statusRecorder captures what the handler chain wrote so the trace line
// can carry the response status and size.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(statusCode int) {
	if rec.status == 0 {
		rec.status = statusCode
	}
	rec.ResponseWriter.WriteHeader(statusCode)
}

func (rec *statusRecorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}

// Trace logs one line per request in the same key=value vocabulary the
// job orchestrator uses, keyed by request id.
func Trace(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Printf(
				"http request request_id=%s method=%s path=%s status=%d bytes=%d duration_ms=%d",
				GetRequestID(r.Context()),
				r.Method,
				r.URL.Path,
				status,
				recorder.bytes,
				time.Since(start).Milliseconds(),
			)
		})
	}
}
