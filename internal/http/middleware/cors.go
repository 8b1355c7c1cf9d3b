package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

const defaultCORSMaxAgeSeconds = 600

var (
	// DELETE is part of the default surface because job cancellation
	// rides on DELETE /v1/jobs/{id}.
	defaultCORSAllowedMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodDelete,
		http.MethodOptions,
	}
	defaultCORSAllowedHeaders = []string{
		"Accept",
		"Authorization",
		"Content-Type",
		"Idempotency-Key",
		"X-Request-Id",
	}
)

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAgeSeconds  int
}

// corsPolicy is the resolved configuration, precomputed once so request
// handling only does origin matching.
type corsPolicy struct {
	origins      []string
	anyOrigin    bool
	methodsValue string
	headersValue string
	maxAgeValue  string
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	policy := &corsPolicy{
		origins: normalizeStringList(cfg.AllowedOrigins),
	}
	for _, origin := range policy.origins {
		if origin == "*" {
			policy.anyOrigin = true
			break
		}
	}

	methods := normalizeStringList(cfg.AllowedMethods)
	if len(methods) == 0 {
		methods = defaultCORSAllowedMethods
	}
	headers := normalizeStringList(cfg.AllowedHeaders)
	if len(headers) == 0 {
		headers = defaultCORSAllowedHeaders
	}
	maxAge := cfg.MaxAgeSeconds
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAgeSeconds
	}

	policy.methodsValue = strings.Join(methods, ", ")
	policy.headersValue = strings.Join(headers, ", ")
	policy.maxAgeValue = strconv.Itoa(maxAge)
	return policy
}

func (p *corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	return containsFold(p.origins, origin)
}

func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || !policy.allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if policy.anyOrigin {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions {
				w.Header().Add("Vary", "Access-Control-Request-Method")
				w.Header().Add("Vary", "Access-Control-Request-Headers")
				w.Header().Set("Access-Control-Allow-Methods", policy.methodsValue)
				w.Header().Set("Access-Control-Allow-Headers", policy.headersValue)
				w.Header().Set("Access-Control-Max-Age", policy.maxAgeValue)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func normalizeStringList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, raw := range values {
		if value := strings.TrimSpace(raw); value != "" {
			result = append(result, value)
		}
	}
	return result
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}
