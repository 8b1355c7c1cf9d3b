package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth guards the versioned API with a static bearer token. Unversioned
// paths like /healthz stay open so probes can reach them, and an empty
// token disables the check for local development.
func Auth(requiredToken string) func(http.Handler) http.Handler {
	required := []byte(strings.TrimSpace(requiredToken))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 || !strings.HasPrefix(r.URL.Path, "/v1/") {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || subtle.ConstantTimeCompare([]byte(token), required) != 1 {
				writeRefusal(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
