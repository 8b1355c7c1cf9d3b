package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func authedHandler(token string) http.Handler {
	return Auth(token)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthAcceptsValidBearerToken(t *testing.T) {
	handler := authedHandler("secret-token")

	request := httptest.NewRequest(http.MethodPost, "/v1/extract", nil)
	request.Header.Set("Authorization", "Bearer secret-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", recorder.Code)
	}
}

func TestAuthRejectsWrongOrMissingToken(t *testing.T) {
	handler := authedHandler("secret-token")

	for name, header := range map[string]string{
		"missing": "",
		"wrong":   "Bearer other-token",
		"bare":    "secret-token",
	} {
		request := httptest.NewRequest(http.MethodPost, "/v1/extract", nil)
		if header != "" {
			request.Header.Set("Authorization", header)
		}
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, recorder.Code)
		}
		if !strings.Contains(recorder.Body.String(), "unauthorized") {
			t.Fatalf("%s: expected error code in body, got %s", name, recorder.Body.String())
		}
	}
}

func TestAuthLeavesUnversionedPathsOpen(t *testing.T) {
	handler := authedHandler("secret-token")

	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected open healthz, got %d", recorder.Code)
	}
}

func TestAuthDisabledWithoutToken(t *testing.T) {
	handler := authedHandler("")

	request := httptest.NewRequest(http.MethodPost, "/v1/extract", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected auth disabled with empty token, got %d", recorder.Code)
	}
}

func TestRequestIDKeepsSaneInboundID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	request.Header.Set("X-Request-Id", "upload-42.retry_1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if seen != "upload-42.retry_1" {
		t.Fatalf("expected inbound id kept, got %q", seen)
	}
	if got := recorder.Header().Get("X-Request-Id"); got != "upload-42.retry_1" {
		t.Fatalf("expected id echoed in response, got %q", got)
	}
}

func TestRequestIDReplacesHostileInboundID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	request.Header.Set("X-Request-Id", "bad id\nwith newline")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("expected freshly minted id, got %q", seen)
	}
}
