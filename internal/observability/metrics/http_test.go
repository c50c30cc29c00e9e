package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/v1/intake/3f2a":        "/v1/intake/{id}",
		"/v1/intake/3f2a/submit": "/v1/intake/{id}/submit",
		"/v1/archive/d-1_a.pdf":  "/v1/archive/{name}",
		"/v1/departments":        "/v1/departments",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareAndObserverExport(t *testing.T) {
	m := NewHTTPServerMetrics("intake-api")
	handler := m.Middleware("intake-api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/intake/abc/submit", nil))
	m.ObserveExtraction(domain.MethodTextLayer, "found", 20*time.Millisecond)
	m.ObserveSubmission("rejected", time.Second)
	m.ObserveRetry("ollama.generate", 1)
	m.ObserveBreakerState("records.submit", "open")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`intake_http_requests_total{method="POST",path="/v1/intake/{id}/submit",service="intake-api",status="409"} 1`,
		`intake_extractions_total{method="text_layer",outcome="found",service="intake-api"} 1`,
		`intake_submissions_total{outcome="rejected",service="intake-api"} 1`,
		`intake_outbound_retries_total{operation="ollama.generate",service="intake-api"} 1`,
		`intake_circuit_breaker_open{operation="records.submit",service="intake-api"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in metrics output:\n%s", want, text)
		}
	}
}
