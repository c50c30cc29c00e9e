package httpadapter

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/core/ports"
	"github.com/kirillkom/document-intake/internal/observability/metrics"
)

//go:embed openapi.yaml
var openAPISpec []byte

const (
	serviceName         = "api"
	backpressureWait    = 250 * time.Millisecond
	defaultMaxUploadMB  = 20
	maxJSONBodyBytes    = 1 << 20
	contentTypeOpenAPI  = "application/yaml"
	contentTypePDF      = "application/pdf"
	archiveCacheControl = "private, max-age=300"
)

type Router struct {
	cfg         config.Config
	intake      ports.IntakeService
	departments ports.DepartmentLister
	submissions ports.SubmissionReader
	archive     ports.ObjectStorage
	metrics     *metrics.HTTPServerMetrics
}

type RouterOption func(*Router)

// WithSubmissions enables the diary register endpoints.
func WithSubmissions(reader ports.SubmissionReader) RouterOption {
	return func(rt *Router) {
		rt.submissions = reader
	}
}

// WithArchive enables downloads of archived submissions.
func WithArchive(storage ports.ObjectStorage) RouterOption {
	return func(rt *Router) {
		rt.archive = storage
	}
}

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) {
		rt.metrics = m
	}
}

func NewRouter(
	cfg config.Config,
	intake ports.IntakeService,
	departments ports.DepartmentLister,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		cfg:         cfg,
		intake:      intake,
		departments: departments,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", rt.openAPI)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("GET /v1/departments", rt.listDepartments)
	mux.HandleFunc("POST /v1/subject", rt.inferSubject)

	mux.HandleFunc("POST /v1/intake", rt.openDraft)
	mux.HandleFunc("GET /v1/intake/{id}", rt.getDraft)
	mux.HandleFunc("PATCH /v1/intake/{id}", rt.updateDraft)
	mux.HandleFunc("DELETE /v1/intake/{id}", rt.cancelDraft)
	mux.HandleFunc("POST /v1/intake/{id}/file", rt.attachFile)
	mux.HandleFunc("POST /v1/intake/{id}/camera", rt.startCapture)
	mux.HandleFunc("POST /v1/intake/{id}/capture", rt.captureFrame)
	mux.HandleFunc("POST /v1/intake/{id}/submit", rt.submitDraft)

	mux.HandleFunc("GET /v1/submissions", rt.listSubmissions)
	mux.HandleFunc("GET /v1/submissions/export.xlsx", rt.exportSubmissions)
	mux.HandleFunc("GET /v1/archive/{name}", rt.getArchived)

	var handler http.Handler = mux
	validator, err := newRequestValidator(openAPISpec)
	if err != nil {
		slog.Error("openapi_load_failed", "error", err)
	} else {
		handler = validator.middleware(handler)
	}

	maxInFlight := rt.cfg.APIMaxInFlight
	if maxInFlight > 0 {
		handler = backpressureMiddleware(handler, maxInFlight, backpressureWait)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, newIPRateLimiter(rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst))
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", contentTypeOpenAPI)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

func (rt *Router) maxUploadBytes() int64 {
	mb := rt.cfg.MaxUploadMB
	if mb <= 0 {
		mb = defaultMaxUploadMB
	}
	return int64(mb) << 20
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
