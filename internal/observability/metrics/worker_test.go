package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func TestWorkerMetricsExport(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.StartRecord()
	m.FinishRecord("worker", domain.CloseSubmitted, 15*time.Millisecond, nil)
	m.StartRecord()
	m.FinishRecord("worker", domain.CloseSubmitted, 5*time.Millisecond, errors.New("db down"))
	m.StartRecord()
	m.FinishRecord("worker", domain.CloseCancelled, time.Millisecond, nil)
	m.StartRecord()
	m.FinishRecord("worker", domain.CloseReason("bogus"), time.Millisecond, nil)
	m.ObserveEventLag("worker", 2*time.Second)
	m.ObserveEventLag("worker", -time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`intake_worker_journal_records_total{reason="submitted",service="worker",status="recorded"} 1`,
		`intake_worker_journal_records_total{reason="submitted",service="worker",status="error"} 1`,
		`intake_worker_journal_records_total{reason="cancelled",service="worker",status="skipped"} 1`,
		`intake_worker_journal_records_total{reason="unknown",service="worker",status="skipped"} 1`,
		`intake_worker_journal_records_in_flight{service="worker"} 0`,
		`intake_worker_event_lag_seconds_count{service="worker"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in metrics output:\n%s", want, text)
		}
	}
}
