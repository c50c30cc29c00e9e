package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/sony/gobreaker/v2"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatus() int { return int(e) }

func TestClassifyHTTP(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"canceled", context.Canceled, false, false},
		{"circuit open", gobreaker.ErrOpenState, true, true},
		{"503", statusErr(http.StatusServiceUnavailable), true, true},
		{"422", fmt.Errorf("wrapped: %w", statusErr(http.StatusUnprocessableEntity)), false, false},
		{"unknown", errors.New("boom"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyHTTP(tt.err)
			if got.Retryable != tt.retryable || got.RecordFailure != tt.record {
				t.Fatalf("ClassifyHTTP(%v) = %+v", tt.err, got)
			}
		})
	}
}

func TestMarkTemporary(t *testing.T) {
	if err := MarkTemporary("op", statusErr(http.StatusBadGateway), nil); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary, got %v", err)
	}
	permanent := statusErr(http.StatusBadRequest)
	if err := MarkTemporary("op", permanent, nil); domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error unchanged, got %v", err)
	}
	if MarkTemporary("op", nil, nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
