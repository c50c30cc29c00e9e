package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrMissingFields):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDraftNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrBusy):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrSubmissionRejected):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	resp := errorResponse{Error: err.Error()}

	var missing *domain.MissingFieldsError
	var rejected *domain.RejectedError
	switch {
	case errors.As(err, &missing):
		resp.Error = domain.MissingFieldsMessage
		resp.Missing = missing.Fields
	case errors.As(err, &rejected):
		resp.Error = rejected.Error()
	case status == http.StatusInternalServerError:
		resp.Error = "internal error"
	}

	if status >= http.StatusInternalServerError {
		slog.Error("http_operation_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", operation,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, resp)
}
