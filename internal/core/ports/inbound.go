package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// IntakeService is the inbound contract of the intake form controller.
type IntakeService interface {
	Open(ctx context.Context, docType domain.DocumentType) (*domain.Draft, error)
	Get(ctx context.Context, draftID string) (*domain.Draft, error)
	Update(ctx context.Context, draftID string, patch domain.FormPatch) (*domain.Draft, error)
	AttachFile(ctx context.Context, draftID, filename, mimeType string, body io.Reader) (*domain.Draft, domain.Extraction, error)
	StartCapture(ctx context.Context, draftID string) (*domain.Draft, error)
	Capture(ctx context.Context, draftID, mimeType string, body io.Reader) (*domain.Draft, domain.Extraction, error)
	Submit(ctx context.Context, draftID string) (domain.SubmissionReceipt, error)
	Cancel(ctx context.Context, draftID string) error
}

// DepartmentLister exposes reference data to inbound adapters.
type DepartmentLister interface {
	ListDepartments(ctx context.Context, docType domain.DocumentType) ([]domain.Department, error)
}

// SubmissionReader is the read model of the diary register.
type SubmissionReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error)
}

// SubmissionRecorder persists closed drafts from the event stream.
type SubmissionRecorder interface {
	Record(ctx context.Context, event domain.ClosedEvent) error
}
