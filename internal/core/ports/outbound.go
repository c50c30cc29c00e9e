package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// DraftStore persists drafts between requests and guards each with a busy lock.
type DraftStore interface {
	Save(ctx context.Context, draft *domain.Draft) error
	Get(ctx context.Context, id string) (*domain.Draft, error)
	Delete(ctx context.Context, id string) error
	// Lock returns domain.ErrBusy when the draft is already held.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// DepartmentDirectory fetches departments filtered by document type.
type DepartmentDirectory interface {
	ListDepartments(ctx context.Context, docType domain.DocumentType) ([]domain.Department, error)
}

// SubmissionGateway forwards a packaged submission to the records backend.
type SubmissionGateway interface {
	Submit(ctx context.Context, payload domain.SubmissionPayload) (domain.SubmissionReceipt, error)
}

// TextLayerExtractor reads the embedded text of every PDF page, in order.
type TextLayerExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

// OCREngine converts an encoded image into text.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (string, error)
}

// PageImageExtractor returns the first raster image embedded in a PDF page.
type PageImageExtractor interface {
	PageImage(ctx context.Context, pdf []byte, page int) (image []byte, mimeType string, err error)
}

// ImageConverter renders a single image into a one-page PDF of the image's pixel size.
type ImageConverter interface {
	ImageToPDF(ctx context.Context, image []byte, width, height int) ([]byte, error)
}

// CloseListener is notified exactly once when a draft leaves the intake flow.
type CloseListener interface {
	DraftClosed(ctx context.Context, event domain.ClosedEvent) error
}

// EventQueue carries closed-draft events to the worker.
type EventQueue interface {
	PublishDraftClosed(ctx context.Context, event domain.ClosedEvent) error
	SubscribeDraftClosed(ctx context.Context, handler func(context.Context, domain.ClosedEvent) error) error
}

// ObjectStorage stores submitted documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// SubmissionJournal persists the diary register.
type SubmissionJournal interface {
	Insert(ctx context.Context, record *domain.SubmissionRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error)
}

// IntakeObserver receives intake outcomes for metrics.
type IntakeObserver interface {
	ObserveExtraction(method domain.ExtractionMethod, outcome string, duration time.Duration)
	ObserveSubmission(outcome string, duration time.Duration)
}
