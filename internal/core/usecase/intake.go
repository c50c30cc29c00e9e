package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const defaultMaxDocumentBytes = 20 << 20

const (
	warnNoSubjectFile   = "No subject found in the uploaded file."
	warnNoSubjectImage  = "No subject found in the scanned image."
	warnFailedFile      = "Failed to extract text or subject from the file."
	warnFailedImage     = "Failed to extract text from the scanned image."
	outcomeFound        = "found"
	outcomeNotFound     = "not_found"
	outcomeFailed       = "error"
	outcomeSubmitted    = "submitted"
	outcomeRejected     = "rejected"
	outcomeSubmitFailed = "error"
)

type IntakeUseCase struct {
	drafts    ports.DraftStore
	directory ports.DepartmentDirectory
	gateway   ports.SubmissionGateway
	extractor *SubjectExtractor
	converter ports.ImageConverter

	archive   ports.ObjectStorage
	listeners []ports.CloseListener
	observer  ports.IntakeObserver
	now       func() time.Time
	maxBytes  int64
}

type IntakeOption func(*IntakeUseCase)

func WithCloseListeners(listeners ...ports.CloseListener) IntakeOption {
	return func(uc *IntakeUseCase) {
		uc.listeners = append(uc.listeners, listeners...)
	}
}

// WithArchive stores every submitted PDF before close listeners run.
func WithArchive(storage ports.ObjectStorage) IntakeOption {
	return func(uc *IntakeUseCase) {
		uc.archive = storage
	}
}

func WithObserver(observer ports.IntakeObserver) IntakeOption {
	return func(uc *IntakeUseCase) {
		if observer != nil {
			uc.observer = observer
		}
	}
}

func WithClock(now func() time.Time) IntakeOption {
	return func(uc *IntakeUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

func WithMaxDocumentBytes(n int64) IntakeOption {
	return func(uc *IntakeUseCase) {
		if n > 0 {
			uc.maxBytes = n
		}
	}
}

func NewIntakeUseCase(
	drafts ports.DraftStore,
	directory ports.DepartmentDirectory,
	gateway ports.SubmissionGateway,
	extractor *SubjectExtractor,
	converter ports.ImageConverter,
	opts ...IntakeOption,
) *IntakeUseCase {
	uc := &IntakeUseCase{
		drafts:    drafts,
		directory: directory,
		gateway:   gateway,
		extractor: extractor,
		converter: converter,
		observer:  noopObserver{},
		now:       time.Now,
		maxBytes:  defaultMaxDocumentBytes,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *IntakeUseCase) Open(ctx context.Context, docType domain.DocumentType) (*domain.Draft, error) {
	if docType == "" {
		docType = domain.TypeAll
	}
	if !docType.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open draft", fmt.Errorf("unknown type %q", docType))
	}

	now := uc.now().UTC()
	draft := &domain.Draft{
		ID: uuid.NewString(),
		Form: domain.FormState{
			Type: docType,
			Date: now.Format(domain.DateLayout),
		},
		Camera:      domain.CameraIdle,
		Departments: []domain.Department{},
		Categories:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	uc.loadDepartments(ctx, draft)

	if err := uc.drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return draft, nil
}

func (uc *IntakeUseCase) Get(ctx context.Context, draftID string) (*domain.Draft, error) {
	return uc.drafts.Get(ctx, draftID)
}

func (uc *IntakeUseCase) Update(ctx context.Context, draftID string, patch domain.FormPatch) (*domain.Draft, error) {
	unlock, err := uc.drafts.Lock(ctx, draftID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	draft, err := uc.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := uc.applyPatch(ctx, draft, patch); err != nil {
		return nil, err
	}
	return uc.save(ctx, draft)
}

func (uc *IntakeUseCase) applyPatch(ctx context.Context, draft *domain.Draft, patch domain.FormPatch) error {
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return domain.WrapError(domain.ErrInvalidInput, "update draft", fmt.Errorf("unknown type %q", *patch.Type))
		}
		if *patch.Type != draft.Form.Type {
			draft.Form.Type = *patch.Type
			uc.loadDepartments(ctx, draft)
		}
	}
	if patch.Department != nil {
		draft.SelectDepartment(strings.TrimSpace(*patch.Department))
	}
	if patch.Category != nil {
		category := *patch.Category
		if category != "" && !draft.HasCategory(category) {
			return domain.WrapError(domain.ErrInvalidInput, "update draft", fmt.Errorf("category %q does not belong to the selected department", category))
		}
		draft.Form.Category = category
	}
	if patch.Date != nil {
		if *patch.Date != "" {
			if _, err := time.Parse(domain.DateLayout, *patch.Date); err != nil {
				return domain.WrapError(domain.ErrInvalidInput, "update draft", fmt.Errorf("date must be YYYY-MM-DD: %w", err))
			}
		}
		draft.Form.Date = *patch.Date
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return domain.WrapError(domain.ErrInvalidInput, "update draft", fmt.Errorf("unknown status %q", *patch.Status))
		}
		draft.Form.Status = *patch.Status
	}
	if patch.Subject != nil {
		draft.Form.Subject = *patch.Subject
	}
	if patch.DiaryNo != nil {
		draft.Form.DiaryNo = *patch.DiaryNo
	}
	if patch.From != nil {
		draft.Form.From = *patch.From
	}
	if patch.Disposal != nil {
		draft.Form.Disposal = *patch.Disposal
	}
	return nil
}

// AttachFile installs an uploaded PDF and infers the subject from it.
// Non-PDF files are rejected before anything is read or changed.
func (uc *IntakeUseCase) AttachFile(
	ctx context.Context,
	draftID, filename, mimeType string,
	body io.Reader,
) (*domain.Draft, domain.Extraction, error) {
	unlock, err := uc.drafts.Lock(ctx, draftID)
	if err != nil {
		return nil, domain.Extraction{}, err
	}
	defer unlock()

	draft, err := uc.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, domain.Extraction{}, err
	}
	if mediaType(mimeType) != domain.MimePDF {
		return nil, domain.Extraction{}, domain.WrapError(
			domain.ErrUnsupportedMedia,
			"attach file",
			fmt.Errorf("please upload a valid PDF file, got %q", mimeType),
		)
	}

	data, err := uc.readDocument(body)
	if err != nil {
		return nil, domain.Extraction{}, domain.WrapError(domain.ErrInvalidInput, "attach file", err)
	}

	draft.SetSource(&domain.DocumentSource{
		Kind:     domain.SourceFile,
		Filename: filename,
		MimeType: domain.MimePDF,
		Size:     len(data),
		Data:     data,
	})
	extraction := uc.applyExtraction(draft, warnNoSubjectFile, warnFailedFile, func() (domain.Extraction, error) {
		return uc.extractor.FromPDF(ctx, data)
	})

	saved, err := uc.save(ctx, draft)
	if err != nil {
		return nil, domain.Extraction{}, err
	}
	return saved, extraction, nil
}

// StartCapture activates the camera preview, discarding any frame or file.
func (uc *IntakeUseCase) StartCapture(ctx context.Context, draftID string) (*domain.Draft, error) {
	unlock, err := uc.drafts.Lock(ctx, draftID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	draft, err := uc.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	draft.Source = nil
	draft.Camera = domain.CameraPreviewing
	draft.Warnings = nil
	return uc.save(ctx, draft)
}

// Capture freezes one camera frame as the document source and OCRs it.
func (uc *IntakeUseCase) Capture(
	ctx context.Context,
	draftID, mimeType string,
	body io.Reader,
) (*domain.Draft, domain.Extraction, error) {
	unlock, err := uc.drafts.Lock(ctx, draftID)
	if err != nil {
		return nil, domain.Extraction{}, err
	}
	defer unlock()

	draft, err := uc.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, domain.Extraction{}, err
	}
	if draft.Camera != domain.CameraPreviewing {
		return nil, domain.Extraction{}, domain.WrapError(domain.ErrInvalidInput, "capture", errors.New("camera preview is not active"))
	}
	mt := mediaType(mimeType)
	if mt != domain.MimeJPEG && mt != domain.MimePNG {
		return nil, domain.Extraction{}, domain.WrapError(
			domain.ErrUnsupportedMedia,
			"capture",
			fmt.Errorf("frame must be image/jpeg or image/png, got %q", mimeType),
		)
	}

	data, err := uc.readDocument(body)
	if err != nil {
		return nil, domain.Extraction{}, domain.WrapError(domain.ErrInvalidInput, "capture", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.Extraction{}, domain.WrapError(domain.ErrInvalidInput, "capture", fmt.Errorf("decode frame: %w", err))
	}

	draft.SetSource(&domain.DocumentSource{
		Kind:     domain.SourceCapture,
		MimeType: mt,
		Size:     len(data),
		Width:    cfg.Width,
		Height:   cfg.Height,
		Data:     data,
	})
	extraction := uc.applyExtraction(draft, warnNoSubjectImage, warnFailedImage, func() (domain.Extraction, error) {
		return uc.extractor.FromImage(ctx, data, mt)
	})

	saved, err := uc.save(ctx, draft)
	if err != nil {
		return nil, domain.Extraction{}, err
	}
	return saved, extraction, nil
}

// Submit validates, packages and forwards the draft. Only a 2xx answer closes it.
func (uc *IntakeUseCase) Submit(ctx context.Context, draftID string) (domain.SubmissionReceipt, error) {
	start := uc.now()
	unlock, err := uc.drafts.Lock(ctx, draftID)
	if err != nil {
		return domain.SubmissionReceipt{}, err
	}
	defer unlock()

	draft, err := uc.drafts.Get(ctx, draftID)
	if err != nil {
		return domain.SubmissionReceipt{}, err
	}
	if err := validateForSubmission(draft); err != nil {
		return domain.SubmissionReceipt{}, err
	}

	payload, err := uc.packageDraft(ctx, draft)
	if err != nil {
		return domain.SubmissionReceipt{}, err
	}

	receipt, err := uc.gateway.Submit(ctx, payload)
	if err != nil {
		outcome := outcomeSubmitFailed
		if domain.IsKind(err, domain.ErrSubmissionRejected) {
			outcome = outcomeRejected
		}
		uc.observer.ObserveSubmission(outcome, uc.now().Sub(start))
		slog.Warn("submission_failed", "draft_id", draft.ID, "error", err)
		return domain.SubmissionReceipt{}, fmt.Errorf("submit draft: %w", err)
	}
	uc.observer.ObserveSubmission(outcomeSubmitted, uc.now().Sub(start))

	uc.close(ctx, draft, domain.CloseSubmitted, receipt.Message, &payload)
	return receipt, nil
}

// Cancel closes the draft without submitting it.
func (uc *IntakeUseCase) Cancel(ctx context.Context, draftID string) error {
	unlock, err := uc.drafts.Lock(ctx, draftID)
	if err != nil {
		return err
	}
	defer unlock()

	draft, err := uc.drafts.Get(ctx, draftID)
	if err != nil {
		return err
	}
	uc.close(ctx, draft, domain.CloseCancelled, "", nil)
	return nil
}

func (uc *IntakeUseCase) ListDepartments(ctx context.Context, docType domain.DocumentType) ([]domain.Department, error) {
	if docType == "" {
		docType = domain.TypeAll
	}
	if !docType.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list departments", fmt.Errorf("unknown type %q", docType))
	}
	return uc.directory.ListDepartments(ctx, docType)
}

// loadDepartments keeps the previous list when the directory is unavailable.
func (uc *IntakeUseCase) loadDepartments(ctx context.Context, draft *domain.Draft) {
	departments, err := uc.directory.ListDepartments(ctx, draft.Form.Type)
	if err != nil {
		slog.Warn("department_fetch_failed", "draft_id", draft.ID, "type", draft.Form.Type, "error", err)
		return
	}
	if departments == nil {
		departments = []domain.Department{}
	}
	draft.Departments = departments
}

func (uc *IntakeUseCase) applyExtraction(
	draft *domain.Draft,
	notFoundWarning, failedWarning string,
	run func() (domain.Extraction, error),
) domain.Extraction {
	start := uc.now()
	extraction, err := run()
	elapsed := uc.now().Sub(start)

	switch {
	case err != nil:
		slog.Warn("subject_extraction_failed", "draft_id", draft.ID, "method", extraction.Method, "error", err)
		uc.observer.ObserveExtraction(extraction.Method, outcomeFailed, elapsed)
		extraction = domain.Extraction{Method: extraction.Method, Warning: failedWarning}
	case extraction.Found:
		uc.observer.ObserveExtraction(extraction.Method, outcomeFound, elapsed)
	default:
		uc.observer.ObserveExtraction(extraction.Method, outcomeNotFound, elapsed)
		extraction.Warning = notFoundWarning
	}

	draft.Form.Subject = extraction.Subject
	draft.Warnings = nil
	if extraction.Warning != "" {
		draft.Warnings = []string{extraction.Warning}
	}
	return extraction
}

func (uc *IntakeUseCase) packageDraft(ctx context.Context, draft *domain.Draft) (domain.SubmissionPayload, error) {
	src := draft.Source
	payload := domain.SubmissionPayload{
		Filename:    src.Filename,
		ContentType: domain.MimePDF,
		Data:        src.Data,
		Form:        draft.Form,
	}
	if src.Kind == domain.SourceCapture {
		pdf, err := uc.converter.ImageToPDF(ctx, src.Data, src.Width, src.Height)
		if err != nil {
			return domain.SubmissionPayload{}, fmt.Errorf("convert capture to pdf: %w", err)
		}
		payload.Filename = domain.CapturedFilename
		payload.Data = pdf
	}
	if payload.Filename == "" {
		payload.Filename = "document.pdf"
	}
	return payload, nil
}

// close removes the draft, then notifies listeners. Listener failures never fail the caller.
func (uc *IntakeUseCase) close(ctx context.Context, draft *domain.Draft, reason domain.CloseReason, message string, payload *domain.SubmissionPayload) {
	if err := uc.drafts.Delete(ctx, draft.ID); err != nil {
		slog.Error("draft_delete_failed", "draft_id", draft.ID, "error", err)
	}

	event := domain.ClosedEvent{
		DraftID:  draft.ID,
		Reason:   reason,
		Form:     draft.Form,
		Message:  message,
		ClosedAt: uc.now().UTC(),
	}
	if draft.Source != nil {
		event.SourceKind = draft.Source.Kind
		event.Filename = draft.Source.Filename
	}
	if payload != nil {
		event.Filename = payload.Filename
		if uc.archive != nil {
			key := archiveKey(draft.ID, payload.Filename)
			if err := uc.archive.Save(ctx, key, bytes.NewReader(payload.Data)); err != nil {
				slog.Error("archive_failed", "draft_id", draft.ID, "error", err)
			} else {
				event.ArchivePath = key
			}
		}
	}

	for _, listener := range uc.listeners {
		if err := listener.DraftClosed(ctx, event); err != nil {
			slog.Error("close_listener_failed", "draft_id", draft.ID, "reason", reason, "error", err)
		}
	}
}

func (uc *IntakeUseCase) save(ctx context.Context, draft *domain.Draft) (*domain.Draft, error) {
	draft.UpdatedAt = uc.now().UTC()
	if err := uc.drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return draft, nil
}

func (uc *IntakeUseCase) readDocument(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, errors.New("document body is empty")
	}
	data, err := io.ReadAll(io.LimitReader(body, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(data)) > uc.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", uc.maxBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("document body is empty")
	}
	return data, nil
}

func mediaType(raw string) string {
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return mt
}

type noopObserver struct{}

func (noopObserver) ObserveExtraction(domain.ExtractionMethod, string, time.Duration) {}
func (noopObserver) ObserveSubmission(string, time.Duration)                         {}
