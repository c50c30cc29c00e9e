package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// RecordSubmissionUseCase writes submitted drafts into the diary register.
type RecordSubmissionUseCase struct {
	journal ports.SubmissionJournal
	now     func() time.Time
}

func NewRecordSubmissionUseCase(journal ports.SubmissionJournal) *RecordSubmissionUseCase {
	return &RecordSubmissionUseCase{journal: journal, now: time.Now}
}

func (uc *RecordSubmissionUseCase) Record(ctx context.Context, event domain.ClosedEvent) error {
	if event.Reason != domain.CloseSubmitted {
		slog.Debug("journal_skip", "draft_id", event.DraftID, "reason", event.Reason)
		return nil
	}
	if event.DraftID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record submission", fmt.Errorf("event has no draft id"))
	}

	record := &domain.SubmissionRecord{
		ID:          uuid.NewString(),
		DraftID:     event.DraftID,
		Form:        event.Form,
		Filename:    event.Filename,
		SourceKind:  event.SourceKind,
		Message:     event.Message,
		ArchivePath: event.ArchivePath,
		SubmittedAt: event.ClosedAt,
		RecordedAt:  uc.now().UTC(),
	}
	if err := uc.journal.Insert(ctx, record); err != nil {
		return fmt.Errorf("insert journal record: %w", err)
	}
	return nil
}

func (uc *RecordSubmissionUseCase) ListRecent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error) {
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	if limit > maxJournalLimit {
		limit = maxJournalLimit
	}
	return uc.journal.ListRecent(ctx, limit)
}
