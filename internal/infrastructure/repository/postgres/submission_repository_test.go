package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*SubmissionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &SubmissionRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS intake_submissions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertIgnoresDuplicateDraft(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	submitted := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	rec := &domain.SubmissionRecord{
		ID:      "r-1",
		DraftID: "d-1",
		Form: domain.FormState{
			Type: domain.TypeAll, Department: "fin", Subject: "Budget", Date: "2026-03-14",
			DiaryNo: "D-1", From: "Dean", Disposal: "File", Status: domain.StatusOpen,
		},
		Filename:    "budget.pdf",
		SourceKind:  domain.SourceFile,
		Message:     "Saved",
		SubmittedAt: submitted,
		RecordedAt:  submitted,
	}

	mock.ExpectExec("INSERT INTO intake_submissions").
		WithArgs("r-1", "d-1", "all", "fin", "", "Budget", "2026-03-14", "D-1", "Dean", "File", "open",
			"budget.pdf", "file", "Saved", "", submitted, submitted).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertRequiresDraftID(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	if err := repo.Insert(context.Background(), &domain.SubmissionRecord{ID: "r-1"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListRecentScansRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	columns := []string{"id", "draft_id", "doc_type", "department", "category", "subject", "doc_date", "diary_no",
		"sender", "disposal", "status", "filename", "source_kind", "message", "archive_path", "submitted_at", "recorded_at"}
	mock.ExpectQuery("SELECT id, draft_id, doc_type").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("r-2", "d-2", "uni", "reg", "exams", "Results", "2026-03-14", "D-2", "Clerk", "File", "closed",
				"captured_image.pdf", "capture", "Saved", "d-2_captured_image.pdf", at, at).
			AddRow("r-1", "d-1", "all", "fin", "", "Budget", "2026-03-13", "D-1", "Dean", "File", "open",
				"budget.pdf", "file", "Saved", "", at.Add(-time.Hour), at))

	got, err := repo.ListRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Form.Type != domain.TypeUni || got[0].Form.From != "Clerk" || got[0].SourceKind != domain.SourceCapture {
		t.Fatalf("unexpected first record %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentWrapsQueryError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, draft_id").WithArgs(5).WillReturnError(errors.New("connection reset"))
	if _, err := repo.ListRecent(context.Background(), 5); err == nil {
		t.Fatalf("expected error")
	}
}
