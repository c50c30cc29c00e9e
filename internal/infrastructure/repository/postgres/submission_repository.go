package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

const schemaLockKey int64 = 2026031401

// SubmissionRepository stores the diary register of submitted drafts.
type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS intake_submissions (
	id TEXT PRIMARY KEY,
	draft_id TEXT NOT NULL UNIQUE,
	doc_type TEXT NOT NULL,
	department TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL,
	doc_date TEXT NOT NULL,
	diary_no TEXT NOT NULL,
	sender TEXT NOT NULL,
	disposal TEXT NOT NULL,
	status TEXT NOT NULL,
	filename TEXT NOT NULL,
	source_kind TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	archive_path TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_intake_submissions_submitted_at ON intake_submissions(submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_intake_submissions_diary_no ON intake_submissions(diary_no);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Insert is idempotent on draft_id so redelivered events do not duplicate rows.
func (r *SubmissionRepository) Insert(ctx context.Context, rec *domain.SubmissionRecord) error {
	if rec == nil || rec.DraftID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "insert submission", errors.New("draft id is required"))
	}
	form := rec.Form
	_, err := r.db.ExecContext(ctx, `
INSERT INTO intake_submissions (
	id, draft_id, doc_type, department, category, subject, doc_date, diary_no, sender, disposal, status,
	filename, source_kind, message, archive_path, submitted_at, recorded_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (draft_id) DO NOTHING
`,
		rec.ID, rec.DraftID, string(form.Type), form.Department, form.Category, form.Subject, form.Date,
		form.DiaryNo, form.From, form.Disposal, string(form.Status),
		rec.Filename, string(rec.SourceKind), rec.Message, rec.ArchivePath, rec.SubmittedAt, rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) ListRecent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, draft_id, doc_type, department, category, subject, doc_date, diary_no, sender, disposal, status,
	filename, source_kind, message, archive_path, submitted_at, recorded_at
FROM intake_submissions
ORDER BY submitted_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SubmissionRecord, 0, limit)
	for rows.Next() {
		var (
			rec                         domain.SubmissionRecord
			docType, status, sourceKind string
		)
		if err := rows.Scan(
			&rec.ID, &rec.DraftID, &docType, &rec.Form.Department, &rec.Form.Category, &rec.Form.Subject,
			&rec.Form.Date, &rec.Form.DiaryNo, &rec.Form.From, &rec.Form.Disposal, &status,
			&rec.Filename, &sourceKind, &rec.Message, &rec.ArchivePath, &rec.SubmittedAt, &rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		rec.Form.Type = domain.DocumentType(docType)
		rec.Form.Status = domain.Status(status)
		rec.SourceKind = domain.SourceKind(sourceKind)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}
