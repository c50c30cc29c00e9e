package domain

import "time"

// SubmissionPayload is everything sent in one multipart request to the records backend.
type SubmissionPayload struct {
	Filename    string
	ContentType string
	Data        []byte
	Form        FormState
}

type SubmissionReceipt struct {
	Message string `json:"message"`
}

type CloseReason string

const (
	CloseSubmitted CloseReason = "submitted"
	CloseCancelled CloseReason = "cancelled"
)

// ClosedEvent is emitted once per draft when it leaves the intake flow.
type ClosedEvent struct {
	DraftID     string      `json:"draft_id"`
	Reason      CloseReason `json:"reason"`
	Form        FormState   `json:"form"`
	Filename    string      `json:"filename,omitempty"`
	SourceKind  SourceKind  `json:"source_kind,omitempty"`
	Message     string      `json:"message,omitempty"`
	ArchivePath string      `json:"archive_path,omitempty"`
	ClosedAt    time.Time   `json:"closed_at"`
}

// SubmissionRecord is one row of the diary register.
type SubmissionRecord struct {
	ID          string     `json:"id"`
	DraftID     string     `json:"draft_id"`
	Form        FormState  `json:"form"`
	Filename    string     `json:"filename"`
	SourceKind  SourceKind `json:"source_kind"`
	Message     string     `json:"message"`
	ArchivePath string     `json:"archive_path,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	RecordedAt  time.Time  `json:"recorded_at"`
}
