package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDraftNotFound      = errors.New("draft not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrMissingFields      = errors.New("missing required fields")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
	ErrBusy               = errors.New("draft is busy")
	ErrSubmissionRejected = errors.New("submission rejected")
	ErrTemporary          = errors.New("temporary failure")
)

// MissingFieldsMessage is the single combined warning shown for any incomplete submission.
const MissingFieldsMessage = "Please fill out all fields and either upload a file or capture an image."

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// MissingFieldsError lists every required field absent at submission time.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s (missing: %s)", MissingFieldsMessage, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingFields
}

// RejectedError carries the records backend's answer to a non-2xx submission.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return e.Message
}

func (e *RejectedError) Unwrap() error {
	return ErrSubmissionRejected
}
