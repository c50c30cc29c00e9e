package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// validateForSubmission is all-or-nothing: every missing field is reported together.
func validateForSubmission(draft *domain.Draft) error {
	form := draft.Form
	var missing []string
	if draft.Source == nil || len(draft.Source.Data) == 0 {
		missing = append(missing, "file")
	}
	required := []struct {
		name  string
		value string
	}{
		{"department", form.Department},
		{"subject", form.Subject},
		{"date", form.Date},
		{"diaryNo", form.DiaryNo},
		{"from", form.From},
		{"disposal", form.Disposal},
		{"status", string(form.Status)},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return &domain.MissingFieldsError{Fields: missing}
	}

	if _, err := time.Parse(domain.DateLayout, form.Date); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate submission", fmt.Errorf("date must be YYYY-MM-DD: %w", err))
	}
	if form.Status != domain.StatusOpen && form.Status != domain.StatusClosed {
		return domain.WrapError(domain.ErrInvalidInput, "validate submission", fmt.Errorf("unknown status %q", form.Status))
	}
	if form.Category != "" && !draft.HasCategory(form.Category) {
		return domain.WrapError(domain.ErrInvalidInput, "validate submission", fmt.Errorf("category %q does not belong to the selected department", form.Category))
	}
	return nil
}
