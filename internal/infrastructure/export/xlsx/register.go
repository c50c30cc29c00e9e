package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

const SheetName = "Register"

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{
	"Diary No", "Date", "Type", "Department", "Category", "Subject",
	"From", "Disposal", "Status", "File", "Source", "Submitted At",
}

// WriteRegister renders the diary register as a single-sheet workbook.
func WriteRegister(w io.Writer, records []domain.SubmissionRecord) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("header column: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row cell: %w", err)
		}
		row := []any{
			rec.Form.DiaryNo,
			rec.Form.Date,
			string(rec.Form.Type),
			rec.Form.Department,
			rec.Form.Category,
			rec.Form.Subject,
			rec.Form.From,
			rec.Form.Disposal,
			string(rec.Form.Status),
			rec.Filename,
			string(rec.SourceKind),
			rec.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "F", "F", 48); err != nil {
		return fmt.Errorf("set subject width: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
