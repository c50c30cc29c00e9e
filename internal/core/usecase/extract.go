package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

// SubjectExtractor derives a default subject from document content.
type SubjectExtractor struct {
	textLayer   ports.TextLayerExtractor
	ocr         ports.OCREngine
	pages       ports.PageImageExtractor
	pdfFallback bool
}

func NewSubjectExtractor(
	textLayer ports.TextLayerExtractor,
	ocr ports.OCREngine,
	pages ports.PageImageExtractor,
	pdfFallback bool,
) *SubjectExtractor {
	return &SubjectExtractor{
		textLayer:   textLayer,
		ocr:         ocr,
		pages:       pages,
		pdfFallback: pdfFallback,
	}
}

// FromPDF reads the text layer and, when enabled, falls back to OCR of the first page image.
func (e *SubjectExtractor) FromPDF(ctx context.Context, pdf []byte) (domain.Extraction, error) {
	text, err := e.textLayer.ExtractText(ctx, pdf)
	if err != nil {
		return domain.Extraction{Method: domain.MethodTextLayer}, fmt.Errorf("extract text layer: %w", err)
	}
	if subject, ok := domain.InferSubject(text); ok {
		return domain.Extraction{Subject: subject, Found: true, Method: domain.MethodTextLayer}, nil
	}
	if !e.pdfFallback || e.ocr == nil || e.pages == nil {
		return domain.Extraction{Method: domain.MethodTextLayer}, nil
	}

	img, mimeType, err := e.pages.PageImage(ctx, pdf, 1)
	if err != nil {
		return domain.Extraction{Method: domain.MethodOCR}, fmt.Errorf("read page image: %w", err)
	}
	if len(img) == 0 {
		return domain.Extraction{Method: domain.MethodTextLayer}, nil
	}
	return e.recognize(ctx, img, mimeType)
}

// FromImage runs OCR directly; camera frames carry no text layer.
func (e *SubjectExtractor) FromImage(ctx context.Context, img []byte, mimeType string) (domain.Extraction, error) {
	if e.ocr == nil {
		return domain.Extraction{Method: domain.MethodOCR}, fmt.Errorf("ocr engine is not configured")
	}
	return e.recognize(ctx, img, mimeType)
}

func (e *SubjectExtractor) recognize(ctx context.Context, img []byte, mimeType string) (domain.Extraction, error) {
	text, err := e.ocr.Recognize(ctx, img, mimeType)
	if err != nil {
		return domain.Extraction{Method: domain.MethodOCR}, fmt.Errorf("recognize image: %w", err)
	}
	subject, ok := domain.InferSubject(text)
	return domain.Extraction{Subject: subject, Found: ok, Method: domain.MethodOCR}, nil
}
