package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

type pageImageFake struct {
	image []byte
	err   error
	calls int
}

func (f *pageImageFake) PageImage(context.Context, []byte, int) ([]byte, string, error) {
	f.calls++
	return f.image, domain.MimeJPEG, f.err
}

func TestFromPDFPrefersTextLayer(t *testing.T) {
	text := &textLayerFake{text: "Subject: Exam schedule\nBody"}
	ocr := &ocrFake{text: "Subject: Wrong"}
	pages := &pageImageFake{image: []byte{0xff, 0xd8}}
	extractor := NewSubjectExtractor(text, ocr, pages, true)

	got, err := extractor.FromPDF(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("FromPDF() error = %v", err)
	}
	if got.Subject != "Exam schedule" || got.Method != domain.MethodTextLayer {
		t.Fatalf("unexpected extraction %+v", got)
	}
	if pages.calls != 0 || ocr.calls != 0 {
		t.Fatalf("fallback must not run when the text layer has a subject")
	}
}

func TestFromPDFFallbackDisabledSkipsOCR(t *testing.T) {
	ocr := &ocrFake{text: "Subject: Scanned"}
	pages := &pageImageFake{image: []byte{0xff, 0xd8}}
	extractor := NewSubjectExtractor(&textLayerFake{}, ocr, pages, false)

	got, err := extractor.FromPDF(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("FromPDF() error = %v", err)
	}
	if got.Found {
		t.Fatalf("expected not found, got %+v", got)
	}
	if ocr.calls != 0 || pages.calls != 0 {
		t.Fatalf("expected no fallback calls")
	}
}

func TestFromPDFFallbackOCRsFirstPage(t *testing.T) {
	ocr := &ocrFake{text: "Subject: Scanned letter!"}
	pages := &pageImageFake{image: []byte{0xff, 0xd8}}
	extractor := NewSubjectExtractor(&textLayerFake{text: "   "}, ocr, pages, true)

	got, err := extractor.FromPDF(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("FromPDF() error = %v", err)
	}
	if got.Subject != "Scanned letter" || got.Method != domain.MethodOCR {
		t.Fatalf("unexpected extraction %+v", got)
	}
	if ocr.mime != domain.MimeJPEG {
		t.Fatalf("expected page image mime passed through, got %s", ocr.mime)
	}
}

func TestFromPDFFallbackWithoutImagesIsNotFound(t *testing.T) {
	ocr := &ocrFake{}
	extractor := NewSubjectExtractor(&textLayerFake{}, ocr, &pageImageFake{}, true)

	got, err := extractor.FromPDF(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("FromPDF() error = %v", err)
	}
	if got.Found || ocr.calls != 0 {
		t.Fatalf("expected not found without ocr, got %+v calls=%d", got, ocr.calls)
	}
}

func TestFromPDFTextLayerErrorPropagates(t *testing.T) {
	extractor := NewSubjectExtractor(&textLayerFake{err: errors.New("bad xref")}, nil, nil, false)
	if _, err := extractor.FromPDF(context.Background(), []byte("%PDF")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFromImageWithoutEngineFails(t *testing.T) {
	extractor := NewSubjectExtractor(&textLayerFake{}, nil, nil, false)
	if _, err := extractor.FromImage(context.Background(), []byte{1}, domain.MimePNG); err == nil {
		t.Fatalf("expected error without ocr engine")
	}
}
