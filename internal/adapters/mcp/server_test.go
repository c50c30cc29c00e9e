package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

type extractorFake struct {
	pdfCalls   int
	imageMime  string
	extraction domain.Extraction
	err        error
}

func (f *extractorFake) FromPDF(context.Context, []byte) (domain.Extraction, error) {
	f.pdfCalls++
	return f.extraction, f.err
}

func (f *extractorFake) FromImage(_ context.Context, _ []byte, mimeType string) (domain.Extraction, error) {
	f.imageMime = mimeType
	return f.extraction, f.err
}

type departmentsFake struct {
	asked domain.DocumentType
}

func (f *departmentsFake) ListDepartments(_ context.Context, docType domain.DocumentType) ([]domain.Department, error) {
	f.asked = docType
	return []domain.Department{{ID: "fin", Name: "Finance", Categories: []string{"budget"}}}, nil
}

func newTestServer(t *testing.T, extractor *extractorFake, departments *departmentsFake) *Server {
	t.Helper()
	srv, err := NewServer("intake-test", "1.0.0", extractor, departments, 1024)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", result.Content[0])
	return ""
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNewServerRequiresDependencies(t *testing.T) {
	if _, err := NewServer("x", "1", nil, &departmentsFake{}, 0); err == nil {
		t.Fatalf("expected error for nil extractor")
	}
	if _, err := NewServer("x", "1", &extractorFake{}, nil, 0); err == nil {
		t.Fatalf("expected error for nil department lister")
	}
}

func TestInferSubjectTool(t *testing.T) {
	srv := newTestServer(t, &extractorFake{}, &departmentsFake{})

	result, err := srv.handleInferSubject(context.Background(), callRequest(map[string]any{
		"text": "Subject: Budget Report  next line",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var extraction domain.Extraction
	if err := json.Unmarshal([]byte(resultText(t, result)), &extraction); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !extraction.Found || extraction.Subject != "Budget Report" {
		t.Fatalf("unexpected extraction %+v", extraction)
	}
}

func TestInferSubjectToolRequiresText(t *testing.T) {
	srv := newTestServer(t, &extractorFake{}, &departmentsFake{})

	result, err := srv.handleInferSubject(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error")
	}
}

func TestExtractSubjectRoutesByMediaType(t *testing.T) {
	extractor := &extractorFake{extraction: domain.Extraction{Subject: "Leave", Found: true, Method: domain.MethodOCR}}
	srv := newTestServer(t, extractor, &departmentsFake{})

	pdfPath := writeTemp(t, "memo.pdf", []byte("%PDF-1.4"))
	if _, err := srv.handleExtractSubject(context.Background(), callRequest(map[string]any{"path": pdfPath})); err != nil {
		t.Fatalf("pdf handler: %v", err)
	}
	if extractor.pdfCalls != 1 {
		t.Fatalf("expected one pdf extraction, got %d", extractor.pdfCalls)
	}

	pngPath := writeTemp(t, "scan.png", []byte("\x89PNG\r\n\x1a\n"))
	result, err := srv.handleExtractSubject(context.Background(), callRequest(map[string]any{"path": pngPath}))
	if err != nil {
		t.Fatalf("image handler: %v", err)
	}
	if extractor.imageMime != domain.MimePNG {
		t.Fatalf("expected png mime, got %q", extractor.imageMime)
	}
	if !strings.Contains(resultText(t, result), `"subject":"Leave"`) {
		t.Fatalf("unexpected result %s", resultText(t, result))
	}
}

func TestExtractSubjectRejectsUnsupportedAndOversized(t *testing.T) {
	srv := newTestServer(t, &extractorFake{}, &departmentsFake{})

	txtPath := writeTemp(t, "notes.txt", []byte("plain words"))
	result, _ := srv.handleExtractSubject(context.Background(), callRequest(map[string]any{"path": txtPath}))
	if !result.IsError {
		t.Fatalf("expected error for text file")
	}

	bigPath := writeTemp(t, "big.pdf", make([]byte, 2048))
	result, _ = srv.handleExtractSubject(context.Background(), callRequest(map[string]any{"path": bigPath}))
	if !result.IsError || !strings.Contains(resultText(t, result), "exceeds") {
		t.Fatalf("expected size error")
	}
}

func TestExtractSubjectReportsExtractorFailure(t *testing.T) {
	srv := newTestServer(t, &extractorFake{err: errors.New("ocr down")}, &departmentsFake{})

	path := writeTemp(t, "scan.jpg", []byte{0xff, 0xd8, 0xff})
	result, err := srv.handleExtractSubject(context.Background(), callRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "ocr down") {
		t.Fatalf("expected extractor error in result")
	}
}

func TestListDepartmentsTool(t *testing.T) {
	departments := &departmentsFake{}
	srv := newTestServer(t, &extractorFake{}, departments)

	result, err := srv.handleListDepartments(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if departments.asked != domain.TypeAll {
		t.Fatalf("expected default type all, got %q", departments.asked)
	}
	if !strings.Contains(resultText(t, result), `"_id":"fin"`) {
		t.Fatalf("unexpected result %s", resultText(t, result))
	}

	result, _ = srv.handleListDepartments(context.Background(), callRequest(map[string]any{"type": "secret"}))
	if !result.IsError {
		t.Fatalf("expected error for unknown type")
	}
}
