package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const defaultMaxFileBytes = 20 << 20

// SubjectExtractor infers a subject from PDF or image bytes.
type SubjectExtractor interface {
	FromPDF(ctx context.Context, pdf []byte) (domain.Extraction, error)
	FromImage(ctx context.Context, img []byte, mimeType string) (domain.Extraction, error)
}

// Server exposes subject inference and reference data as MCP tools.
type Server struct {
	extractor    SubjectExtractor
	departments  ports.DepartmentLister
	maxFileBytes int64
	mcpServer    *server.MCPServer
}

func NewServer(name, version string, extractor SubjectExtractor, departments ports.DepartmentLister, maxFileBytes int64) (*Server, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if departments == nil {
		return nil, fmt.Errorf("department lister cannot be nil")
	}
	if maxFileBytes <= 0 {
		maxFileBytes = defaultMaxFileBytes
	}

	s := &Server{
		extractor:    extractor,
		departments:  departments,
		maxFileBytes: maxFileBytes,
		mcpServer:    server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"infer_subject",
		mcp.WithDescription("Find the subject line in a block of document text"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Document text to scan for a Subject: marker"),
		),
	), s.handleInferSubject)

	s.mcpServer.AddTool(mcp.NewTool(
		"extract_subject",
		mcp.WithDescription("Read a PDF, JPEG or PNG file and infer its subject"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the document"),
		),
	), s.handleExtractSubject)

	s.mcpServer.AddTool(mcp.NewTool(
		"list_departments",
		mcp.WithDescription("List records departments and their categories"),
		mcp.WithString("type",
			mcp.Description("Document type filter: all, uni or admin"),
			mcp.Enum(string(domain.TypeAll), string(domain.TypeUni), string(domain.TypeAdmin)),
		),
	), s.handleListDepartments)
}

func (s *Server) handleInferSubject(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subject, found := domain.InferSubject(text)
	return jsonResult(domain.Extraction{Subject: subject, Found: found, Method: domain.MethodTextLayer})
}

func (s *Server) handleExtractSubject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := s.readFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var extraction domain.Extraction
	switch mimeType := detectMediaType(path, data); mimeType {
	case domain.MimePDF:
		extraction, err = s.extractor.FromPDF(ctx, data)
	case domain.MimeJPEG, domain.MimePNG:
		extraction, err = s.extractor.FromImage(ctx, data, mimeType)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported document type %q", mimeType)), nil
	}
	if err != nil {
		slog.Warn("mcp_extract_failed", "path", path, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("extract subject: %v", err)), nil
	}
	return jsonResult(extraction)
}

func (s *Server) handleListDepartments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docType := domain.DocumentType(request.GetString("type", string(domain.TypeAll)))
	if !docType.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown document type %q", docType)), nil
	}
	departments, err := s.departments.ListDepartments(ctx, docType)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list departments: %v", err)), nil
	}
	if departments == nil {
		departments = []domain.Department{}
	}
	return jsonResult(departments)
}

// Run serves the tools over stdin/stdout until the input closes.
func (s *Server) Run(logger *slog.Logger) error {
	opts := []server.StdioOption{}
	if logger != nil {
		opts = append(opts, server.WithErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))
	}
	if err := server.ServeStdio(s.mcpServer, opts...); err != nil {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}

func (s *Server) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > s.maxFileBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, s.maxFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func detectMediaType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return domain.MimePDF
	case ".jpg", ".jpeg":
		return domain.MimeJPEG
	case ".png":
		return domain.MimePNG
	}
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i > 0 {
		sniffed = sniffed[:i]
	}
	return sniffed
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
