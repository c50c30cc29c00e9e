package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	mcpadapter "github.com/kirillkom/document-intake/internal/adapters/mcp"
	"github.com/kirillkom/document-intake/internal/bootstrap"
	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	flags := pflag.NewFlagSet("intake-mcp", pflag.ExitOnError)
	recordsURL := flags.String("records-url", cfg.RecordsBaseURL, "records backend base URL")
	ollamaURL := flags.String("ollama-url", cfg.OllamaURL, "Ollama base URL for OCR")
	ocrModel := flags.String("ocr-model", cfg.OllamaOCRModel, "Ollama vision model")
	pdfFallback := flags.Bool("ocr-pdf-fallback", cfg.OCRPDFFallback, "OCR the first page image when a PDF has no subject in its text")
	logLevel := flags.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	showVersion := flags.BoolP("version", "v", false, "print version and exit")
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg.RecordsBaseURL = *recordsURL
	cfg.OllamaURL = *ollamaURL
	cfg.OllamaOCRModel = *ocrModel
	cfg.OCRPDFFallback = *pdfFallback

	// stdout carries the protocol
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", *logLevel)

	srv, err := mcpadapter.NewServer(
		"document-intake",
		version,
		bootstrap.NewSubjectExtractor(cfg, nil),
		bootstrap.NewRecordsClient(cfg),
		cfg.MaxUploadBytes(),
	)
	if err != nil {
		logger.Error("mcp_init_failed", "error", err)
		os.Exit(1)
	}

	logger.Info("mcp_serving", "records_url", cfg.RecordsBaseURL, "ocr_model", cfg.OllamaOCRModel)
	if err := srv.Run(logger); err != nil {
		logger.Error("mcp_serve_failed", "error", err)
		os.Exit(1)
	}
}
