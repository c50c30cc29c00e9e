package textlayer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

const defaultPageTimeout = 10 * time.Second

// Extractor reads the embedded text layer of a PDF.
type Extractor struct {
	pageTimeout time.Duration
	plainText   func(pdf.Page) (string, error)
}

func New(pageTimeout time.Duration) *Extractor {
	if pageTimeout <= 0 {
		pageTimeout = defaultPageTimeout
	}
	return &Extractor{pageTimeout: pageTimeout, plainText: plainText}
}

func plainText(page pdf.Page) (string, error) {
	return page.GetPlainText(nil)
}

// ExtractText concatenates the text of every page in order with nothing in
// between. The text runs of a page are joined with single spaces. Pages that
// fail to parse are skipped; it is an error only when no page could be read.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("pdf is empty")
	}
	reader, err := openReader(data)
	if err != nil {
		return "", err
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	var (
		read    int
		pageErr error
	)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := e.pageText(ctx, page)
		if err != nil {
			slog.Warn("pdf_page_text_failed", "page", i, "error", err)
			pageErr = fmt.Errorf("page %d: %w", i, err)
			continue
		}
		read++
		pages = append(pages, joinRuns(content))
	}
	if read == 0 && pageErr != nil {
		return "", fmt.Errorf("no readable page: %w", pageErr)
	}
	return strings.Join(pages, ""), nil
}

func openReader(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader, err = nil, fmt.Errorf("open pdf: %v", r)
		}
	}()
	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return reader, nil
}

// pageText guards against pages whose content streams hang or panic the parser.
func (e *Extractor) pageText(ctx context.Context, page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("parse page: %v", r)}
			}
		}()
		content, err := e.plainText(page)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(e.pageTimeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errors.New("page text extraction timed out")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func joinRuns(content string) string {
	lines := strings.Split(content, "\n")
	runs := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			runs = append(runs, line)
		}
	}
	return strings.Join(runs, " ")
}
