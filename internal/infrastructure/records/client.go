package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/infrastructure/resilience"
)

const maxResponseBody = 1 << 20

// Client speaks to the records backend: department lookup and scan upload.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("records %s: backend returned status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("records %s: backend returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

func (c *Client) ListDepartments(ctx context.Context, docType domain.DocumentType) ([]domain.Department, error) {
	endpoint := c.baseURL + "/api/department?" + url.Values{"type": {string(docType)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create department request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resilience.MarkTemporary("list departments", fmt.Errorf("records department request: %w", err), nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, resilience.MarkTemporary("list departments", &StatusError{
			Operation:  "department",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}, nil)
	}

	var departments []domain.Department
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&departments); err != nil {
		return nil, fmt.Errorf("decode departments: %w", err)
	}
	for i := range departments {
		if departments[i].Categories == nil {
			departments[i].Categories = []string{}
		}
	}
	return departments, nil
}

// Submit posts one multipart scan upload. Any non-2xx answer is a rejection.
func (c *Client) Submit(ctx context.Context, payload domain.SubmissionPayload) (domain.SubmissionReceipt, error) {
	body, contentType, err := encodeSubmission(payload)
	if err != nil {
		return domain.SubmissionReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/scanupload", body)
	if err != nil {
		return domain.SubmissionReceipt{}, fmt.Errorf("create scanupload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SubmissionReceipt{}, resilience.MarkTemporary("submit", fmt.Errorf("records scanupload request: %w", err), nil)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.SubmissionReceipt{}, fmt.Errorf("read scanupload response: %w", err)
	}

	var answer struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	decodeErr := json.Unmarshal(raw, &answer)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.SubmissionReceipt{}, &domain.RejectedError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(answer.Error),
		}
	}
	if decodeErr != nil && len(bytes.TrimSpace(raw)) > 0 {
		return domain.SubmissionReceipt{}, fmt.Errorf("decode scanupload response: %w", decodeErr)
	}
	return domain.SubmissionReceipt{Message: answer.Message}, nil
}

// encodeSubmission writes the parts in the order the backend expects.
func encodeSubmission(payload domain.SubmissionPayload) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	contentType := payload.ContentType
	if contentType == "" {
		contentType = domain.MimePDF
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(payload.Filename)))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	form := payload.Form
	fields := []struct{ name, value string }{
		{"type", string(form.Type)},
		{"department", form.Department},
		{"category", form.Category},
		{"subject", form.Subject},
		{"date", form.Date},
		{"diaryNo", form.DiaryNo},
		{"from", form.From},
		{"disposal", form.Disposal},
		{"status", string(form.Status)},
	}
	for _, field := range fields {
		if err := mw.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
