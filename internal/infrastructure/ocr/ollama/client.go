package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-intake/internal/infrastructure/resilience"
)

const (
	generatePath    = "/api/generate"
	operationOCR    = "ollama.generate"
	maxErrorBody    = 2048
	maxResponseBody = 1 << 20
)

// Client talks to an Ollama vision model and reads document text from images.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithExecutor(exec *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = exec
	}
}

func New(baseURL, model string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Recognize transcribes the text visible in an encoded JPEG or PNG image.
func (c *Client) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("ocr image is empty")
	}

	req := generateRequest{
		Model:  c.model,
		Prompt: buildOCRPrompt(mimeType),
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	}
	var text string
	err := c.executor.Execute(ctx, operationOCR, func(callCtx context.Context) error {
		out, err := c.generate(callCtx, req)
		text = out
		return err
	}, resilience.ClassifyHTTP)
	if err != nil {
		return "", resilience.MarkTemporary("ollama ocr", err, resilience.ClassifyHTTP)
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) generate(ctx context.Context, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(raw)}
	}
	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return out.Response, nil
}

// HTTPStatusError is a non-2xx answer from Ollama.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return fmt.Sprintf("ollama generate status: %s: %s", e.Status, body)
	}
	return fmt.Sprintf("ollama generate status: %s", e.Status)
}

func (e *HTTPStatusError) HTTPStatus() int {
	return e.StatusCode
}
