package highlight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Annotator is the boundary to the external annotation capability. It
// receives one chunk's raw text and returns the same text with highlight
// spans inserted. Implementations own their transport and timeouts.
type Annotator interface {
	Annotate(ctx context.Context, docTitle, chunkText string) (string, error)
}

// ClaudeAnnotator calls the Anthropic Messages API to annotate a chunk.
type ClaudeAnnotator struct {
	apiKey     string
	model      string
	format     SpanFormat
	httpClient *http.Client
}

func NewClaudeAnnotator(apiKey, model string, format SpanFormat) *ClaudeAnnotator {
	return &ClaudeAnnotator{
		apiKey: apiKey,
		model:  model,
		format: format,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Annotate sends one chunk and returns the marked-up text.
func (c *ClaudeAnnotator) Annotate(ctx context.Context, docTitle, chunkText string) (string, error) {
	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: 8192,
		Messages: []anthropicMessage{
			{Role: "user", Content: BuildPrompt(docTitle, chunkText, c.format)},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claude api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("claude error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response from claude")
	}

	return stripCodeBlock(apiResp.Content[0].Text), nil
}

// Model returns the configured model identifier.
func (c *ClaudeAnnotator) Model() string {
	return c.model
}

// Close releases resources.
func (c *ClaudeAnnotator) Close() {
	c.httpClient.CloseIdleConnections()
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:markdown|md)?\\s*\\n(.*?)\\n```$")

// stripCodeBlock unwraps a response the model fenced despite instructions.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure (timeout, rate limit,
// upstream 5xx) that is worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("retryable error: %s", truncate(e.Message, 200))
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// AnnotationError wraps a failed exchange with the external annotator.
type AnnotationError struct {
	ChunkIndex int
	Err        error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("annotate chunk %d: %v", e.ChunkIndex, e.Err)
}

func (e *AnnotationError) Unwrap() error {
	return e.Err
}
