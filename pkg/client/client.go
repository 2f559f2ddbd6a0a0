package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client is a thin HTTP wrapper for the search service API.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// New creates a new search service client.
func New(url string) *Client {
	return &Client{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// SearchHit is a single ranked result.
type SearchHit struct {
	DocumentID string  `json:"documentId"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// SearchResult is the response from a search. SearchTimeMs is nil when the
// service did not report a server-side timing.
type SearchResult struct {
	Hits         []SearchHit `json:"hits"`
	TotalHits    int         `json:"totalHits"`
	SearchTimeMs *float64    `json:"searchTimeMs"`
}

// Search issues one query and returns the decoded result.
func (c *Client) Search(ctx context.Context, query string, topK int) (*SearchResult, error) {
	body := map[string]interface{}{
		"query": query,
		"topK":  topK,
	}
	var result SearchResult
	if err := c.post(ctx, "/api/v1/search", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChunkStats describes the current state of the remote index.
type ChunkStats struct {
	TotalChunks       int     `json:"totalChunks"`
	TotalTokens       int     `json:"totalTokens"`
	AvgTokensPerChunk float64 `json:"avgTokensPerChunk"`
	IndexSizeBytes    int64   `json:"indexSizeBytes"`
}

// GetChunkStats returns index statistics from the service.
func (c *Client) GetChunkStats(ctx context.Context) (*ChunkStats, error) {
	var stats ChunkStats
	if err := c.get(ctx, "/api/v1/search/chunk-stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health probes the ingestion health endpoint. A nil error means the
// service answered 200.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/api/v1/ingest/health", nil)
}

// WaitReady polls the health endpoint until the service answers or the
// deadline passes.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if lastErr = c.Health(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return fmt.Errorf("service not ready after %s: %w", timeout, lastErr)
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.doRequest(ctx, "GET", path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.doRequest(ctx, "POST", path, body, result)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if result != nil {
		return json.Unmarshal(data, result)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	json.Unmarshal(data, &apiErr)
	msg := apiErr.Error
	if msg == "" {
		msg = apiErr.Message
	}
	return &APIError{StatusCode: status, Code: apiErr.Code, Message: msg}
}

// multipartUpload posts the given files as a multipart form to path.
func (c *Client) multipartUpload(ctx context.Context, path string, files []UploadFile, result interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("file", f.Name)
		if err != nil {
			return fmt.Errorf("create form file %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("write form file %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.URL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if result != nil {
		return json.Unmarshal(data, result)
	}
	return nil
}
