// Package archive uploads content to an IPFS/Filecoin pinning service
// (Lighthouse-compatible) and returns content identifiers.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/nocap-ai/nocap/internal/model"
)

var (
	// ErrMissingAPIKey indicates no pinning credentials are configured
	ErrMissingAPIKey = errors.New("archive API key not configured")

	// ErrNoHash indicates the upload succeeded but no CID came back
	ErrNoHash = errors.New("upload response contained no hash")
)

// Uploader is the archive interface consumed by the lifecycle engine
// and the aether pipeline
type Uploader interface {
	UploadText(ctx context.Context, text string) (string, error)
	UploadBuffer(ctx context.Context, name string, data []byte) (string, error)
}

// Client talks to a Lighthouse-style pinning node
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// uploadResponse is the pinning node's add response
type uploadResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// NewClient creates an archive client from configuration
func NewClient(cfg *model.ArchiveConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://node.lighthouse.storage"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// UploadText uploads a text blob and returns its CID
func (c *Client) UploadText(ctx context.Context, text string) (string, error) {
	return c.UploadBuffer(ctx, "claim.json", []byte(text))
}

// UploadBuffer uploads raw bytes under the given file name and returns
// the CID
func (c *Client) UploadBuffer(ctx context.Context, name string, data []byte) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/api/v0/add", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if uploaded.Hash == "" {
		return "", ErrNoHash
	}

	return uploaded.Hash, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
