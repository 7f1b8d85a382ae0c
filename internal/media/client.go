// Package media is the HTTP client for the external image-hosting service.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kazipost/kazipost/internal/platform/timeouts"
)

// uploadFieldName is the multipart form field carrying the file payload.
const uploadFieldName = "image"

// Client talks to the media upload and delete endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a media client for the given base URL. When httpClient
// is nil a default client with traced transport is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

type uploadResponse struct {
	ImgURL string `json:"imgUrl"`
}

type deleteRequest struct {
	ImgURL string `json:"imgUrl"`
}

// Upload posts one file and returns the hosted image URL.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("media client is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(uploadFieldName, filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.MediaUpload)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("upload %s: unexpected status %d", filename, resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if strings.TrimSpace(parsed.ImgURL) == "" {
		return "", fmt.Errorf("upload %s: response carried no image url", filename)
	}
	return parsed.ImgURL, nil
}

// Delete removes a previously uploaded image. The endpoint is idempotent:
// deleting an unknown URL reports success from the caller's perspective, so
// only transport failures and server errors surface.
func (c *Client) Delete(ctx context.Context, remoteURL string) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("media client is not configured")
	}
	if strings.TrimSpace(remoteURL) == "" {
		return fmt.Errorf("remote url is required")
	}

	payload, err := json.Marshal(deleteRequest{ImgURL: remoteURL})
	if err != nil {
		return fmt.Errorf("encode delete request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.MediaDelete)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/delete", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", remoteURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// 404 means the image is already gone, which is success for the caller.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delete %s: unexpected status %d", remoteURL, resp.StatusCode)
	}
	return nil
}
