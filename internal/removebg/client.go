package removebg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// MaxImageBytes caps downloaded source images.
const MaxImageBytes = 12 << 20

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoffs   []time.Duration
}

// ErrorResponse is the error envelope remove.bg returns on non-200 responses.
type ErrorResponse struct {
	Errors []struct {
		Title  string `json:"title"`
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (e ErrorResponse) message() string {
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Detail != "" {
			parts = append(parts, item.Title+": "+item.Detail)
		} else {
			parts = append(parts, item.Title)
		}
	}
	return strings.Join(parts, "; ")
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoffs: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// SetBackoffs replaces the delays used between retries.
func (c *Client) SetBackoffs(backoffs ...time.Duration) {
	c.backoffs = backoffs
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// RemoveBackgroundFromURL asks remove.bg to fetch the image itself.
func (c *Client) RemoveBackgroundFromURL(ctx context.Context, imageURL string) ([]byte, error) {
	return c.removeBackground(ctx, func(w *multipart.Writer) error {
		return w.WriteField("image_url", imageURL)
	})
}

// RemoveBackground uploads the image bytes and returns a transparent PNG.
func (c *Client) RemoveBackground(ctx context.Context, filename string, data []byte) ([]byte, error) {
	return c.removeBackground(ctx, func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("image_file", filename)
		if err != nil {
			return err
		}
		_, err = part.Write(data)
		return err
	})
}

func (c *Client) removeBackground(ctx context.Context, writeSource func(*multipart.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writeSource(writer); err != nil {
		return nil, fmt.Errorf("failed to write image field: %w", err)
	}
	if err := writer.WriteField("size", "auto"); err != nil {
		return nil, fmt.Errorf("failed to write size field: %w", err)
	}
	if err := writer.WriteField("format", "png"); err != nil {
		return nil, fmt.Errorf("failed to write format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/removebg", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "image/png, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && len(errResp.Errors) > 0 {
			return nil, fmt.Errorf("remove.bg failed: status %d: %s", resp.StatusCode, errResp.message())
		}
		return nil, fmt.Errorf("remove.bg failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("remove.bg returned an empty image")
	}

	return body, nil
}

// FetchImage downloads a source image, retrying transient failures.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	var data []byte
	var contentType string

	err := c.RetryWithBackoff(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to download image: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to download image: status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		if len(body) > MaxImageBytes {
			return fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
		}

		data = body
		contentType = resp.Header.Get("Content-Type")
		return nil
	}, 3)
	if err != nil {
		return nil, "", err
	}

	return data, contentType, nil
}

// RetryWithBackoff executes a function with exponential backoff retry logic
func (c *Client) RetryWithBackoff(fn func() error, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < maxRetries-1 && i < len(c.backoffs) {
			time.Sleep(c.backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
