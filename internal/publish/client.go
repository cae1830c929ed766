package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the submission backend over HTTP. It implements
// TargetSource, Uploader and Publisher.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a backend client for the given base URL.
func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// UploadTarget asks the backend for a pre-signed write location for one
// page's export.
func (c *Client) UploadTarget(ctx context.Context, submissionID string, pageIndex int) (Target, error) {
	url := fmt.Sprintf("%s/submissions/%s/pages/%d/upload-target", c.base, submissionID, pageIndex)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return Target{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Target{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Target{}, fmt.Errorf("upload target: backend returned %s", resp.Status)
	}

	var target Target
	if err := json.NewDecoder(resp.Body).Decode(&target); err != nil {
		return Target{}, fmt.Errorf("upload target: decode response: %w", err)
	}
	if target.URL == "" || target.Key == "" {
		return Target{}, fmt.Errorf("upload target: response missing url or key")
	}
	return target, nil
}

// Put uploads the export bytes to the pre-signed location.
func (c *Client) Put(ctx context.Context, url string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "image/png")
	req.ContentLength = int64(len(data))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("put: storage returned %s", resp.Status)
	}
	return nil
}

// Publish marks the uploaded key as the page's published artifact. HTTP 409
// maps to a *PublishConflictError so the pipeline can apply its one retry.
func (c *Client) Publish(ctx context.Context, submissionID string, pageIndex int, key string, version int64) error {
	body, err := json.Marshal(map[string]any{
		"pageIndex": pageIndex,
		"key":       key,
		"version":   version,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/submissions/%s/publish", c.base, submissionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return &PublishConflictError{PageIndex: pageIndex, Version: version}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("publish: backend returned %s", resp.Status)
	}
	return nil
}
