package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DocsClient submits document orders as JSON with a bearer key.
type DocsClient struct {
	baseURL string
	key     string
	hc      *http.Client
}

func NewDocsClient(baseURL, key string, hc *http.Client) *DocsClient {
	return &DocsClient{baseURL: baseURL, key: key, hc: hc}
}

func (c *DocsClient) Name() string { return "docs" }

type docsResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (c *DocsClient) Submit(ctx context.Context, s Submission) (Result, error) {
	if c.baseURL == "" || c.key == "" {
		return Result{}, ErrNotConfigured
	}
	if err := validate(s); err != nil {
		return Result{}, err
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("docs: %w", err)
	}
	defer resp.Body.Close()

	var out docsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil && resp.StatusCode < 300 {
		return Result{}, fmt.Errorf("docs: decode: %w", err)
	}
	if resp.StatusCode >= 300 || out.Error != "" {
		return Result{}, fmt.Errorf("docs: status %d %s: %w", resp.StatusCode, out.Error, ErrRejected)
	}
	status := out.Status
	if status == "" {
		status = "submitted"
	}
	return Result{Provider: c.Name(), ProviderOrderID: out.ID, Status: status}, nil
}
