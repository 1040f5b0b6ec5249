package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SMMClient talks to a social-media-marketing panel using the common v2 API:
// a form-encoded POST with key, action=add, service, link and quantity.
type SMMClient struct {
	baseURL string
	key     string
	hc      *http.Client
}

func NewSMMClient(baseURL, key string, hc *http.Client) *SMMClient {
	return &SMMClient{baseURL: baseURL, key: key, hc: hc}
}

func (c *SMMClient) Name() string { return "smm" }

type smmAddResponse struct {
	Order json.Number `json:"order"`
	Error string      `json:"error"`
}

func (c *SMMClient) Submit(ctx context.Context, s Submission) (Result, error) {
	if c.baseURL == "" || c.key == "" {
		return Result{}, ErrNotConfigured
	}
	if err := validate(s); err != nil {
		return Result{}, err
	}

	form := url.Values{}
	form.Set("key", c.key)
	form.Set("action", "add")
	form.Set("service", s.ServiceRef)
	form.Set("link", s.Recipient)
	form.Set("quantity", strconv.Itoa(s.Quantity))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("smm: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("smm: read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("smm: status %d: %w", resp.StatusCode, ErrRejected)
	}

	var out smmAddResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, fmt.Errorf("smm: decode: %w", err)
	}
	if out.Error != "" {
		return Result{}, fmt.Errorf("smm: %s: %w", out.Error, ErrRejected)
	}
	if out.Order == "" {
		return Result{}, fmt.Errorf("smm: empty order id: %w", ErrRejected)
	}
	return Result{Provider: c.Name(), ProviderOrderID: out.Order.String(), Status: "submitted"}, nil
}
