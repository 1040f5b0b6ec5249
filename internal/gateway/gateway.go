// Package gateway submits paid order lines to the third-party providers that
// fulfil them. Clients only speak the providers' call contract; they never
// touch order state.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Submitter is one upstream provider.
type Submitter interface {
	Name() string
	Submit(ctx context.Context, s Submission) (Result, error)
}

type Submission struct {
	// ServiceRef is the provider's service/product id (catalog provider_ref).
	ServiceRef string `json:"service"`
	// Recipient is the link, account id or username the service is delivered to.
	Recipient     string `json:"recipient"`
	RecipientName string `json:"recipient_name,omitempty"`
	Quantity      int    `json:"quantity"`
}

type Result struct {
	Provider        string `json:"provider"`
	ProviderOrderID string `json:"provider_order_id,omitempty"`
	Status          string `json:"status"`
}

var (
	ErrNotConfigured = errors.New("gateway: provider not configured")
	ErrRejected      = errors.New("gateway: provider rejected submission")
)

// NewHTTPClient returns a client whose requests are traced.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func validate(s Submission) error {
	if s.ServiceRef == "" || s.Recipient == "" || s.Quantity <= 0 {
		return errors.New("gateway: service, recipient and positive quantity required")
	}
	return nil
}
