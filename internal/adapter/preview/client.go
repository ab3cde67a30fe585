// Package preview provides an HTTP client for the external data reader.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/port/datareader"
	"github.com/datamesh-io/marketplace/internal/resilience"
)

// Client fetches preview records from the data reader service. Calls are
// bounded by the configured timeout; failures surface as
// domain.ErrUpstreamUnavailable.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a data reader client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Read returns preview records for the given product.
func (c *Client) Read(ctx context.Context, productName string) ([]datareader.Record, error) {
	var records []datareader.Record
	call := func() error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/"+productName, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("reader request: %w: %w", domain.ErrUpstreamUnavailable, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusNotFound {
			return domain.ErrNotFound
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("reader error %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		var result struct {
			Records []datareader.Record `json:"records"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("unmarshal records: %w", err)
		}
		records = result.Records
		return nil
	}

	if c.breaker != nil {
		err := c.breaker.Execute(call)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, fmt.Errorf("read %s: %w: %w", productName, domain.ErrUpstreamUnavailable, err)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", productName, err)
		}
		return records, nil
	}

	if err := call(); err != nil {
		return nil, fmt.Errorf("read %s: %w", productName, err)
	}
	return records, nil
}
