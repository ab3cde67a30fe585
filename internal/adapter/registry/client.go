// Package registry provides adapters for the external product catalog.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/domain/product"
	"github.com/datamesh-io/marketplace/internal/resilience"
)

// Client talks to the catalog registry's HTTP API. Every call carries a
// bounded deadline; any transport failure or timeout surfaces as
// domain.ErrUpstreamUnavailable so callers never hang on the registry.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a catalog registry client.
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

// ListProducts returns the full current catalog.
func (c *Client) ListProducts(ctx context.Context) ([]product.DataProduct, error) {
	data, err := c.doRequest(ctx, "/products")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	var result struct {
		Products []product.DataProduct `json:"products"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal products: %w", err)
	}
	return result.Products, nil
}

// GetProduct returns one catalog entry by name.
func (c *Client) GetProduct(ctx context.Context, name string) (*product.DataProduct, error) {
	data, err := c.doRequest(ctx, "/products/"+name)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", name, err)
	}

	var p product.DataProduct
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product %s: %w", name, err)
	}
	return &p, nil
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	var result []byte
	call := func() error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("registry request: %w: %w", domain.ErrUpstreamUnavailable, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusNotFound {
			return domain.ErrNotFound
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("registry error %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		err := c.breaker.Execute(call)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
