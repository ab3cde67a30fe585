// Package catalog defines the port for the external product registry.
package catalog

import (
	"context"

	"github.com/datamesh-io/marketplace/internal/domain/product"
)

// Registry is the read-only view of the product catalog. The broker never
// writes through this interface; provisioning goes through the event queue.
// Implementations must bound each call with a timeout and return
// domain.ErrUpstreamUnavailable when the registry does not answer.
type Registry interface {
	ListProducts(ctx context.Context) ([]product.DataProduct, error)
	GetProduct(ctx context.Context, name string) (*product.DataProduct, error)
}
