package registry

import (
	"context"
	"fmt"

	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/domain/product"
)

// Static serves a fixed product catalog from memory. It backs dev mode, where
// no external registry is running.
type Static struct {
	products []product.DataProduct
}

// NewStatic creates a registry over the given products.
func NewStatic(products []product.DataProduct) *Static {
	return &Static{products: products}
}

// DevCatalog returns the seed catalog used in dev mode: one product per
// canonical domain, all prod, all encrypted, none public.
func DevCatalog() []product.DataProduct {
	names := []string{"claims_management", "policy_administration", "risk_assessment"}
	products := make([]product.DataProduct, 0, len(names))
	for _, name := range names {
		products = append(products, product.DataProduct{
			Name:              name,
			Environment:       product.EnvProd,
			Region:            "eu-central-1",
			EncryptionEnabled: true,
			PublicAccess:      false,
		})
	}
	return products
}

func (s *Static) ListProducts(_ context.Context) ([]product.DataProduct, error) {
	return append([]product.DataProduct{}, s.products...), nil
}

func (s *Static) GetProduct(_ context.Context, name string) (*product.DataProduct, error) {
	for i := range s.products {
		if s.products[i].Name == name {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("get product %s: %w", name, domain.ErrNotFound)
}
