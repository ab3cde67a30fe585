package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/domain/policy"
	"github.com/datamesh-io/marketplace/internal/domain/product"
	"github.com/datamesh-io/marketplace/internal/port/catalog"
	"github.com/datamesh-io/marketplace/internal/port/messagequeue"
)

// CatalogService exposes the product registry and validates provisioning
// requests against compliance policy before queueing them.
type CatalogService struct {
	registry catalog.Registry
	rules    policy.Rules
	queue    messagequeue.Queue
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(registry catalog.Registry, rules policy.Rules, queue messagequeue.Queue) *CatalogService {
	return &CatalogService{registry: registry, rules: rules, queue: queue}
}

// List returns all catalog products from the registry.
func (s *CatalogService) List(ctx context.Context) ([]product.DataProduct, error) {
	return s.registry.ListProducts(ctx)
}

// Get returns a single catalog product by name.
func (s *CatalogService) Get(ctx context.Context, name string) (*product.DataProduct, error) {
	return s.registry.GetProduct(ctx, name)
}

// Provision validates a provisioning request structurally and against the
// compliance rules, then queues it for the platform to fulfil. All policy
// violations are reported together.
func (s *CatalogService) Provision(ctx context.Context, req *product.ProvisionRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if violations := s.rules.Evaluate(req); len(violations) > 0 {
		return &policy.ViolationError{Violations: violations}
	}

	slog.Info("product provisioning requested",
		"name", req.Name,
		"environment", req.Environment,
		"region", req.Region,
	)

	publishEvent(ctx, s.queue, SubjectProductRequested, ProductEvent{
		Name:         req.Name,
		Environment:  req.Environment,
		Region:       req.Region,
		PublicAccess: req.PublicAccess,
		Timestamp:    time.Now().UTC(),
	})
	return nil
}
