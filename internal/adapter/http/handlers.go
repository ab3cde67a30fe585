package http

import (
	"github.com/datamesh-io/marketplace/internal/service"
)

// Handlers bundles the services exposed over HTTP.
type Handlers struct {
	auth    *service.AuthService
	broker  *service.BrokerService
	catalog *service.CatalogService
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(auth *service.AuthService, broker *service.BrokerService, catalog *service.CatalogService) *Handlers {
	return &Handlers{
		auth:    auth,
		broker:  broker,
		catalog: catalog,
	}
}
