package http

import (
	"net/http"

	"github.com/datamesh-io/marketplace/internal/domain/product"
)

type catalogResponse struct {
	Products []product.DataProduct `json:"products"`
}

type provisionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Catalog lists all products from the registry.
func (h *Handlers) Catalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "catalog unavailable")
		return
	}
	if products == nil {
		products = []product.DataProduct{}
	}
	writeJSON(w, http.StatusOK, catalogResponse{Products: products})
}

// Provision validates a product request against compliance policy and
// queues it for the platform.
func (h *Handlers) Provision(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[product.ProvisionRequest](w, r)
	if !ok {
		return
	}

	if err := h.catalog.Provision(r.Context(), &req); err != nil {
		writeDomainError(w, err, "product not found")
		return
	}

	writeJSON(w, http.StatusOK, provisionResponse{
		Status:  "accepted",
		Message: "product request queued for provisioning",
	})
}
