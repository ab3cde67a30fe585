package http

import (
	"net/http"

	"github.com/datamesh-io/marketplace/internal/port/datareader"
)

type dataResponse struct {
	Records []datareader.Record `json:"records"`
}

// Data serves preview records for a product. The broker re-evaluates
// authorization on every call before touching the reader.
func (h *Handlers) Data(w http.ResponseWriter, r *http.Request) {
	productName := urlParam(r, "product")
	username := r.URL.Query().Get("username")
	if username == "" {
		writeDetailErrors(w, http.StatusBadRequest, "username is required", nil)
		return
	}

	records, err := h.broker.ReadData(r.Context(), username, productName)
	if err != nil {
		writeDomainError(w, err, "product not found")
		return
	}
	if records == nil {
		records = []datareader.Record{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Records: records})
}
