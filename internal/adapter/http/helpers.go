package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/domain/policy"
)

// maxBodySize bounds request bodies; every payload here is small JSON.
const maxBodySize = 1 << 20

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if err.Error() == "http: request body too large" {
			writeDetail(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

// detailResponse is the error envelope for every non-2xx body.
type detailResponse struct {
	Detail any `json:"detail"`
}

// errorDetail is the structured form used for field-level failures.
type errorDetail struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeDetail writes {"detail": "<message>"}.
func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, detailResponse{Detail: message})
}

// writeDetailErrors writes {"detail": {"message": ..., "errors": [...]}}.
func writeDetailErrors(w http.ResponseWriter, status int, message string, errs []string) {
	writeJSON(w, status, detailResponse{Detail: errorDetail{Message: message, Errors: errs}})
}

// writeDomainError maps domain sentinel errors to HTTP statuses. Login
// failures carry a plain string detail; everything else uses the structured
// {message, errors?} form.
func writeDomainError(w http.ResponseWriter, err error, fallbackMsg string) {
	var violation *policy.ViolationError
	switch {
	case errors.As(err, &violation):
		writeDetailErrors(w, http.StatusBadRequest, "compliance validation failed", violation.Violations)
	case errors.Is(err, domain.ErrInvalidCredential):
		writeDetail(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, domain.ErrValidation):
		writeDetailErrors(w, http.StatusBadRequest, trimValidation(err), nil)
	case errors.Is(err, domain.ErrSelfRequest):
		writeDetailErrors(w, http.StatusBadRequest, "cannot request access to a product owned by your own domain", nil)
	case errors.Is(err, domain.ErrForbidden):
		writeDetailErrors(w, http.StatusForbidden, "only the owning domain may decide this request", nil)
	case errors.Is(err, domain.ErrAccessDenied):
		writeDetailErrors(w, http.StatusForbidden, "access denied: no approved request for this product", nil)
	case errors.Is(err, domain.ErrNotFound):
		writeDetailErrors(w, http.StatusNotFound, fallbackMsg, nil)
	case errors.Is(err, domain.ErrDuplicatePendingRequest):
		writeDetailErrors(w, http.StatusConflict, "a pending request for this product already exists", nil)
	case errors.Is(err, domain.ErrAlreadyDecided):
		writeDetailErrors(w, http.StatusConflict, "request has already been decided", nil)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		writeDetailErrors(w, http.StatusBadGateway, "upstream service unavailable", nil)
	default:
		slog.Error("unhandled domain error", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}

// trimValidation strips the sentinel prefix so clients see only the field message.
func trimValidation(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrValidation.Error())+2:]
	}
	return msg
}
