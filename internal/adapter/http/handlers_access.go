package http

import (
	"net/http"

	"github.com/datamesh-io/marketplace/internal/domain/request"
)

type notificationsResponse struct {
	Requests []request.AccessRequest `json:"requests"`
}

type approveRequest struct {
	Username  string `json:"username"`
	RequestID string `json:"request_id"`
	Decision  string `json:"decision"`
}

type accessListResponse struct {
	AllowedDomains []string `json:"allowed_domains"`
}

type submitAccessRequest struct {
	Username      string `json:"username"`
	TargetProduct string `json:"target_product"`
	Reason        string `json:"reason"`
}

type submitAccessResponse struct {
	ID string `json:"id"`
}

// Notifications returns the pending requests targeting products owned by the
// caller's domain.
func (h *Handlers) Notifications(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeDetailErrors(w, http.StatusBadRequest, "username is required", nil)
		return
	}

	pending, err := h.broker.Inbox(r.Context(), username)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	if pending == nil {
		pending = []request.AccessRequest{}
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Requests: pending})
}

// Approve applies an owner's decision to a pending request.
func (h *Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[approveRequest](w, r)
	if !ok {
		return
	}
	if req.Username == "" {
		writeDetailErrors(w, http.StatusBadRequest, "username is required", nil)
		return
	}
	if req.RequestID == "" {
		writeDetailErrors(w, http.StatusBadRequest, "request_id is required", nil)
		return
	}

	if _, err := h.broker.Decide(r.Context(), req.Username, req.RequestID, request.Decision(req.Decision)); err != nil {
		writeDomainError(w, err, "request not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AccessList returns the product domains the caller may read right now.
func (h *Handlers) AccessList(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeDetailErrors(w, http.StatusBadRequest, "username is required", nil)
		return
	}

	allowed, err := h.broker.AllowedDomains(r.Context(), username)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, accessListResponse{AllowedDomains: allowed})
}

// SubmitAccess files a new access request.
func (h *Handlers) SubmitAccess(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[submitAccessRequest](w, r)
	if !ok {
		return
	}
	if req.Username == "" {
		writeDetailErrors(w, http.StatusBadRequest, "username is required", nil)
		return
	}

	ar, err := h.broker.SubmitRequest(r.Context(), req.Username, &request.CreateRequest{
		TargetProduct: req.TargetProduct,
		Reason:        req.Reason,
	})
	if err != nil {
		writeDomainError(w, err, "product not found")
		return
	}

	writeJSON(w, http.StatusCreated, submitAccessResponse{ID: ar.ID})
}
