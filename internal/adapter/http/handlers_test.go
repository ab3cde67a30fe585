package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/datamesh-io/marketplace/internal/adapter/memory"
	"github.com/datamesh-io/marketplace/internal/adapter/memqueue"
	"github.com/datamesh-io/marketplace/internal/adapter/mockdata"
	"github.com/datamesh-io/marketplace/internal/adapter/registry"
	"github.com/datamesh-io/marketplace/internal/adapter/ws"
	"github.com/datamesh-io/marketplace/internal/config"
	"github.com/datamesh-io/marketplace/internal/domain/policy"
	"github.com/datamesh-io/marketplace/internal/service"
)

// newTestRouter wires the full HTTP surface over the dev-mode backends:
// seeded memory store, static registry, mock reader, in-process queue.
func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	store := memory.NewStore()
	if err := memory.Seed(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := registry.NewStatic(registry.DevCatalog())
	reader := mockdata.NewReader()
	queue := memqueue.New()

	authSvc := service.NewAuthService(store, &config.Auth{BcryptCost: bcrypt.MinCost})
	brokerSvc := service.NewBrokerService(store, reg, reader, nil, queue, nil, time.Minute)
	catalogSvc := service.NewCatalogService(reg, policy.Defaults(), queue)

	r := chi.NewRouter()
	MountRoutes(r, NewHandlers(authSvc, brokerSvc, catalogSvc), ws.NewHub())
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "alice", "password": "password"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[struct {
		Username string `json:"username"`
		User     struct {
			Name   string `json:"name"`
			Domain string `json:"domain"`
		} `json:"user"`
	}](t, rec)
	if resp.Username != "alice" || resp.User.Domain != "claims_management" {
		t.Fatalf("unexpected login response: %+v", resp)
	}
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	r := newTestRouter(t)

	for _, body := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "mallory", "password": "password"},
	} {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %v, got %d", body, rec.Code)
		}
		resp := decode[struct {
			Detail string `json:"detail"`
		}](t, rec)
		if resp.Detail == "" {
			t.Fatal("expected a detail message")
		}
	}
}

func TestLoginEndpointMalformedBody(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/catalog", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decode[struct {
		Products []struct {
			Name              string `json:"name"`
			Region            string `json:"region"`
			EncryptionEnabled bool   `json:"encryption_enabled"`
		} `json:"products"`
	}](t, rec)
	if len(resp.Products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(resp.Products))
	}
	if resp.Products[0].Region != "eu-central-1" {
		t.Fatalf("unexpected region %q", resp.Products[0].Region)
	}
}

func TestAccessRequestFlow(t *testing.T) {
	r := newTestRouter(t)

	// Data is gated before any request exists.
	rec := doJSON(t, r, http.MethodGet, "/api/v1/data/risk_assessment?username=alice", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before approval, got %d", rec.Code)
	}

	// alice asks for charlie's risk data.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/access", map[string]string{
		"username":       "alice",
		"target_product": "risk_assessment",
		"reason":         "quarterly fraud analysis",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		ID string `json:"id"`
	}](t, rec)
	if created.ID == "" {
		t.Fatal("expected a request id")
	}

	// A second identical request conflicts while the first is pending.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/access", map[string]string{
		"username":       "alice",
		"target_product": "risk_assessment",
		"reason":         "again",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 duplicate, got %d", rec.Code)
	}

	// The request shows up in charlie's inbox, not alice's.
	rec = doJSON(t, r, http.MethodGet, "/api/v1/notifications?username=charlie", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	inbox := decode[struct {
		Requests []struct {
			ID            string `json:"id"`
			Requester     string `json:"requester"`
			TargetProduct string `json:"target_product"`
			Reason        string `json:"reason"`
		} `json:"requests"`
	}](t, rec)
	if len(inbox.Requests) != 1 || inbox.Requests[0].ID != created.ID {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}
	if inbox.Requests[0].Requester != "alice" {
		t.Fatalf("expected requester alice, got %q", inbox.Requests[0].Requester)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/notifications?username=alice", nil)
	aliceInbox := decode[struct {
		Requests []json.RawMessage `json:"requests"`
	}](t, rec)
	if len(aliceInbox.Requests) != 0 {
		t.Fatalf("alice's inbox should be empty, got %d", len(aliceInbox.Requests))
	}

	// Only the owner may approve.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/approve", map[string]string{
		"username":   "bob",
		"request_id": created.ID,
		"decision":   "APPROVED",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/approve", map[string]string{
		"username":   "charlie",
		"request_id": created.ID,
		"decision":   "APPROVED",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	// Deciding again conflicts.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/approve", map[string]string{
		"username":   "charlie",
		"request_id": created.ID,
		"decision":   "REJECTED",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second decision, got %d", rec.Code)
	}

	// The grant shows in alice's allowed domains.
	rec = doJSON(t, r, http.MethodGet, "/api/v1/access?username=alice", nil)
	allowed := decode[struct {
		AllowedDomains []string `json:"allowed_domains"`
	}](t, rec)
	found := false
	for _, d := range allowed.AllowedDomains {
		if d == "risk_assessment" {
			found = true
		}
	}
	if !found {
		t.Fatalf("risk_assessment missing from allowed domains: %v", allowed.AllowedDomains)
	}

	// And the data endpoint now serves records.
	rec = doJSON(t, r, http.MethodGet, "/api/v1/data/risk_assessment?username=alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after approval, got %d", rec.Code)
	}
	data := decode[struct {
		Records []map[string]any `json:"records"`
	}](t, rec)
	if len(data.Records) == 0 {
		t.Fatal("expected preview records")
	}
	if _, ok := data.Records[0]["risk_score"]; !ok {
		t.Fatalf("expected risk-shaped records, got %v", data.Records[0])
	}

	// Approval for alice grants nothing to bob.
	rec = doJSON(t, r, http.MethodGet, "/api/v1/data/risk_assessment?username=bob", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for bob, got %d", rec.Code)
	}
}

func TestSelfRequestRejected(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/access", map[string]string{
		"username":       "alice",
		"target_product": "claims_management",
		"reason":         "it is mine anyway",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self request, got %d", rec.Code)
	}
}

func TestAccessUnknownProduct(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/access", map[string]string{
		"username":       "alice",
		"target_product": "no_such_product",
		"reason":         "anything",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccessMissingUsername(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/access", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/data/claims_management", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOwnDataReadableWithoutRequest(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/data/claims_management?username=alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for own product, got %d", rec.Code)
	}
	data := decode[struct {
		Records []map[string]any `json:"records"`
	}](t, rec)
	if _, ok := data.Records[0]["claim_id"]; !ok {
		t.Fatalf("expected claim-shaped records, got %v", data.Records[0])
	}
}

func TestProvisionEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/products", map[string]any{
		"name":          "fraud_detection",
		"environment":   "prod",
		"region":        "eu-central-1",
		"encryption":    map[string]bool{"enabled": true},
		"public_access": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}](t, rec)
	if resp.Status != "accepted" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
}

func TestProvisionEndpointPolicyViolations(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/products", map[string]any{
		"name":          "fraud_detection",
		"environment":   "prod",
		"region":        "us-east-1",
		"encryption":    map[string]bool{"enabled": false},
		"public_access": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decode[struct {
		Detail struct {
			Message string   `json:"message"`
			Errors  []string `json:"errors"`
		} `json:"detail"`
	}](t, rec)
	if len(resp.Detail.Errors) != 3 {
		t.Fatalf("expected 3 policy errors, got %v", resp.Detail.Errors)
	}
}
