package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/domain/request"
	"github.com/datamesh-io/marketplace/internal/port/datareader"
)

func newBroker(t *testing.T) (*BrokerService, *mockQueue, *mockReader, *mockCache) {
	t.Helper()
	store := newTestStore(t)
	reg := &mockRegistry{products: testProducts()}
	reader := &mockReader{records: []datareader.Record{{"record_id": "rec-1"}}}
	queue := &mockQueue{}
	c := newMockCache()
	return NewBrokerService(store, reg, reader, c, queue, nil, time.Minute), queue, reader, c
}

func TestSubmitRequest(t *testing.T) {
	ctx := context.Background()
	svc, queue, _, _ := newBroker(t)

	ar, err := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "quarterly fraud analysis",
	})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if ar.ID == "" {
		t.Fatal("expected a generated ID")
	}
	if ar.Status != request.StatusPending {
		t.Fatalf("expected PENDING, got %s", ar.Status)
	}
	if ar.Requester != "alice" || ar.RequesterDomain != "claims_management" {
		t.Fatalf("requester identity not resolved server-side: %+v", ar)
	}

	subjects := queue.subjects()
	if len(subjects) != 1 || subjects[0] != SubjectRequestSubmitted {
		t.Fatalf("expected one %s event, got %v", SubjectRequestSubmitted, subjects)
	}
}

func TestSubmitRequestValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	_, err := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{TargetProduct: "risk_assessment"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSubmitRequestSelfRequest(t *testing.T) {
	ctx := context.Background()
	svc, queue, _, _ := newBroker(t)

	_, err := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "claims_management",
		Reason:        "own data",
	})
	if !errors.Is(err, domain.ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest, got %v", err)
	}
	if len(queue.subjects()) != 0 {
		t.Fatal("rejected request must not publish events")
	}
}

func TestSubmitRequestUnknownProduct(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	_, err := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "no_such_product",
		Reason:        "anything",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitRequestDuplicatePending(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	req := &request.CreateRequest{TargetProduct: "risk_assessment", Reason: "one"}
	if _, err := svc.SubmitRequest(ctx, "alice", req); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "two",
	})
	if !errors.Is(err, domain.ErrDuplicatePendingRequest) {
		t.Fatalf("expected ErrDuplicatePendingRequest, got %v", err)
	}
}

func TestSubmitRequestUpstreamDown(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	reg := &mockRegistry{err: domain.ErrUpstreamUnavailable}
	svc := NewBrokerService(store, reg, &mockReader{}, nil, nil, nil, time.Minute)

	_, err := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "anything",
	})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestDecideApprove(t *testing.T) {
	ctx := context.Background()
	svc, queue, _, _ := newBroker(t)

	ar, _ := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "analysis",
	})

	// charlie belongs to risk_assessment, the owning domain.
	decided, err := svc.Decide(ctx, "charlie", ar.ID, request.DecisionApproved)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != request.StatusApproved {
		t.Fatalf("expected APPROVED, got %s", decided.Status)
	}
	if decided.DecidedAt == nil {
		t.Fatal("DecidedAt should be set")
	}

	subjects := queue.subjects()
	if len(subjects) != 2 || subjects[1] != SubjectRequestDecided {
		t.Fatalf("expected submitted+decided events, got %v", subjects)
	}
}

func TestDecideNonOwnerForbidden(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	ar, _ := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "analysis",
	})

	// bob's domain does not own risk_assessment; neither does the requester.
	for _, username := range []string{"bob", "alice"} {
		if _, err := svc.Decide(ctx, username, ar.ID, request.DecisionApproved); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden for %s, got %v", username, err)
		}
	}
}

func TestDecideTwiceConflict(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	ar, _ := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "analysis",
	})
	if _, err := svc.Decide(ctx, "charlie", ar.ID, request.DecisionRejected); err != nil {
		t.Fatalf("first decision: %v", err)
	}

	_, err := svc.Decide(ctx, "charlie", ar.ID, request.DecisionApproved)
	if !errors.Is(err, domain.ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
}

func TestDecideInvalidDecision(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	_, err := svc.Decide(ctx, "charlie", "any", request.Decision("MAYBE"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDecideUnknownRequest(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	_, err := svc.Decide(ctx, "charlie", "missing-id", request.DecisionApproved)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInbox(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	ar, _ := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "analysis",
	})
	_, _ = svc.SubmitRequest(ctx, "bob", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "premium model",
	})

	inbox, err := svc.Inbox(ctx, "charlie")
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(inbox))
	}

	// Deciding one removes it from the inbox.
	_, _ = svc.Decide(ctx, "charlie", ar.ID, request.DecisionApproved)
	inbox, _ = svc.Inbox(ctx, "charlie")
	if len(inbox) != 1 {
		t.Fatalf("expected 1 pending after decision, got %d", len(inbox))
	}

	// Requests never land in the requester's own inbox.
	aliceInbox, _ := svc.Inbox(ctx, "alice")
	if len(aliceInbox) != 0 {
		t.Fatalf("expected empty inbox for alice, got %d", len(aliceInbox))
	}
}

func TestAllowedDomains(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	// Before any approvals: own domain plus the public product.
	allowed, err := svc.AllowedDomains(ctx, "alice")
	if err != nil {
		t.Fatalf("AllowedDomains: %v", err)
	}
	want := []string{"claims_management", "open_data"}
	if len(allowed) != len(want) || allowed[0] != want[0] || allowed[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, allowed)
	}

	ar, _ := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "analysis",
	})
	_, _ = svc.Decide(ctx, "charlie", ar.ID, request.DecisionApproved)

	allowed, _ = svc.AllowedDomains(ctx, "alice")
	if len(allowed) != 3 {
		t.Fatalf("expected 3 allowed domains after approval, got %v", allowed)
	}
}

func TestAuthorizeRead(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	// Own product.
	if err := svc.AuthorizeRead(ctx, "alice", "claims_management"); err != nil {
		t.Fatalf("own product: %v", err)
	}

	// Public product.
	if err := svc.AuthorizeRead(ctx, "alice", "open_data"); err != nil {
		t.Fatalf("public product: %v", err)
	}

	// No approval yet.
	err := svc.AuthorizeRead(ctx, "alice", "risk_assessment")
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	// Approval takes effect immediately.
	ar, _ := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "analysis",
	})
	_, _ = svc.Decide(ctx, "charlie", ar.ID, request.DecisionApproved)
	if err := svc.AuthorizeRead(ctx, "alice", "risk_assessment"); err != nil {
		t.Fatalf("after approval: %v", err)
	}
}

func TestAuthorizeReadRejectionDoesNotGrant(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newBroker(t)

	ar, _ := svc.SubmitRequest(ctx, "alice", &request.CreateRequest{
		TargetProduct: "risk_assessment",
		Reason:        "analysis",
	})
	_, _ = svc.Decide(ctx, "charlie", ar.ID, request.DecisionRejected)

	err := svc.AuthorizeRead(ctx, "alice", "risk_assessment")
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("rejection must not grant access, got %v", err)
	}
}

func TestReadDataGate(t *testing.T) {
	ctx := context.Background()
	svc, _, reader, _ := newBroker(t)

	// Denied read never reaches the reader.
	_, err := svc.ReadData(ctx, "alice", "risk_assessment")
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if reader.calls != 0 {
		t.Fatalf("reader must not be called on denial, got %d calls", reader.calls)
	}

	records, err := svc.ReadData(ctx, "alice", "claims_management")
	if err != nil {
		t.Fatalf("ReadData: %v", err)
	}
	if len(records) != 1 || records[0]["record_id"] != "rec-1" {
		t.Fatalf("unexpected records: %v", records)
	}
	if reader.calls != 1 {
		t.Fatalf("expected 1 reader call, got %d", reader.calls)
	}
}

func TestReadDataCachesPreviewNotAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, _, reader, c := newBroker(t)

	if _, err := svc.ReadData(ctx, "alice", "claims_management"); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := svc.ReadData(ctx, "alice", "claims_management"); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if reader.calls != 1 {
		t.Fatalf("second read should hit the preview cache, reader calls = %d", reader.calls)
	}
	if c.hits == 0 {
		t.Fatal("expected a cache hit")
	}

	// The cached payload must not leak past the gate: a user without a
	// grant is still denied even when the preview is warm.
	_, err := svc.ReadData(ctx, "bob", "claims_management")
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("warm cache must not bypass authorization, got %v", err)
	}
}

func TestReadDataReaderFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	reg := &mockRegistry{products: testProducts()}
	reader := &mockReader{err: domain.ErrUpstreamUnavailable}
	svc := NewBrokerService(store, reg, reader, nil, nil, nil, time.Minute)

	_, err := svc.ReadData(ctx, "alice", "claims_management")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
