package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/datamesh-io/marketplace/internal/adapter/otel"
	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/domain/request"
	"github.com/datamesh-io/marketplace/internal/port/cache"
	"github.com/datamesh-io/marketplace/internal/port/catalog"
	"github.com/datamesh-io/marketplace/internal/port/database"
	"github.com/datamesh-io/marketplace/internal/port/datareader"
	"github.com/datamesh-io/marketplace/internal/port/messagequeue"
)

// BrokerService runs the access request lifecycle and the read authorization
// gate. All grants are derived from the ledger on demand; nothing about
// authorization is ever cached or precomputed.
type BrokerService struct {
	store      database.Store
	registry   catalog.Registry
	reader     datareader.Reader
	cache      cache.Cache
	queue      messagequeue.Queue
	metrics    *otel.Metrics
	previewTTL time.Duration
}

// NewBrokerService creates a new broker service. cache, queue, and metrics
// may be nil; the broker degrades to uncached, unpublished operation.
func NewBrokerService(
	store database.Store,
	registry catalog.Registry,
	reader datareader.Reader,
	c cache.Cache,
	queue messagequeue.Queue,
	metrics *otel.Metrics,
	previewTTL time.Duration,
) *BrokerService {
	return &BrokerService{
		store:      store,
		registry:   registry,
		reader:     reader,
		cache:      c,
		queue:      queue,
		metrics:    metrics,
		previewTTL: previewTTL,
	}
}

// SubmitRequest files a new access request on behalf of username. The
// requester's domain is resolved server-side; requests against the caller's
// own products are rejected, and at most one request per (requester domain,
// target product) pair may be pending at a time.
func (s *BrokerService) SubmitRequest(ctx context.Context, username string, req *request.CreateRequest) (*request.AccessRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve requester: %w", err)
	}

	p, err := s.registry.GetProduct(ctx, req.TargetProduct)
	if err != nil {
		return nil, fmt.Errorf("resolve product: %w", err)
	}

	if p.OwningDomain() == u.Domain {
		return nil, domain.ErrSelfRequest
	}

	ar := &request.AccessRequest{
		ID:              uuid.NewString(),
		Requester:       u.Username,
		RequesterDomain: u.Domain,
		TargetProduct:   p.Name,
		Reason:          req.Reason,
		Status:          request.StatusPending,
		CreatedAt:       time.Now().UTC(),
	}

	ctx, span := otel.StartRequestSpan(ctx, ar.ID, ar.Requester, ar.TargetProduct)
	defer span.End()

	if err := s.store.InsertRequest(ctx, ar); err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RequestsSubmitted.Add(ctx, 1)
	}
	slog.Info("access request submitted",
		"request_id", ar.ID,
		"requester", ar.Requester,
		"target_product", ar.TargetProduct,
	)

	publishEvent(ctx, s.queue, SubjectRequestSubmitted, RequestEvent{
		ID:              ar.ID,
		Requester:       ar.Requester,
		RequesterDomain: ar.RequesterDomain,
		TargetProduct:   ar.TargetProduct,
		Reason:          ar.Reason,
		Timestamp:       ar.CreatedAt,
	})

	return ar, nil
}

// Decide applies an owner's decision to a pending request. Only users whose
// domain owns the target product may decide, and a request is decided
// exactly once.
func (s *BrokerService) Decide(ctx context.Context, username, requestID string, decision request.Decision) (*request.AccessRequest, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: decision must be APPROVED or REJECTED", domain.ErrValidation)
	}

	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve decider: %w", err)
	}

	ar, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}

	// Ownership gate: product name and owning domain coincide.
	if ar.TargetProduct != u.Domain {
		return nil, domain.ErrForbidden
	}

	if ar.Decided() {
		return nil, domain.ErrAlreadyDecided
	}

	ctx, span := otel.StartDecisionSpan(ctx, requestID, string(decision))
	defer span.End()

	if err := s.store.ApplyDecision(ctx, requestID, decision); err != nil {
		return nil, fmt.Errorf("apply decision: %w", err)
	}

	ar, err = s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("reload request: %w", err)
	}

	if s.metrics != nil {
		switch decision {
		case request.DecisionApproved:
			s.metrics.RequestsApproved.Add(ctx, 1)
		case request.DecisionRejected:
			s.metrics.RequestsRejected.Add(ctx, 1)
		}
	}
	slog.Info("access request decided",
		"request_id", ar.ID,
		"decision", string(decision),
		"decided_by", u.Username,
	)

	publishEvent(ctx, s.queue, SubjectRequestDecided, DecisionEvent{
		ID:            ar.ID,
		Requester:     ar.Requester,
		TargetProduct: ar.TargetProduct,
		Decision:      string(decision),
		DecidedBy:     u.Username,
		Timestamp:     time.Now().UTC(),
	})

	return ar, nil
}

// Inbox returns the pending requests targeting products owned by username's
// domain, oldest first.
func (s *BrokerService) Inbox(ctx context.Context, username string) ([]request.AccessRequest, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return s.store.ListPendingTargeting(ctx, u.Domain)
}

// AllowedDomains returns the product domains username may read: their own
// domain, every domain with an approved request from theirs, and every
// public product. The set is derived fresh on every call.
func (s *BrokerService) AllowedDomains(ctx context.Context, username string) ([]string, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	approved, err := s.store.ListApprovedProducts(ctx, u.Domain)
	if err != nil {
		return nil, fmt.Errorf("list approved: %w", err)
	}

	products, err := s.registry.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	seen := map[string]bool{u.Domain: true}
	for _, name := range approved {
		seen[name] = true
	}
	for _, p := range products {
		if p.PublicAccess {
			seen[p.OwningDomain()] = true
		}
	}

	allowed := make([]string, 0, len(seen))
	for d := range seen {
		allowed = append(allowed, d)
	}
	sort.Strings(allowed)
	return allowed, nil
}

// AuthorizeRead decides whether username may read productName right now.
// The check is evaluated against live ledger and catalog state on every
// call: approvals take effect immediately, and nothing is cached.
func (s *BrokerService) AuthorizeRead(ctx context.Context, username, productName string) error {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	p, err := s.registry.GetProduct(ctx, productName)
	if err != nil {
		return fmt.Errorf("resolve product: %w", err)
	}

	if p.PublicAccess || p.OwningDomain() == u.Domain {
		return nil
	}

	approved, err := s.store.ListApprovedProducts(ctx, u.Domain)
	if err != nil {
		return fmt.Errorf("list approved: %w", err)
	}
	if slices.Contains(approved, p.Name) {
		return nil
	}

	return domain.ErrAccessDenied
}

// ReadData serves preview records for a product after a fresh authorization
// check. Preview payloads may be cached briefly; the authorization decision
// itself never is.
func (s *BrokerService) ReadData(ctx context.Context, username, productName string) ([]datareader.Record, error) {
	ctx, span := otel.StartReadSpan(ctx, username, productName)
	defer span.End()
	start := time.Now()

	if err := s.AuthorizeRead(ctx, username, productName); err != nil {
		if errors.Is(err, domain.ErrAccessDenied) && s.metrics != nil {
			s.metrics.ReadsDenied.Add(ctx, 1)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReadsAuthorized.Add(ctx, 1)
	}

	records, err := s.readPreview(ctx, productName)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReadDuration.Record(ctx, time.Since(start).Seconds())
	}
	return records, nil
}

func (s *BrokerService) readPreview(ctx context.Context, productName string) ([]datareader.Record, error) {
	key := "preview:" + productName

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var records []datareader.Record
			if err := json.Unmarshal(data, &records); err == nil {
				return records, nil
			}
			// Corrupt entry, drop it and fall through to the reader.
			_ = s.cache.Delete(ctx, key)
		}
	}

	records, err := s.reader.Read(ctx, productName)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(records); err == nil {
			_ = s.cache.Set(ctx, key, data, s.previewTTL)
		}
	}
	return records, nil
}
