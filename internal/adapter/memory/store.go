// Package memory implements the database store port in process memory.
// It backs dev mode and tests; a restart loses all state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/domain/request"
	"github.com/datamesh-io/marketplace/internal/domain/user"
)

// Store is an in-memory database.Store. A single mutex serializes the
// check-then-insert and check-then-transition mutations, which is what makes
// the ledger invariants hold under concurrent submits and decisions.
type Store struct {
	mu       sync.RWMutex
	users    map[string]user.User
	requests map[string]request.AccessRequest
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]user.User),
		requests: make(map[string]request.AccessRequest),
	}
}

// --- Users ---

func (s *Store) GetUserByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", username, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return fmt.Errorf("create user %s: already exists", u.Username)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.Username] = *u
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return fmt.Errorf("update password for %s: %w", username, domain.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	s.users[username] = u
	return nil
}

// --- Access ledger ---

func (s *Store) FindPendingRequest(_ context.Context, requesterDomain, targetProduct string) (*request.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.findPendingLocked(requesterDomain, targetProduct); ok {
		return &r, nil
	}
	return nil, fmt.Errorf("find pending request: %w", domain.ErrNotFound)
}

func (s *Store) InsertRequest(_ context.Context, req *request.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findPendingLocked(req.RequesterDomain, req.TargetProduct); ok {
		return fmt.Errorf("insert request for %s/%s: %w",
			req.RequesterDomain, req.TargetProduct, domain.ErrDuplicatePendingRequest)
	}

	req.Status = request.StatusPending
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	s.requests[req.ID] = *req
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*request.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("get request %s: %w", id, domain.ErrNotFound)
	}
	return &r, nil
}

func (s *Store) ApplyDecision(_ context.Context, id string, decision request.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("apply decision to %s: %w", id, domain.ErrNotFound)
	}
	if r.Status != request.StatusPending {
		return fmt.Errorf("apply decision to %s: %w", id, domain.ErrAlreadyDecided)
	}

	now := time.Now().UTC()
	r.Status = request.Status(decision)
	r.DecidedAt = &now
	s.requests[id] = r
	return nil
}

func (s *Store) ListPendingTargeting(_ context.Context, targetDomain string) ([]request.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var requests []request.AccessRequest
	for _, r := range s.requests {
		if r.TargetProduct == targetDomain && r.Status == request.StatusPending {
			requests = append(requests, r)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.Before(requests[j].CreatedAt) })
	return requests, nil
}

func (s *Store) ListApprovedProducts(_ context.Context, requesterDomain string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var products []string
	for _, r := range s.requests {
		if r.RequesterDomain == requesterDomain && r.Status == request.StatusApproved && !seen[r.TargetProduct] {
			seen[r.TargetProduct] = true
			products = append(products, r.TargetProduct)
		}
	}
	sort.Strings(products)
	return products, nil
}

func (s *Store) findPendingLocked(requesterDomain, targetProduct string) (request.AccessRequest, bool) {
	for _, r := range s.requests {
		if r.RequesterDomain == requesterDomain && r.TargetProduct == targetProduct && r.Status == request.StatusPending {
			return r, true
		}
	}
	return request.AccessRequest{}, false
}
