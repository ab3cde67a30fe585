// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/datamesh-io/marketplace/internal/domain/request"
	"github.com/datamesh-io/marketplace/internal/domain/user"
)

// Store is the port interface for the access ledger and user directory.
//
// InsertRequest and ApplyDecision carry the ledger's two invariants and must
// be atomic with respect to concurrent calls on the same key:
//   - at most one PENDING request per (requester domain, target product) pair;
//   - a request's status moves PENDING → APPROVED|REJECTED exactly once.
type Store interface {
	// Users
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUserPassword(ctx context.Context, username, passwordHash string) error

	// Access ledger
	FindPendingRequest(ctx context.Context, requesterDomain, targetProduct string) (*request.AccessRequest, error)
	InsertRequest(ctx context.Context, req *request.AccessRequest) error
	GetRequest(ctx context.Context, id string) (*request.AccessRequest, error)
	ApplyDecision(ctx context.Context, id string, decision request.Decision) error
	ListPendingTargeting(ctx context.Context, domain string) ([]request.AccessRequest, error)
	ListApprovedProducts(ctx context.Context, requesterDomain string) ([]string, error)
}
