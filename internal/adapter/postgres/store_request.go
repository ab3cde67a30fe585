package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/domain/request"
)

// --- Access ledger ---

func (s *Store) FindPendingRequest(ctx context.Context, requesterDomain, targetProduct string) (*request.AccessRequest, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, requester, requester_domain, target_product, reason, status, created_at, decided_at
		 FROM access_requests
		 WHERE requester_domain = $1 AND target_product = $2 AND status = 'PENDING'`,
		requesterDomain, targetProduct)

	r, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("find pending request: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find pending request: %w", err)
	}
	return &r, nil
}

// InsertRequest persists a new PENDING request. The partial unique index on
// (requester_domain, target_product) WHERE status = 'PENDING' is the
// serialization point for concurrent submissions of the same pair: the loser
// trips SQLSTATE 23505 and surfaces ErrDuplicatePendingRequest.
func (s *Store) InsertRequest(ctx context.Context, req *request.AccessRequest) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO access_requests (id, requester, requester_domain, target_product, reason, status)
		 VALUES ($1, $2, $3, $4, $5, 'PENDING')
		 RETURNING created_at`,
		req.ID, req.Requester, req.RequesterDomain, req.TargetProduct, req.Reason)

	if err := row.Scan(&req.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("insert request for %s/%s: %w",
				req.RequesterDomain, req.TargetProduct, domain.ErrDuplicatePendingRequest)
		}
		return fmt.Errorf("insert request: %w", err)
	}
	req.Status = request.StatusPending
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (*request.AccessRequest, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, requester, requester_domain, target_product, reason, status, created_at, decided_at
		 FROM access_requests WHERE id = $1`, id)

	r, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get request %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get request %s: %w", id, err)
	}
	return &r, nil
}

// ApplyDecision moves a request out of PENDING with a single compare-and-set
// UPDATE. Of two concurrent decisions on the same request exactly one row
// matches; the loser is disambiguated into ErrNotFound or ErrAlreadyDecided.
func (s *Store) ApplyDecision(ctx context.Context, id string, decision request.Decision) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE access_requests SET status = $2, decided_at = now()
		 WHERE id = $1 AND status = 'PENDING'`,
		id, string(decision))
	if err != nil {
		return fmt.Errorf("apply decision to %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetRequest(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("apply decision to %s: %w", id, domain.ErrAlreadyDecided)
	}
	return nil
}

func (s *Store) ListPendingTargeting(ctx context.Context, targetDomain string) ([]request.AccessRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, requester, requester_domain, target_product, reason, status, created_at, decided_at
		 FROM access_requests
		 WHERE target_product = $1 AND status = 'PENDING'
		 ORDER BY created_at`, targetDomain)
	if err != nil {
		return nil, fmt.Errorf("list pending for %s: %w", targetDomain, err)
	}
	defer rows.Close()

	var requests []request.AccessRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (s *Store) ListApprovedProducts(ctx context.Context, requesterDomain string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT target_product FROM access_requests
		 WHERE requester_domain = $1 AND status = 'APPROVED'`, requesterDomain)
	if err != nil {
		return nil, fmt.Errorf("list approved for %s: %w", requesterDomain, err)
	}
	defer rows.Close()

	var products []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanRequest(row scannable) (request.AccessRequest, error) {
	var r request.AccessRequest
	err := row.Scan(&r.ID, &r.Requester, &r.RequesterDomain, &r.TargetProduct,
		&r.Reason, &r.Status, &r.CreatedAt, &r.DecidedAt)
	return r, err
}
