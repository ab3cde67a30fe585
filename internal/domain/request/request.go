// Package request defines the access request lifecycle model.
package request

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an access request.
// Transitions are monotonic: PENDING → APPROVED or PENDING → REJECTED, never back.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Decision is the terminal status applied by the owning domain.
type Decision Status

const (
	DecisionApproved = Decision(StatusApproved)
	DecisionRejected = Decision(StatusRejected)
)

// Valid reports whether d is one of the two terminal decisions.
func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// AccessRequest is one domain's ask for read access to another domain's
// product. Records are never deleted; decided requests stay as audit trail.
type AccessRequest struct {
	ID              string     `json:"id"`
	Requester       string     `json:"requester"`
	RequesterDomain string     `json:"requester_domain"`
	TargetProduct   string     `json:"target_product"`
	Reason          string     `json:"reason"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"timestamp"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

// Decided reports whether the request has reached a terminal state.
func (r AccessRequest) Decided() bool {
	return r.Status != StatusPending
}

const maxReasonLength = 2000

// CreateRequest is the input for submitting a new access request. The
// requester identity and domain are resolved by the broker, not the caller.
type CreateRequest struct {
	TargetProduct string `json:"target_product"`
	Reason        string `json:"reason"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.TargetProduct == "" {
		return errors.New("target_product is required")
	}
	if r.Reason == "" {
		return errors.New("reason is required")
	}
	if len(r.Reason) > maxReasonLength {
		return errors.New("reason too long (max 2000 chars)")
	}
	return nil
}
