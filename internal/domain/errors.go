// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates invalid caller input. The HTTP layer strips the
// prefix and returns the remainder as a field-level message.
var ErrValidation = errors.New("validation")

// ErrInvalidCredential indicates an unknown username or a password mismatch.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredential = errors.New("invalid credentials")

// ErrSelfRequest indicates a domain requested access to its own product.
var ErrSelfRequest = errors.New("cannot request access to your own product")

// ErrDuplicatePendingRequest indicates a PENDING request already exists for
// the same (requester domain, target product) pair.
var ErrDuplicatePendingRequest = errors.New("a pending request for this product already exists")

// ErrAlreadyDecided indicates the request has left the PENDING state.
// Decisions are terminal; the stored status is unchanged by the losing call.
var ErrAlreadyDecided = errors.New("request has already been decided")

// ErrForbidden indicates the caller's domain does not own the target product.
var ErrForbidden = errors.New("only the owning domain may decide this request")

// ErrAccessDenied indicates the caller is not entitled to read the product's data.
var ErrAccessDenied = errors.New("access denied")

// ErrUpstreamUnavailable indicates the catalog registry or data reader did not
// answer within its deadline. This is the only retryable failure kind.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")
