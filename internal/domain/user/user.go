// Package user defines the user domain model for authentication.
package user

import (
	"errors"
	"time"
)

// User represents a provisioned portal user. Each user belongs to exactly one
// organizational domain; the domain is what owns products and holds grants.
type User struct {
	Username     string    `json:"username"`
	Domain       string    `json:"domain"`
	DisplayName  string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialized
	Role         string    `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}

// LoginRequest is the input for credential verification.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Username == "" {
		return errors.New("username is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// CreateRequest is the input for provisioning a new user (admin CLI only).
type CreateRequest struct {
	Username    string `json:"username"`
	Domain      string `json:"domain"`
	DisplayName string `json:"name"`
	Password    string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	Role        string `json:"role"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Username == "" {
		return errors.New("username is required")
	}
	if r.Domain == "" {
		return errors.New("domain is required")
	}
	if r.DisplayName == "" {
		return errors.New("name is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// LoginResponse is the payload returned to the presentation shell on a
// successful login. The shell stores it; the broker keeps no session state.
type LoginResponse struct {
	Username string  `json:"username"`
	User     Profile `json:"user"`
}

// Profile is the public subset of User embedded in login responses.
type Profile struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}
