package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/datamesh-io/marketplace/internal/port/messagequeue"
)

// Subjects for lifecycle events published to the queue.
const (
	SubjectRequestSubmitted = "requests.submitted"
	SubjectRequestDecided   = "requests.decided"
	SubjectProductRequested = "products.requested"
)

// RequestEvent is published when an access request is submitted.
type RequestEvent struct {
	ID              string    `json:"id"`
	Requester       string    `json:"requester"`
	RequesterDomain string    `json:"requester_domain"`
	TargetProduct   string    `json:"target_product"`
	Reason          string    `json:"reason"`
	Timestamp       time.Time `json:"timestamp"`
}

// DecisionEvent is published when an access request reaches a terminal state.
type DecisionEvent struct {
	ID            string    `json:"id"`
	Requester     string    `json:"requester"`
	TargetProduct string    `json:"target_product"`
	Decision      string    `json:"decision"`
	DecidedBy     string    `json:"decided_by"`
	Timestamp     time.Time `json:"timestamp"`
}

// ProductEvent is published when a provisioning request passes policy checks.
type ProductEvent struct {
	Name         string    `json:"name"`
	Environment  string    `json:"environment"`
	Region       string    `json:"region"`
	PublicAccess bool      `json:"public_access"`
	Timestamp    time.Time `json:"timestamp"`
}

// publishEvent marshals and publishes an event. Queue failures are logged and
// swallowed: the ledger write already committed, and events are advisory.
func publishEvent(ctx context.Context, queue messagequeue.Queue, subject string, event any) {
	if queue == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal event failed", "subject", subject, "error", err)
		return
	}
	if err := queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish event failed", "subject", subject, "error", err)
	}
}
