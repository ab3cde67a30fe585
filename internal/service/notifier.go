package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/datamesh-io/marketplace/internal/adapter/ws"
	"github.com/datamesh-io/marketplace/internal/port/database"
	"github.com/datamesh-io/marketplace/internal/port/messagequeue"
)

// Notifier subscribes to request lifecycle events and pushes them to
// connected WebSocket clients so inbox badges update without polling.
// Submitted requests go to the owning domain's users, decisions to the
// requester.
type Notifier struct {
	store database.Store
	queue messagequeue.Queue
	hub   *ws.Hub
}

// NewNotifier creates a new notifier.
func NewNotifier(store database.Store, queue messagequeue.Queue, hub *ws.Hub) *Notifier {
	return &Notifier{store: store, queue: queue, hub: hub}
}

// Start subscribes to request events. The returned function cancels the
// subscription.
func (n *Notifier) Start(ctx context.Context) (func(), error) {
	cancel, err := n.queue.Subscribe(ctx, "requests.>", func(subject string, data []byte) error {
		switch subject {
		case SubjectRequestSubmitted:
			n.handleSubmitted(ctx, data)
		case SubjectRequestDecided:
			n.handleDecided(ctx, data)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe requests: %w", err)
	}
	return cancel, nil
}

func (n *Notifier) handleSubmitted(ctx context.Context, data []byte) {
	var event RequestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Warn("malformed request event", "error", err)
		return
	}

	// The target product name is the owning domain.
	users, err := n.store.ListUsers(ctx)
	if err != nil {
		slog.Warn("notifier: list users failed", "error", err)
		return
	}

	msg := ws.Message{Type: ws.TypeRequestSubmitted, Payload: data}
	for i := range users {
		if users[i].Domain == event.TargetProduct {
			n.hub.SendTo(ctx, users[i].Username, msg)
		}
	}
}

func (n *Notifier) handleDecided(ctx context.Context, data []byte) {
	var event DecisionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Warn("malformed decision event", "error", err)
		return
	}

	n.hub.SendTo(ctx, event.Requester, ws.Message{Type: ws.TypeRequestDecided, Payload: data})
}
