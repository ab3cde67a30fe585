// Package messagequeue defines the port for the lifecycle event bus.
package messagequeue

import "context"

// Handler processes one message. Returning an error nacks the message.
type Handler func(subject string, data []byte) error

// Queue is the port interface for publishing and consuming lifecycle events.
type Queue interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(ctx context.Context, subject string, handler Handler) (func(), error)
	Close() error
}
