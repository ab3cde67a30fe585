// Package memqueue implements the message queue port in process memory.
// It backs dev mode so lifecycle events still reach subscribers without NATS.
package memqueue

import (
	"context"
	"strings"
	"sync"

	"github.com/datamesh-io/marketplace/internal/port/messagequeue"
)

type subscription struct {
	pattern string
	handler messagequeue.Handler
}

// Queue is an in-process publish/subscribe bus. Delivery is synchronous on
// the publisher's goroutine; handler errors are returned to the publisher.
type Queue struct {
	mu   sync.RWMutex
	subs map[int]subscription
	next int
}

var _ messagequeue.Queue = (*Queue)(nil)

// New creates an empty in-process queue.
func New() *Queue {
	return &Queue{subs: make(map[int]subscription)}
}

// Publish delivers the message to every subscriber whose pattern matches.
func (q *Queue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.RLock()
	var matched []subscription
	for _, s := range q.subs {
		if matchSubject(s.pattern, subject) {
			matched = append(matched, s)
		}
	}
	q.mu.RUnlock()

	for _, s := range matched {
		if err := s.handler(subject, data); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a handler for subjects matching the pattern. The
// pattern supports a trailing ">" wildcard as in NATS subjects.
func (q *Queue) Subscribe(_ context.Context, pattern string, handler messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	id := q.next
	q.next++
	q.subs[id] = subscription{pattern: pattern, handler: handler}
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}, nil
}

// Close drops all subscriptions.
func (q *Queue) Close() error {
	q.mu.Lock()
	q.subs = make(map[int]subscription)
	q.mu.Unlock()
	return nil
}

func matchSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ">"); ok {
		return strings.HasPrefix(subject, prefix)
	}
	return false
}
