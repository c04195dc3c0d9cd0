package broker

import (
	"context"
	"sync"

	"github.com/petrijr/rivus/pkg/api"
)

// Mailbox is a node's inbound event queue, backed by a buffered channel.
// It is safe for concurrent use.
type Mailbox struct {
	ch        chan Envelope
	done      chan struct{}
	closeOnce sync.Once
}

// NewMailbox creates a mailbox with the given capacity.
// For tests and small graphs, a modest capacity (e.g. 64) is fine.
func NewMailbox(capacity int) *Mailbox {
	if capacity <= 0 {
		capacity = 64
	}
	return &Mailbox{
		ch:   make(chan Envelope, capacity),
		done: make(chan struct{}),
	}
}

// Deliver enqueues an envelope, blocking while the mailbox is full.
// It returns api.ErrStreamClosed once the mailbox has been closed.
func (m *Mailbox) Deliver(ctx context.Context, env Envelope) error {
	select {
	case <-m.done:
		return api.ErrStreamClosed
	default:
	}
	select {
	case m.ch <- env:
		return nil
	case <-m.done:
		return api.ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive blocks until an envelope is available, the mailbox is closed, or
// ctx is cancelled. A closed mailbox is drained before ErrStreamClosed is
// reported, so envelopes delivered before Close are not lost.
func (m *Mailbox) Receive(ctx context.Context) (*Envelope, error) {
	// Drain buffered envelopes first so closing does not race delivery.
	select {
	case env := <-m.ch:
		return &env, nil
	default:
	}
	select {
	case env := <-m.ch:
		return &env, nil
	case <-m.done:
		return nil, api.ErrStreamClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close ends the stream. It is idempotent.
func (m *Mailbox) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}

// Len returns the approximate number of queued envelopes.
func (m *Mailbox) Len() int {
	return len(m.ch)
}
