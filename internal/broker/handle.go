package broker

import (
	"context"
	"sync"

	"github.com/petrijr/rivus/pkg/api"
)

// Handle is the broker-backed api.Node implementation.
//
// Next, Send and Close are intended to be driven from the node's single
// goroutine; the mutex only protects the lifecycle flags against misuse, it
// does not make the handle a concurrent queue.
type Handle struct {
	id      string
	broker  *Broker
	mailbox *Mailbox

	mu       sync.Mutex
	inflight bool
	closed   bool
}

var _ api.Node = (*Handle)(nil)

func newHandle(id string, b *Broker, m *Mailbox) *Handle {
	return &Handle{id: id, broker: b, mailbox: m}
}

// ID returns the node identifier.
func (h *Handle) ID() string { return h.id }

// Next pulls the next event, blocking until one is available, the stream
// ends, or ctx is cancelled. The previous event must have been released.
func (h *Handle) Next(ctx context.Context) (*api.Event, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, api.ErrNodeClosed
	}
	if h.inflight {
		h.mu.Unlock()
		return nil, api.ErrEventOutstanding
	}
	h.mu.Unlock()

	env, err := h.mailbox.Receive(ctx)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.inflight = true
	h.mu.Unlock()

	return env.Event(func() error {
		h.mu.Lock()
		h.inflight = false
		h.mu.Unlock()
		return nil
	}), nil
}

// Send hands one output record to the broker for fan-out.
func (h *Handle) Send(ctx context.Context, outputID string, data []byte) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return api.ErrNodeClosed
	}
	h.mu.Unlock()

	return h.broker.send(ctx, h.id, outputID, data)
}

// Close releases the node's attachment. Subsequent operations and a second
// Close return api.ErrNodeClosed.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return api.ErrNodeClosed
	}
	h.closed = true
	h.mailbox.Close()
	return nil
}
