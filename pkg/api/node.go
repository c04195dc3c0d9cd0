package api

import "context"

// Sender is the write path back into the dataflow graph.
type Sender interface {
	// Send constructs one output record and hands it to the graph for
	// delivery. The payload is copied at the call; callers may reuse the
	// slice afterwards. Send must only be called while the node is open.
	Send(ctx context.Context, outputID string, data []byte) error
}

// Node is a process's handle to the dataflow graph.
//
// A node is exclusively owned by the process that acquired it: all methods
// are intended to be driven from a single goroutine, mirroring the strictly
// sequential delivery order of the graph.
type Node interface {
	Sender

	// ID returns the node identifier within the graph.
	ID() string

	// Next blocks until the next event is available, the stream ends, or ctx
	// is cancelled. It returns ErrStreamClosed once the stream has ended and
	// ErrEventOutstanding if the previously pulled event has not been
	// released yet.
	Next(ctx context.Context) (*Event, error)

	// Close releases the node's attachment to the graph. It must be called
	// exactly once, after the event loop has exited.
	Close() error
}

// NodeSpec declares a node's wiring within a graph.
type NodeSpec struct {
	// Inputs maps local input identifiers to "node/output" references.
	Inputs map[string]string

	// Outputs lists the output identifiers the node may emit.
	Outputs []string
}

// Dialer attaches a node to a graph from a parsed configuration.
//
// The in-process Graph implements Dialer directly; the redis submodule
// provides one for cross-process graphs.
type Dialer interface {
	Dial(ctx context.Context, cfg NodeConfig) (Node, error)
}
