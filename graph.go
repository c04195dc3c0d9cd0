package rivus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/petrijr/rivus/internal/broker"
	"github.com/petrijr/rivus/pkg/api"
)

// Graph bundles the in-process broker into a process-local dataflow graph:
// it owns the node mailboxes, routes outputs to subscribed inputs, and
// broadcasts shutdown. It is intended for development, tests, and
// single-process deployments; cross-process graphs use a transport
// submodule instead.
//
// Typical usage:
//
//	g := rivus.NewGraph()
//	counter, _ := g.AddNode("counter", rivus.NodeSpec{
//	    Inputs:  map[string]string{"message": "source/tick"},
//	    Outputs: []string{"counter"},
//	})
//
//	go rivus.NewRunner(counter).OnInput("message", handle).Run(ctx)
//	...
//	g.Stop(ctx)
type Graph struct {
	broker *broker.Broker
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
	closed  bool
}

// GraphOption configures a Graph.
type GraphOption func(*graphConfig)

type graphConfig struct {
	logger  *slog.Logger
	mailCap int
}

// WithGraphLogger sets the graph's logger. Defaults to slog.Default().
func WithGraphLogger(logger *slog.Logger) GraphOption {
	return func(c *graphConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMailboxCapacity sets the per-node mailbox capacity.
func WithMailboxCapacity(n int) GraphOption {
	return func(c *graphConfig) {
		c.mailCap = n
	}
}

// NewGraph creates an empty in-process graph.
func NewGraph(opts ...GraphOption) *Graph {
	cfg := graphConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Graph{
		broker: broker.New(cfg.logger, cfg.mailCap),
		logger: cfg.logger,
	}
}

// AddNode declares a node and returns its handle. Input references wire the
// node's inputs to other nodes' outputs; outputs declare what it may emit.
func (g *Graph) AddNode(id string, spec api.NodeSpec) (api.Node, error) {
	return g.broker.AddNode(id, spec)
}

// Node returns the handle of a previously added node.
func (g *Graph) Node(id string) (api.Node, bool) {
	return g.broker.Handle(id)
}

// Inject feeds an external input payload to a node, standing in for an
// upstream the graph does not contain (a sensor, a test stimulus).
func (g *Graph) Inject(ctx context.Context, nodeID, inputID string, data []byte) error {
	return g.broker.Inject(ctx, nodeID, inputID, data)
}

// InjectClosed announces that one of a node's inputs is finished.
func (g *Graph) InjectClosed(ctx context.Context, nodeID, inputID string) error {
	return g.broker.InjectClosed(ctx, nodeID, inputID)
}

// Stop broadcasts a stop event to every node. Events already queued ahead
// of the stop are still delivered first; the graph remains usable for
// draining but accepts the call only once.
func (g *Graph) Stop(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return errors.New("rivus: graph is closed")
	}
	if g.stopped {
		g.mu.Unlock()
		return errors.New("rivus: graph already stopped")
	}
	g.stopped = true
	g.mu.Unlock()

	return g.broker.Stop(ctx)
}

// Close ends every node's stream without a stop event. Nodes observe
// api.ErrStreamClosed from Next, the abnormal-termination path. It is
// idempotent.
func (g *Graph) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.broker.Close()
}

// Dial implements api.Dialer, so NewNodeFromEnv can attach a node to an
// in-process graph. An unknown node id is added from the config's wiring; a
// known id returns the existing handle.
func (g *Graph) Dial(ctx context.Context, cfg api.NodeConfig) (api.Node, error) {
	if node, ok := g.broker.Handle(cfg.NodeID); ok {
		return node, nil
	}
	node, err := g.broker.AddNode(cfg.NodeID, cfg.Spec())
	if err != nil {
		return nil, fmt.Errorf("rivus: dialing graph node %q: %w", cfg.NodeID, err)
	}
	return node, nil
}

var _ api.Dialer = (*Graph)(nil)
