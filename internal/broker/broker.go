// Package broker implements the in-process coordination layer behind the
// public Graph: per-node mailboxes, output routing, and the one-in-flight
// delivery discipline that backs the event release contract.
package broker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/petrijr/rivus/pkg/api"
)

type routeKey struct {
	node   string
	output string
}

type routeTarget struct {
	node    string
	inputID string
}

type nodeState struct {
	spec    api.NodeSpec
	mailbox *Mailbox
	handle  *Handle
}

// Broker routes output records between the nodes of one in-process graph.
// AddNode and Send may be called from any goroutine.
type Broker struct {
	logger  *slog.Logger
	mailCap int

	mu     sync.RWMutex
	nodes  map[string]*nodeState
	routes map[routeKey][]routeTarget
	closed bool
}

// New creates an empty broker. If logger is nil, slog.Default() is used.
func New(logger *slog.Logger, mailboxCapacity int) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		logger:  logger,
		mailCap: mailboxCapacity,
		nodes:   make(map[string]*nodeState),
		routes:  make(map[routeKey][]routeTarget),
	}
}

// AddNode registers a node and wires its declared inputs into the routing
// table. The returned Handle is the node's api.Node implementation.
func (b *Broker) AddNode(id string, spec api.NodeSpec) (*Handle, error) {
	if id == "" {
		return nil, fmt.Errorf("broker: empty node id")
	}
	for inputID, ref := range spec.Inputs {
		if _, _, err := api.SplitRef(ref); err != nil {
			return nil, fmt.Errorf("broker: node %q input %q: %w", id, inputID, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, api.ErrStreamClosed
	}
	if _, exists := b.nodes[id]; exists {
		return nil, fmt.Errorf("broker: node already registered: %s", id)
	}

	state := &nodeState{
		spec:    spec,
		mailbox: NewMailbox(b.mailCap),
	}
	state.handle = newHandle(id, b, state.mailbox)
	b.nodes[id] = state

	for inputID, ref := range spec.Inputs {
		srcNode, output, _ := api.SplitRef(ref)
		key := routeKey{node: srcNode, output: output}
		b.routes[key] = append(b.routes[key], routeTarget{node: id, inputID: inputID})
	}

	b.logger.Debug("node registered",
		slog.String("node", id),
		slog.Int("inputs", len(spec.Inputs)),
		slog.Int("outputs", len(spec.Outputs)),
	)

	return state.handle, nil
}

// Handle returns the handle of a registered node.
func (b *Broker) Handle(id string) (*Handle, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	state, ok := b.nodes[id]
	if !ok {
		return nil, false
	}
	return state.handle, true
}

// send fans an output record out to every subscribed input. The payload is
// cloned per target so receivers never alias the sender's buffer.
//
// An undeclared output identifier is an error; per-target delivery failures
// (a closed downstream mailbox) are logged and skipped, since one departed
// subscriber must not end the sender's participation in the graph.
func (b *Broker) send(ctx context.Context, srcNode, outputID string, data []byte) error {
	b.mu.RLock()
	state, ok := b.nodes[srcNode]
	if !ok {
		b.mu.RUnlock()
		return fmt.Errorf("broker: unknown node: %s", srcNode)
	}
	declared := false
	for _, out := range state.spec.Outputs {
		if out == outputID {
			declared = true
			break
		}
	}
	targets := b.routes[routeKey{node: srcNode, output: outputID}]
	dsts := make([]*nodeState, 0, len(targets))
	inputs := make([]string, 0, len(targets))
	for _, t := range targets {
		if dst, ok := b.nodes[t.node]; ok {
			dsts = append(dsts, dst)
			inputs = append(inputs, t.inputID)
		}
	}
	b.mu.RUnlock()

	if !declared {
		return fmt.Errorf("broker: node %q output %q: %w", srcNode, outputID, api.ErrUnknownOutput)
	}

	for i, dst := range dsts {
		env := NewEnvelope(api.EventInput, inputs[i], bytes.Clone(data))
		if err := dst.mailbox.Deliver(ctx, env); err != nil {
			b.logger.Warn("dropping output record",
				slog.String("from", srcNode),
				slog.String("output", outputID),
				slog.String("input", inputs[i]),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// Inject delivers an external input payload directly to a node's mailbox.
// The input identifier is not validated against the node's declared inputs:
// the dispatch contract requires nodes to tolerate identifiers they do not
// recognize, and tests exercise exactly that.
func (b *Broker) Inject(ctx context.Context, nodeID, inputID string, data []byte) error {
	b.mu.RLock()
	state, ok := b.nodes[nodeID]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("broker: unknown node: %s", nodeID)
	}
	return state.mailbox.Deliver(ctx, NewEnvelope(api.EventInput, inputID, bytes.Clone(data)))
}

// InjectClosed delivers an input-closed notice for one of a node's inputs.
func (b *Broker) InjectClosed(ctx context.Context, nodeID, inputID string) error {
	b.mu.RLock()
	state, ok := b.nodes[nodeID]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("broker: unknown node: %s", nodeID)
	}
	return state.mailbox.Deliver(ctx, NewEnvelope(api.EventInputClosed, inputID, nil))
}

// Stop broadcasts a stop event to every node. Nodes leave their loops when
// they reach it; envelopes queued ahead of it are still delivered first.
func (b *Broker) Stop(ctx context.Context) error {
	b.mu.RLock()
	states := make([]*nodeState, 0, len(b.nodes))
	for _, s := range b.nodes {
		states = append(states, s)
	}
	b.mu.RUnlock()

	for _, s := range states {
		if err := s.mailbox.Deliver(ctx, NewEnvelope(api.EventStop, "", nil)); err != nil {
			b.logger.Warn("stop not delivered",
				slog.String("node", s.handle.ID()),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// Close ends every node's stream without a stop event. Nodes observe it as
// api.ErrStreamClosed from Next, the abnormal-termination path.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	states := make([]*nodeState, 0, len(b.nodes))
	for _, s := range b.nodes {
		states = append(states, s)
	}
	b.mu.Unlock()

	for _, s := range states {
		s.mailbox.Close()
	}
}
