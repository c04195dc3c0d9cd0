// Package redis attaches rivus nodes to a cross-process dataflow graph
// through Redis.
//
// Every node owns one Redis list as its mailbox:
//
//	<prefix>mailbox:<node>
//
// Values are gob-encoded envelopes. Sending LPUSHes to the destination
// mailboxes named by the node's configured routes; pulling BRPOPs the
// node's own mailbox, so the blocking-pull contract carries over unchanged.
// The orchestrator ends a node's participation with StopNode (clean) or
// EndStream (abnormal, observed as a closed stream).
package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/rivus/internal/broker"
	"github.com/petrijr/rivus/pkg/api"
)

// TransportKind is the transport kind this package serves in a node config.
const TransportKind = "redis"

const defaultPrefix = "rivus:"

// streamEnd is a control envelope kind, private to the wire format: it is
// never surfaced as an event, Next turns it into api.ErrStreamClosed.
const streamEnd api.EventType = "stream-end"

// MailboxKey returns the Redis key of a node's mailbox list.
func MailboxKey(prefix, nodeID string) string {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix + "mailbox:" + nodeID
}

// Transport is an api.Dialer that attaches nodes through Redis.
type Transport struct {
	client *redis.Client
}

var _ api.Dialer = (*Transport)(nil)

// NewTransport creates a Transport on an existing client. The caller owns
// the client's lifecycle.
func NewTransport(client *redis.Client) *Transport {
	return &Transport{client: client}
}

type route struct {
	node    string
	inputID string
}

// Dial attaches a node using the wiring in cfg. Unlike the in-process
// graph, Redis has no central routing table, so each output's destinations
// come from cfg.Transport.Routes.
func (t *Transport) Dial(ctx context.Context, cfg api.NodeConfig) (api.Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := t.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis transport unavailable: %w", err)
	}

	outputs := make(map[string]struct{}, len(cfg.Outputs))
	for _, out := range cfg.Outputs {
		outputs[out] = struct{}{}
	}

	routes := make(map[string][]route, len(cfg.Transport.Routes))
	for outputID, dsts := range cfg.Transport.Routes {
		if _, ok := outputs[outputID]; !ok {
			return nil, fmt.Errorf("route for undeclared output %q", outputID)
		}
		for _, ref := range dsts {
			dstNode, inputID, err := api.SplitRef(ref)
			if err != nil {
				return nil, err
			}
			routes[outputID] = append(routes[outputID], route{node: dstNode, inputID: inputID})
		}
	}

	return &node{
		id:      cfg.NodeID,
		client:  t.client,
		prefix:  cfg.Transport.Prefix,
		outputs: outputs,
		routes:  routes,
	}, nil
}

// node is the Redis-backed api.Node implementation.
type node struct {
	id      string
	client  *redis.Client
	prefix  string
	outputs map[string]struct{}
	routes  map[string][]route

	mu       sync.Mutex
	inflight bool
	closed   bool
	ended    bool
}

var _ api.Node = (*node)(nil)

func (n *node) ID() string { return n.id }

func (n *node) Next(ctx context.Context) (*api.Event, error) {
	n.mu.Lock()
	switch {
	case n.closed:
		n.mu.Unlock()
		return nil, api.ErrNodeClosed
	case n.ended:
		n.mu.Unlock()
		return nil, api.ErrStreamClosed
	case n.inflight:
		n.mu.Unlock()
		return nil, api.ErrEventOutstanding
	}
	n.mu.Unlock()

	// BRPop returns [key, value].
	res, err := n.client.BRPop(ctx, 0, MailboxKey(n.prefix, n.id)).Result()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pulling from mailbox: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result shape (%d values)", len(res))
	}

	env, err := broker.DecodeEnvelope([]byte(res[1]))
	if err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	if env.Kind == streamEnd {
		n.mu.Lock()
		n.ended = true
		n.mu.Unlock()
		return nil, api.ErrStreamClosed
	}

	n.mu.Lock()
	n.inflight = true
	n.mu.Unlock()

	return env.Event(func() error {
		n.mu.Lock()
		n.inflight = false
		n.mu.Unlock()
		return nil
	}), nil
}

func (n *node) Send(ctx context.Context, outputID string, data []byte) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return api.ErrNodeClosed
	}
	n.mu.Unlock()

	if _, ok := n.outputs[outputID]; !ok {
		return fmt.Errorf("node %q output %q: %w", n.id, outputID, api.ErrUnknownOutput)
	}

	var errs []error
	for _, r := range n.routes[outputID] {
		env := broker.NewEnvelope(api.EventInput, r.inputID, bytes.Clone(data))
		payload, err := broker.EncodeEnvelope(env)
		if err != nil {
			return fmt.Errorf("encoding envelope: %w", err)
		}
		if err := n.client.LPush(ctx, MailboxKey(n.prefix, r.node), payload).Err(); err != nil {
			errs = append(errs, fmt.Errorf("delivering to %q: %w", r.node, err))
		}
	}
	return errors.Join(errs...)
}

func (n *node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return api.ErrNodeClosed
	}
	n.closed = true
	return nil
}

// StopNode pushes a stop event into a node's mailbox. Events queued ahead
// of it are still delivered first.
func StopNode(ctx context.Context, client *redis.Client, prefix, nodeID string) error {
	payload, err := broker.EncodeEnvelope(broker.NewEnvelope(api.EventStop, "", nil))
	if err != nil {
		return err
	}
	return client.LPush(ctx, MailboxKey(prefix, nodeID), payload).Err()
}

// EndStream ends a node's stream without a stop event. The node observes it
// as api.ErrStreamClosed, the abnormal-termination path.
func EndStream(ctx context.Context, client *redis.Client, prefix, nodeID string) error {
	payload, err := broker.EncodeEnvelope(broker.NewEnvelope(streamEnd, "", nil))
	if err != nil {
		return err
	}
	return client.LPush(ctx, MailboxKey(prefix, nodeID), payload).Err()
}

// Inject delivers an external input payload directly to a node's mailbox,
// standing in for an upstream outside the graph.
func Inject(ctx context.Context, client *redis.Client, prefix, nodeID, inputID string, data []byte) error {
	payload, err := broker.EncodeEnvelope(broker.NewEnvelope(api.EventInput, inputID, bytes.Clone(data)))
	if err != nil {
		return err
	}
	return client.LPush(ctx, MailboxKey(prefix, nodeID), payload).Err()
}
