package rivus

import (
	"context"
	"fmt"

	"github.com/petrijr/rivus/pkg/api"
)

// NewNodeFromEnv attaches a node to the graph using the configuration the
// orchestrator placed in the environment (the RIVUS_NODE_CONFIG variable).
//
// A missing or invalid configuration is an ordinary error, not a panic:
// callers must check it before entering the event loop and exit non-zero.
//
//	node, err := rivus.NewNodeFromEnv(ctx, transport)
//	if err != nil {
//	    log.Fatalf("init node: %v", err)
//	}
//	defer node.Close()
func NewNodeFromEnv(ctx context.Context, dialer api.Dialer) (api.Node, error) {
	cfg, err := api.NodeConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("rivus: reading node config: %w", err)
	}
	node, err := dialer.Dial(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("rivus: attaching node %q: %w", cfg.NodeID, err)
	}
	return node, nil
}
