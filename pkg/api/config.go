package api

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// EnvNodeConfig is the environment variable the orchestrator uses to hand a
// node its configuration, as a JSON document.
const EnvNodeConfig = "RIVUS_NODE_CONFIG"

// TransportConfig selects and parameterizes the transport a node attaches
// through. The core only carries it; interpretation belongs to the Dialer.
type TransportConfig struct {
	// Kind names the transport ("graph", "redis", ...).
	Kind string `json:"kind,omitempty"`

	// Addr is the transport endpoint (e.g. a redis address).
	Addr string `json:"addr,omitempty"`

	// Prefix namespaces the transport's keys.
	Prefix string `json:"prefix,omitempty"`

	// Routes maps output identifiers to "node/input" destinations. Only
	// transports without a central routing table (redis) use it.
	Routes map[string][]string `json:"routes,omitempty"`
}

// NodeConfig is the ambient configuration a node is started with.
type NodeConfig struct {
	// NodeID identifies the node within the graph. Required.
	NodeID string `json:"node_id"`

	// Inputs maps local input identifiers to "node/output" references.
	Inputs map[string]string `json:"inputs,omitempty"`

	// Outputs lists the output identifiers the node may emit.
	Outputs []string `json:"outputs,omitempty"`

	Transport TransportConfig `json:"transport,omitempty"`
}

// Spec returns the graph wiring declared by the config.
func (c NodeConfig) Spec() NodeSpec {
	return NodeSpec{Inputs: c.Inputs, Outputs: c.Outputs}
}

// ParseNodeConfig decodes and validates a JSON node configuration.
func ParseNodeConfig(data []byte) (NodeConfig, error) {
	var cfg NodeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("parsing node config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return NodeConfig{}, err
	}
	return cfg, nil
}

// NodeConfigFromEnv reads the node configuration from EnvNodeConfig.
// It returns ErrNoNodeConfig when the variable is unset or empty.
func NodeConfigFromEnv() (NodeConfig, error) {
	raw := os.Getenv(EnvNodeConfig)
	if strings.TrimSpace(raw) == "" {
		return NodeConfig{}, ErrNoNodeConfig
	}
	return ParseNodeConfig([]byte(raw))
}

// Validate checks the config for structural problems.
func (c NodeConfig) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node config: node_id is required")
	}
	for inputID, ref := range c.Inputs {
		if inputID == "" {
			return fmt.Errorf("node config %q: empty input identifier", c.NodeID)
		}
		if _, _, err := SplitRef(ref); err != nil {
			return fmt.Errorf("node config %q: input %q: %w", c.NodeID, inputID, err)
		}
	}
	for _, outputID := range c.Outputs {
		if outputID == "" {
			return fmt.Errorf("node config %q: empty output identifier", c.NodeID)
		}
	}
	for outputID, dsts := range c.Transport.Routes {
		if outputID == "" {
			return fmt.Errorf("node config %q: empty output identifier in routes", c.NodeID)
		}
		for _, ref := range dsts {
			if _, _, err := SplitRef(ref); err != nil {
				return fmt.Errorf("node config %q: route for %q: %w", c.NodeID, outputID, err)
			}
		}
	}
	return nil
}

// SplitRef splits a "node/name" reference into its two parts.
func SplitRef(ref string) (node, name string, err error) {
	node, name, ok := strings.Cut(ref, "/")
	if !ok || node == "" || name == "" {
		return "", "", fmt.Errorf("malformed reference %q (want \"node/name\")", ref)
	}
	return node, name, nil
}
