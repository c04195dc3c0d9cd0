package api

import "errors"

var (
	// ErrStreamClosed is returned by Node.Next when the event stream has
	// ended. Receiving it without a prior EventStop is a protocol violation
	// by the orchestrator; the loop driver turns it into a fatal error.
	ErrStreamClosed = errors.New("event stream closed")

	// ErrEventOutstanding is returned by Node.Next when the event from the
	// previous pull has not been released yet.
	ErrEventOutstanding = errors.New("previous event not released")

	// ErrEventReleased is returned by Event.Close when the event has already
	// been released.
	ErrEventReleased = errors.New("event already released")

	// ErrNodeClosed is returned by operations on a node after Close.
	ErrNodeClosed = errors.New("node closed")

	// ErrUnknownOutput is returned by Node.Send for an output identifier the
	// node did not declare.
	ErrUnknownOutput = errors.New("unknown output")

	// ErrNoNodeConfig is returned by NodeConfigFromEnv when the environment
	// carries no node configuration.
	ErrNoNodeConfig = errors.New("no node config in environment")
)
