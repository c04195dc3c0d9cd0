package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the node runtime for logging and metrics.
//
// Implementations should be fast and non-blocking; they are invoked inline
// from the event loop, so heavy work would delay event processing.
type Observer interface {
	// OnNodeStart is called once when the loop driver enters its event loop.
	OnNodeStart(ctx context.Context, nodeID string)

	// OnEventReceived is called for every pulled event, before dispatch.
	OnEventReceived(ctx context.Context, nodeID string, kind EventType, inputID string)

	// OnInputHandled is called after an EventInput has been dispatched.
	// known reports whether the input identifier matched a registered
	// handler; err is the handler's error (nil for unknown inputs).
	OnInputHandled(ctx context.Context, nodeID, inputID string, known bool, err error, duration time.Duration)

	// OnOutputSent is called after each Send issued through the loop
	// driver, for both successes and failures (err != nil).
	OnOutputSent(ctx context.Context, nodeID, outputID string, size int, err error)

	// OnNodeStopped is called when the loop exits cleanly on a stop event.
	OnNodeStopped(ctx context.Context, nodeID string)

	// OnNodeFailed is called when the loop exits abnormally.
	OnNodeFailed(ctx context.Context, nodeID string, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnNodeStart(ctx context.Context, nodeID string) {}
func (NoopObserver) OnEventReceived(ctx context.Context, nodeID string, kind EventType, inputID string) {
}
func (NoopObserver) OnInputHandled(ctx context.Context, nodeID, inputID string, known bool, err error, d time.Duration) {
}
func (NoopObserver) OnOutputSent(ctx context.Context, nodeID, outputID string, size int, err error) {}
func (NoopObserver) OnNodeStopped(ctx context.Context, nodeID string)                               {}
func (NoopObserver) OnNodeFailed(ctx context.Context, nodeID string, err error)                     {}

// CompositeObserver fans out callbacks to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards callbacks to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnNodeStart(ctx context.Context, nodeID string) {
	for _, o := range c.observers {
		o.OnNodeStart(ctx, nodeID)
	}
}

func (c *CompositeObserver) OnEventReceived(ctx context.Context, nodeID string, kind EventType, inputID string) {
	for _, o := range c.observers {
		o.OnEventReceived(ctx, nodeID, kind, inputID)
	}
}

func (c *CompositeObserver) OnInputHandled(ctx context.Context, nodeID, inputID string, known bool, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnInputHandled(ctx, nodeID, inputID, known, err, d)
	}
}

func (c *CompositeObserver) OnOutputSent(ctx context.Context, nodeID, outputID string, size int, err error) {
	for _, o := range c.observers {
		o.OnOutputSent(ctx, nodeID, outputID, size, err)
	}
}

func (c *CompositeObserver) OnNodeStopped(ctx context.Context, nodeID string) {
	for _, o := range c.observers {
		o.OnNodeStopped(ctx, nodeID)
	}
}

func (c *CompositeObserver) OnNodeFailed(ctx context.Context, nodeID string, err error) {
	for _, o := range c.observers {
		o.OnNodeFailed(ctx, nodeID, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs node lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnNodeStart(ctx context.Context, nodeID string) {
	o.Logger.InfoContext(ctx, "node_start",
		slog.String("node", nodeID),
	)
}

func (o *LoggingObserver) OnEventReceived(ctx context.Context, nodeID string, kind EventType, inputID string) {
	o.Logger.DebugContext(ctx, "event_received",
		slog.String("node", nodeID),
		slog.String("kind", string(kind)),
		slog.String("input", inputID),
	)
}

func (o *LoggingObserver) OnInputHandled(ctx context.Context, nodeID, inputID string, known bool, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "input_handled",
		slog.String("node", nodeID),
		slog.String("input", inputID),
		slog.Bool("known", known),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnOutputSent(ctx context.Context, nodeID, outputID string, size int, err error) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
	}
	o.Logger.Log(ctx, level, "output_sent",
		slog.String("node", nodeID),
		slog.String("output", outputID),
		slog.Int("size", size),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnNodeStopped(ctx context.Context, nodeID string) {
	o.Logger.InfoContext(ctx, "node_stopped",
		slog.String("node", nodeID),
	)
}

func (o *LoggingObserver) OnNodeFailed(ctx context.Context, nodeID string, err error) {
	o.Logger.ErrorContext(ctx, "node_failed",
		slog.String("node", nodeID),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate handler durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	eventsReceived      atomic.Int64
	inputsHandled       atomic.Int64
	unknownInputs       atomic.Int64
	handlerErrors       atomic.Int64
	outputsSent         atomic.Int64
	sendFailures        atomic.Int64
	totalHandleDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	EventsReceived int64
	InputsHandled  int64
	UnknownInputs  int64
	HandlerErrors  int64
	OutputsSent    int64
	SendFailures   int64

	AvgHandleDuration time.Duration
}

func (m *BasicMetrics) OnEventReceived(ctx context.Context, nodeID string, kind EventType, inputID string) {
	m.eventsReceived.Add(1)
}

func (m *BasicMetrics) OnInputHandled(ctx context.Context, nodeID, inputID string, known bool, err error, d time.Duration) {
	if !known {
		m.unknownInputs.Add(1)
		return
	}
	if err != nil {
		m.handlerErrors.Add(1)
		return
	}
	m.inputsHandled.Add(1)
	m.totalHandleDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnOutputSent(ctx context.Context, nodeID, outputID string, size int, err error) {
	if err != nil {
		m.sendFailures.Add(1)
		return
	}
	m.outputsSent.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	handled := m.inputsHandled.Load()
	totalNs := m.totalHandleDuration.Load()

	var avg time.Duration
	if handled > 0 {
		avg = time.Duration(totalNs / handled)
	}

	return BasicMetricsSnapshot{
		EventsReceived:    m.eventsReceived.Load(),
		InputsHandled:     handled,
		UnknownInputs:     m.unknownInputs.Load(),
		HandlerErrors:     m.handlerErrors.Load(),
		OutputsSent:       m.outputsSent.Load(),
		SendFailures:      m.sendFailures.Load(),
		AvgHandleDuration: avg,
	}
}
