package rivus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/petrijr/rivus/pkg/api"
)

// ErrUnexpectedEnd is returned by Runner.Run when the event stream ends
// while the node is still running, without a prior stop event. The
// orchestrator always announces shutdown with a stop event; a bare stream
// end is a protocol violation and is treated as fatal.
var ErrUnexpectedEnd = errors.New("rivus: event stream ended without a stop event")

// RunState is the loop driver's lifecycle state.
type RunState string

const (
	StatePending RunState = "pending"
	StateRunning RunState = "running"
	StateStopped RunState = "stopped"
	StateFailed  RunState = "failed"
)

// InputFunc handles one input event. The event is valid for the duration of
// the call only; the driver releases it afterwards. out is the node's write
// path back into the graph.
//
// A handler error is isolated to that event: it is logged and reported to
// the observer, and the loop continues.
type InputFunc func(ctx context.Context, ev *api.Event, out api.Sender) error

// Runner drives a node's event loop: it pulls events one at a time,
// dispatches inputs to registered handlers, and guarantees that every pulled
// event is released exactly once before the next pull.
//
// Build a runner with NewRunner, register handlers with OnInput, then call
// Run. Events are processed strictly in delivery order on the calling
// goroutine; there is no internal parallelism.
type Runner struct {
	node     api.Node
	handlers map[string]InputFunc
	observer api.Observer
	logger   *slog.Logger

	mu    sync.Mutex
	state RunState
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithObserver attaches an observer to the runner.
func WithObserver(obs api.Observer) RunnerOption {
	return func(r *Runner) {
		if obs != nil {
			r.observer = obs
		}
	}
}

// WithLogger sets the runner's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner for the given node.
func NewRunner(node api.Node, opts ...RunnerOption) *Runner {
	r := &Runner{
		node:     node,
		handlers: make(map[string]InputFunc),
		observer: api.NoopObserver{},
		logger:   slog.Default(),
		state:    StatePending,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnInput registers the handler for an input identifier and returns the
// runner for chaining. Registering the same identifier again replaces the
// previous handler. Inputs without a handler are logged and skipped.
func (r *Runner) OnInput(inputID string, fn InputFunc) *Runner {
	r.handlers[inputID] = fn
	return r
}

// State returns the current loop state.
func (r *Runner) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s RunState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run enters the event loop and blocks until a stop event arrives (returns
// nil), the stream ends unexpectedly (returns ErrUnexpectedEnd), or ctx is
// cancelled.
//
// Run does not close the node; the caller releases it after Run returns,
// exactly once.
func (r *Runner) Run(ctx context.Context) error {
	nodeID := r.node.ID()
	r.setState(StateRunning)
	r.observer.OnNodeStart(ctx, nodeID)

	out := &observedSender{node: r.node, observer: r.observer}

	for {
		ev, err := r.node.Next(ctx)
		if err != nil {
			r.setState(StateFailed)
			if errors.Is(err, api.ErrStreamClosed) {
				r.observer.OnNodeFailed(ctx, nodeID, ErrUnexpectedEnd)
				return ErrUnexpectedEnd
			}
			r.observer.OnNodeFailed(ctx, nodeID, err)
			return fmt.Errorf("rivus: pulling next event: %w", err)
		}

		r.observer.OnEventReceived(ctx, nodeID, ev.Kind(), ev.InputID())

		stopped := false
		switch ev.Kind() {
		case api.EventInput:
			r.dispatch(ctx, ev, out)
		case api.EventStop:
			stopped = true
		default:
			// Tolerated, never fatal.
			r.logger.DebugContext(ctx, "ignoring event",
				slog.String("node", nodeID),
				slog.String("kind", string(ev.Kind())),
			)
		}

		// Exactly one release per pulled event, on every dispatch path.
		if err := ev.Close(); err != nil {
			r.logger.WarnContext(ctx, "event release failed",
				slog.String("node", nodeID),
				slog.Any("error", err),
			)
		}

		if stopped {
			r.setState(StateStopped)
			r.observer.OnNodeStopped(ctx, nodeID)
			return nil
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, ev *api.Event, out api.Sender) {
	nodeID := r.node.ID()
	inputID := ev.InputID()

	fn, known := r.handlers[inputID]
	if !known {
		r.logger.InfoContext(ctx, "unexpected input",
			slog.String("node", nodeID),
			slog.String("input", inputID),
		)
		r.observer.OnInputHandled(ctx, nodeID, inputID, false, nil, 0)
		return
	}

	start := time.Now()
	err := fn(ctx, ev, out)
	r.observer.OnInputHandled(ctx, nodeID, inputID, true, err, time.Since(start))
	if err != nil {
		r.logger.ErrorContext(ctx, "input handler failed",
			slog.String("node", nodeID),
			slog.String("input", inputID),
			slog.Any("error", err),
		)
	}
}

// observedSender reports every send to the observer so journals and metrics
// see outputs without instrumenting handlers.
type observedSender struct {
	node     api.Node
	observer api.Observer
}

func (s *observedSender) Send(ctx context.Context, outputID string, data []byte) error {
	err := s.node.Send(ctx, outputID, data)
	s.observer.OnOutputSent(ctx, s.node.ID(), outputID, len(data), err)
	return err
}
