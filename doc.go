// Package rivus implements the node side of a dataflow graph: a small,
// embeddable runtime that lets a process receive a strictly ordered stream
// of typed, named events and emit named output records back into the graph.
//
// Rivus is designed for programs that participate in a larger dataflow
// system (robotics pipelines, sensor fans, stream processors) where an
// external orchestrator owns scheduling and delivery and each node only
// needs a disciplined event loop. It runs fully in Go and integrates
// cleanly into existing processes.
//
// # Core Concepts
//
// The rivus programming model is intentionally small:
//
//  1. Node
//  2. Event
//  3. Runner
//  4. Graph
//  5. Observer and Journal
//
// # Node
//
// A Node is a process's handle to the graph. It is acquired once, from the
// environment the orchestrator prepared (NewNodeFromEnv) or from an
// in-process Graph, and released exactly once with Close after the event
// loop has exited. All operations on a node are driven from a single
// goroutine; the graph delivers events to a node in one total order, and
// the node must process them in that order.
//
// # Event
//
// An Event is one unit of work: an input payload published under an
// identifier, a stop signal, or an auxiliary notice the node may ignore.
// Events are pulled one at a time with Node.Next, the only blocking
// operation in the model, and every pulled event must be released exactly
// once with Close before the next pull. The runtime enforces this
// discipline rather than trusting callers to follow it.
//
// # Runner
//
// Runner is the loop driver. Handlers are registered per input identifier
// with a builder-style API:
//
//	err := rivus.NewRunner(node).
//	    OnInput("message", func(ctx context.Context, ev *rivus.Event, out rivus.Sender) error {
//	        counter++
//	        msg := fmt.Sprintf("The current counter value is %d", counter)
//	        return out.Send(ctx, "counter", []byte(msg))
//	    }).
//	    Run(ctx)
//
// Run blocks until a stop event arrives (nil), or the stream ends without
// one (ErrUnexpectedEnd, a protocol violation by the orchestrator).
// Inputs with identifiers no handler was registered for are logged and
// skipped; handler errors and failed sends are isolated to their event.
// Only initialization failure and an unexpected stream end are fatal.
//
// # Graph
//
// Graph is a process-local orchestrator: it wires node outputs to node
// inputs, injects external stimuli, and broadcasts shutdown. It exists for
// development, tests, and single-process deployments; production graphs
// are owned by an external orchestrator reached through a transport such as
// the redis submodule, which attaches nodes across processes.
//
// Graph is intentionally not a scheduler: it delivers what nodes emit, in
// order, and nothing more.
//
// # Observer and Journal
//
// An Observer receives lifecycle callbacks (events received, inputs
// handled, outputs sent, stop/failure). LoggingObserver logs them with
// log/slog, BasicMetrics counts them, CompositeObserver fans out, and
// NewJournalObserver appends them to a Journal (in-memory, SQLite via
// modernc.org/sqlite, or the postgres/mongo submodule backends), giving
// each node an auditable history of its participation in the graph.
//
// For runnable programs, see the /examples directory.
package rivus
