package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// testObserver counts callbacks to verify fan-out behavior.
type testObserver struct {
	starts   int
	events   int
	inputs   int
	outputs  int
	stops    int
	failures int

	lastInputID string
	lastKnown   bool
	lastErr     error
}

func (o *testObserver) OnNodeStart(ctx context.Context, nodeID string) { o.starts++ }
func (o *testObserver) OnEventReceived(ctx context.Context, nodeID string, kind EventType, inputID string) {
	o.events++
}
func (o *testObserver) OnInputHandled(ctx context.Context, nodeID, inputID string, known bool, err error, d time.Duration) {
	o.inputs++
	o.lastInputID = inputID
	o.lastKnown = known
	o.lastErr = err
}
func (o *testObserver) OnOutputSent(ctx context.Context, nodeID, outputID string, size int, err error) {
	o.outputs++
}
func (o *testObserver) OnNodeStopped(ctx context.Context, nodeID string) { o.stops++ }
func (o *testObserver) OnNodeFailed(ctx context.Context, nodeID string, err error) {
	o.failures++
	o.lastErr = err
}

func TestCompositeObserver_FansOut(t *testing.T) {
	ctx := context.Background()

	a := &testObserver{}
	b := &testObserver{}

	obs := NewCompositeObserver(a, nil, b)

	obs.OnNodeStart(ctx, "n")
	obs.OnEventReceived(ctx, "n", EventInput, "message")
	obs.OnInputHandled(ctx, "n", "message", true, nil, time.Millisecond)
	obs.OnOutputSent(ctx, "n", "counter", 5, nil)
	obs.OnNodeStopped(ctx, "n")
	obs.OnNodeFailed(ctx, "n", errors.New("boom"))

	for _, o := range []*testObserver{a, b} {
		if o.starts != 1 || o.events != 1 || o.inputs != 1 || o.outputs != 1 || o.stops != 1 || o.failures != 1 {
			t.Fatalf("callbacks not fanned out: %+v", o)
		}
	}
}

func TestNewCompositeObserver_Degenerate(t *testing.T) {
	if _, ok := NewCompositeObserver().(NoopObserver); !ok {
		t.Fatalf("empty composite should be a NoopObserver")
	}

	single := &testObserver{}
	if got := NewCompositeObserver(nil, single); got != single {
		t.Fatalf("single-observer composite should be the observer itself")
	}
}

func TestBasicMetrics_Snapshot(t *testing.T) {
	ctx := context.Background()
	m := &BasicMetrics{}

	m.OnEventReceived(ctx, "n", EventInput, "message")
	m.OnEventReceived(ctx, "n", EventInput, "other")
	m.OnEventReceived(ctx, "n", EventStop, "")

	m.OnInputHandled(ctx, "n", "message", true, nil, 10*time.Millisecond)
	m.OnInputHandled(ctx, "n", "message", true, nil, 20*time.Millisecond)
	m.OnInputHandled(ctx, "n", "other", false, nil, 0)
	m.OnInputHandled(ctx, "n", "message", true, errors.New("boom"), time.Millisecond)

	m.OnOutputSent(ctx, "n", "counter", 5, nil)
	m.OnOutputSent(ctx, "n", "counter", 5, errors.New("down"))

	snap := m.Snapshot()
	if snap.EventsReceived != 3 {
		t.Fatalf("EventsReceived = %d, want 3", snap.EventsReceived)
	}
	if snap.InputsHandled != 2 {
		t.Fatalf("InputsHandled = %d, want 2", snap.InputsHandled)
	}
	if snap.UnknownInputs != 1 {
		t.Fatalf("UnknownInputs = %d, want 1", snap.UnknownInputs)
	}
	if snap.HandlerErrors != 1 {
		t.Fatalf("HandlerErrors = %d, want 1", snap.HandlerErrors)
	}
	if snap.OutputsSent != 1 {
		t.Fatalf("OutputsSent = %d, want 1", snap.OutputsSent)
	}
	if snap.SendFailures != 1 {
		t.Fatalf("SendFailures = %d, want 1", snap.SendFailures)
	}
	if snap.AvgHandleDuration != 15*time.Millisecond {
		t.Fatalf("AvgHandleDuration = %v, want 15ms", snap.AvgHandleDuration)
	}
}

func TestLoggingObserver_NilLoggerDefaults(t *testing.T) {
	obs, ok := NewLoggingObserver(nil).(*LoggingObserver)
	if !ok {
		t.Fatalf("expected *LoggingObserver")
	}
	if obs.Logger == nil {
		t.Fatalf("nil logger should default to slog.Default()")
	}

	// Smoke: callbacks must not panic.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := &LoggingObserver{Logger: logger}
	ctx := context.Background()
	o.OnNodeStart(ctx, "n")
	o.OnEventReceived(ctx, "n", EventInput, "message")
	o.OnInputHandled(ctx, "n", "message", false, nil, 0)
	o.OnOutputSent(ctx, "n", "counter", 1, errors.New("down"))
	o.OnNodeStopped(ctx, "n")
	o.OnNodeFailed(ctx, "n", errors.New("boom"))
}
