package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/petrijr/rivus/pkg/api"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	return New(nil, 8)
}

func TestBroker_ReleaseDiscipline(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	h, err := b.AddNode("n", api.NodeSpec{})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if err := b.Inject(ctx, "n", "message", []byte("a")); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if err := b.Inject(ctx, "n", "message", []byte("b")); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}

	ev, err := h.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	// A second pull before release must be refused.
	if _, err := h.Next(ctx); !errors.Is(err, api.ErrEventOutstanding) {
		t.Fatalf("expected ErrEventOutstanding, got %v", err)
	}

	if err := ev.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Exactly once: the second release is an error.
	if err := ev.Close(); !errors.Is(err, api.ErrEventReleased) {
		t.Fatalf("expected ErrEventReleased, got %v", err)
	}

	ev2, err := h.Next(ctx)
	if err != nil {
		t.Fatalf("Next after release failed: %v", err)
	}
	if string(ev2.Data()) != "b" {
		t.Fatalf("unexpected payload %q", ev2.Data())
	}
	if err := ev2.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestBroker_UnknownOutput(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	h, err := b.AddNode("n", api.NodeSpec{Outputs: []string{"real"}})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if err := h.Send(ctx, "bogus", []byte("x")); !errors.Is(err, api.ErrUnknownOutput) {
		t.Fatalf("expected ErrUnknownOutput, got %v", err)
	}
	// Declared output with no subscribers is legal.
	if err := h.Send(ctx, "real", []byte("x")); err != nil {
		t.Fatalf("Send to declared output failed: %v", err)
	}
}

func TestBroker_ClosedNode(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	h, err := b.AddNode("n", api.NodeSpec{Outputs: []string{"out"}})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := h.Close(); !errors.Is(err, api.ErrNodeClosed) {
		t.Fatalf("second Close: expected ErrNodeClosed, got %v", err)
	}
	if _, err := h.Next(ctx); !errors.Is(err, api.ErrNodeClosed) {
		t.Fatalf("Next on closed node: expected ErrNodeClosed, got %v", err)
	}
	if err := h.Send(ctx, "out", nil); !errors.Is(err, api.ErrNodeClosed) {
		t.Fatalf("Send on closed node: expected ErrNodeClosed, got %v", err)
	}
}

func TestBroker_SendToDepartedSubscriberIsDropped(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	src, err := b.AddNode("src", api.NodeSpec{Outputs: []string{"out"}})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	dst, err := b.AddNode("dst", api.NodeSpec{Inputs: map[string]string{"in": "src/out"}})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if err := dst.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// One departed subscriber must not fail the sender.
	if err := src.Send(ctx, "out", []byte("x")); err != nil {
		t.Fatalf("Send after subscriber departed failed: %v", err)
	}
}

func TestBroker_StopBroadcast(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	h1, err := b.AddNode("n1", api.NodeSpec{})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	h2, err := b.AddNode("n2", api.NodeSpec{})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if err := b.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	for _, h := range []*Handle{h1, h2} {
		ev, err := h.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if ev.Kind() != api.EventStop {
			t.Fatalf("expected stop event, got %s", ev.Kind())
		}
		if err := ev.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
}

func TestBroker_CloseEndsStreams(t *testing.T) {
	b := newTestBroker(t)

	h, err := b.AddNode("n", api.NodeSpec{})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := h.Next(ctx); !errors.Is(err, api.ErrStreamClosed) {
		t.Fatalf("expected ErrStreamClosed, got %v", err)
	}

	if _, err := b.AddNode("late", api.NodeSpec{}); !errors.Is(err, api.ErrStreamClosed) {
		t.Fatalf("AddNode after Close: expected ErrStreamClosed, got %v", err)
	}
}
