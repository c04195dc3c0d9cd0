package rivus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGraph_FanOut(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g := NewGraph()

	src, err := g.AddNode("source", NodeSpec{Outputs: []string{"tick"}})
	require.NoError(t, err)
	defer src.Close()

	a, err := g.AddNode("a", NodeSpec{Inputs: map[string]string{"in": "source/tick"}})
	require.NoError(t, err)
	defer a.Close()

	b, err := g.AddNode("b", NodeSpec{Inputs: map[string]string{"beat": "source/tick"}})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, src.Send(ctx, "tick", []byte("t1")))

	evA, err := a.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, EventInput, evA.Kind())
	require.Equal(t, "in", evA.InputID(), "input id is the subscriber's local name")
	require.Equal(t, []byte("t1"), evA.Data())
	require.NoError(t, evA.Close())

	evB, err := b.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "beat", evB.InputID())
	require.Equal(t, []byte("t1"), evB.Data())
	require.NoError(t, evB.Close())
}

func TestGraph_SendCopiesPayload(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g := NewGraph()

	src, err := g.AddNode("source", NodeSpec{Outputs: []string{"tick"}})
	require.NoError(t, err)
	defer src.Close()

	dst, err := g.AddNode("dst", NodeSpec{Inputs: map[string]string{"in": "source/tick"}})
	require.NoError(t, err)
	defer dst.Close()

	buf := []byte("original")
	require.NoError(t, src.Send(ctx, "tick", buf))
	copy(buf, "MUTATED!")

	ev, err := dst.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "original", string(ev.Data()), "payload ownership transfers at the send call")
	require.NoError(t, ev.Close())
}

func TestGraph_DuplicateNode(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	_, err := g.AddNode("n", NodeSpec{})
	require.NoError(t, err)
	_, err = g.AddNode("n", NodeSpec{})
	require.Error(t, err, "duplicate node ids must be rejected")
}

func TestGraph_MalformedInputRef(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	_, err := g.AddNode("n", NodeSpec{Inputs: map[string]string{"in": "no-slash"}})
	require.Error(t, err)
}

func TestGraph_InjectUnknownNode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()
	require.Error(t, g.Inject(ctx, "ghost", "in", nil))
}

func TestGraph_StopOnlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()
	require.NoError(t, g.Stop(ctx))
	require.Error(t, g.Stop(ctx), "second stop must be rejected")
}

func TestGraph_StopAfterClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()
	g.Close()
	require.Error(t, g.Stop(ctx), "a closed graph has no streams left to stop")
}

func TestGraph_Dial(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()

	cfg := NodeConfig{
		NodeID:  "counter",
		Inputs:  map[string]string{"message": "source/tick"},
		Outputs: []string{"counter"},
	}

	node, err := g.Dial(ctx, cfg)
	require.NoError(t, err)
	require.Equal(t, "counter", node.ID())

	// Dialing the same id again returns the existing handle.
	again, err := g.Dial(ctx, cfg)
	require.NoError(t, err)
	require.Same(t, node, again)
}
