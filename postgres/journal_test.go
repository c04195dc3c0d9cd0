package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/rivus"
	"github.com/petrijr/rivus/pkg/api"
	"github.com/petrijr/rivus/postgres/internal/testutil"
)

// Runs a counter node with a Postgres-backed journal attached and checks
// the recorded audit trail.
func TestJournalObserverIntegration(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("pgx", testutil.GetPostgresEndpoint(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	journal, err := NewPostgresJournal(db)
	require.NoError(t, err)

	_, err = db.Exec("TRUNCATE TABLE node_records")
	require.NoError(t, err)

	g := rivus.NewGraph()
	counter, err := g.AddNode("counter", rivus.NodeSpec{
		Inputs:  map[string]string{"message": "source/tick"},
		Outputs: []string{"counter"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = counter.Close() })

	done := make(chan error, 1)
	go func() {
		count := 0
		done <- rivus.NewRunner(counter, rivus.WithObserver(rivus.NewJournalObserver(journal, nil))).
			OnInput("message", func(ctx context.Context, ev *rivus.Event, out rivus.Sender) error {
				count++
				return out.Send(ctx, "counter", fmt.Appendf(nil, "The current counter value is %d", count))
			}).
			Run(ctx)
	}()

	require.NoError(t, g.Inject(ctx, "counter", "message", []byte("a")))
	require.NoError(t, g.Inject(ctx, "counter", "message", []byte("b")))
	require.NoError(t, g.Stop(ctx))
	require.NoError(t, <-done)

	recs, err := journal.List(ctx, "counter")
	require.NoError(t, err)

	var types []api.RecordType
	for _, rec := range recs {
		types = append(types, rec.Type)
	}
	require.Equal(t, []api.RecordType{
		api.RecordNodeStarted,
		api.RecordEventReceived,
		api.RecordOutputSent,
		api.RecordInputHandled,
		api.RecordEventReceived,
		api.RecordOutputSent,
		api.RecordInputHandled,
		api.RecordEventReceived,
		api.RecordNodeStopped,
	}, types)
}
