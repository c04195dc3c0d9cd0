package api

import (
	"context"
	"log/slog"
	"time"
)

// RecordType identifies a journal record.
type RecordType string

const (
	RecordNodeStarted   RecordType = "node.started"
	RecordEventReceived RecordType = "event.received"
	RecordInputHandled  RecordType = "input.handled"
	RecordInputUnknown  RecordType = "input.unknown"
	RecordOutputSent    RecordType = "output.sent"
	RecordNodeStopped   RecordType = "node.stopped"
	RecordNodeFailed    RecordType = "node.failed"
)

// Record is a minimal append-only audit entry for a node's participation in
// the graph. It is intentionally small and stable; payloads are recorded by
// size only, never by content.
type Record struct {
	NodeID string
	At     time.Time
	Type   RecordType

	// Optional context.
	InputID  string
	OutputID string
	Size     int

	// Small, human-oriented details (e.g. an error string).
	Detail string
}

// Journal is an append-only store of node audit records.
type Journal interface {
	Append(ctx context.Context, rec Record) error
	// List returns the records for a node in append order.
	List(ctx context.Context, nodeID string) ([]Record, error)
}

// JournalObserver adapts a Journal into an Observer so the loop driver
// records its own history. Append failures are logged, never propagated:
// auditing must not disturb event processing.
type JournalObserver struct {
	NoopObserver

	journal Journal
	logger  *slog.Logger
}

// NewJournalObserver creates an Observer that appends a Record per lifecycle
// callback. If logger is nil, slog.Default() is used for append failures.
func NewJournalObserver(journal Journal, logger *slog.Logger) *JournalObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalObserver{journal: journal, logger: logger}
}

func (o *JournalObserver) append(ctx context.Context, rec Record) {
	rec.At = time.Now()
	if err := o.journal.Append(ctx, rec); err != nil {
		o.logger.WarnContext(ctx, "journal append failed",
			slog.String("node", rec.NodeID),
			slog.String("type", string(rec.Type)),
			slog.Any("error", err),
		)
	}
}

func (o *JournalObserver) OnNodeStart(ctx context.Context, nodeID string) {
	o.append(ctx, Record{NodeID: nodeID, Type: RecordNodeStarted})
}

func (o *JournalObserver) OnEventReceived(ctx context.Context, nodeID string, kind EventType, inputID string) {
	o.append(ctx, Record{
		NodeID:  nodeID,
		Type:    RecordEventReceived,
		InputID: inputID,
		Detail:  string(kind),
	})
}

func (o *JournalObserver) OnInputHandled(ctx context.Context, nodeID, inputID string, known bool, err error, d time.Duration) {
	rec := Record{NodeID: nodeID, InputID: inputID, Type: RecordInputHandled}
	if !known {
		rec.Type = RecordInputUnknown
	}
	if err != nil {
		rec.Detail = err.Error()
	}
	o.append(ctx, rec)
}

func (o *JournalObserver) OnOutputSent(ctx context.Context, nodeID, outputID string, size int, err error) {
	rec := Record{NodeID: nodeID, OutputID: outputID, Size: size, Type: RecordOutputSent}
	if err != nil {
		rec.Detail = err.Error()
	}
	o.append(ctx, rec)
}

func (o *JournalObserver) OnNodeStopped(ctx context.Context, nodeID string) {
	o.append(ctx, Record{NodeID: nodeID, Type: RecordNodeStopped})
}

func (o *JournalObserver) OnNodeFailed(ctx context.Context, nodeID string, err error) {
	rec := Record{NodeID: nodeID, Type: RecordNodeFailed}
	if err != nil {
		rec.Detail = err.Error()
	}
	o.append(ctx, rec)
}
