// Package journal implements the audit journal backends. The in-memory
// journal serves tests and development; the SQLite journal gives a single
// node process an embedded, durable audit trail. Server-grade backends live
// in the postgres and mongo submodules.
package journal

import (
	"context"
	"sync"

	"github.com/petrijr/rivus/pkg/api"
)

// MemoryJournal is a Journal kept entirely in process memory.
// It is safe for concurrent use.
type MemoryJournal struct {
	mu      sync.RWMutex
	records map[string][]api.Record
}

var _ api.Journal = (*MemoryJournal)(nil)

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{records: make(map[string][]api.Record)}
}

func (j *MemoryJournal) Append(ctx context.Context, rec api.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records[rec.NodeID] = append(j.records[rec.NodeID], rec)
	return nil
}

func (j *MemoryJournal) List(ctx context.Context, nodeID string) ([]api.Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	recs := j.records[nodeID]
	out := make([]api.Record, len(recs))
	copy(out, recs)
	return out, nil
}
