package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/rivus/pkg/api"
)

// SQLiteJournal stores node audit records in SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the
// driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteJournal struct {
	db *sql.DB
}

var _ api.Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal initializes the required schema in the given database and
// returns a new SQLiteJournal.
func NewSQLiteJournal(db *sql.DB) (*SQLiteJournal, error) {
	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *SQLiteJournal) initSchema() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS node_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			node_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			input_id TEXT NOT NULL DEFAULT '',
			output_id TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_node_records_node_id ON node_records(node_id, id);
	`)
	return err
}

func (j *SQLiteJournal) Append(ctx context.Context, rec api.Record) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO node_records (node_id, at, type, input_id, output_id, size, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.NodeID,
		at.UnixNano(),
		string(rec.Type),
		rec.InputID,
		rec.OutputID,
		rec.Size,
		rec.Detail,
	)
	return err
}

func (j *SQLiteJournal) List(ctx context.Context, nodeID string) ([]api.Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT node_id, at, type, input_id, output_id, size, detail
		FROM node_records
		WHERE node_id = ?
		ORDER BY id ASC`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.Record
	for rows.Next() {
		var (
			recNodeID string
			atN       int64
			typ       string
			inputID   string
			outputID  string
			size      int
			detail    string
		)
		if err := rows.Scan(&recNodeID, &atN, &typ, &inputID, &outputID, &size, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.Record{
			NodeID:   recNodeID,
			At:       time.Unix(0, atN),
			Type:     api.RecordType(typ),
			InputID:  inputID,
			OutputID: outputID,
			Size:     size,
			Detail:   detail,
		})
	}
	return out, rows.Err()
}
