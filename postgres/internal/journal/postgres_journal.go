package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/rivus/pkg/api"
)

// PostgresJournal stores node audit records in PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib" or "github.com/lib/pq").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresJournal struct {
	db *sql.DB
}

var _ api.Journal = (*PostgresJournal)(nil)

// NewPostgresJournal initializes the required schema in the given database
// and returns a new PostgresJournal.
func NewPostgresJournal(db *sql.DB) (*PostgresJournal, error) {
	j := &PostgresJournal{db: db}
	if err := j.initSchema(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *PostgresJournal) initSchema() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS node_records (
			id BIGSERIAL PRIMARY KEY,
			node_id TEXT NOT NULL,
			at BIGINT NOT NULL,
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

func (j *PostgresJournal) Append(ctx context.Context, rec api.Record) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO node_records (node_id, at, type, input_id, output_id, size, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
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

func (j *PostgresJournal) List(ctx context.Context, nodeID string) ([]api.Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT node_id, at, type, input_id, output_id, size, detail
		FROM node_records
		WHERE node_id = $1
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
