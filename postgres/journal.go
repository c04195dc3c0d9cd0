// Package postgres provides a PostgreSQL-backed journal for rivus nodes.
package postgres

import (
	"database/sql"

	"github.com/petrijr/rivus/pkg/api"

	pjournal "github.com/petrijr/rivus/postgres/internal/journal"
)

// NewPostgresJournal initializes the journal schema in the given database
// and returns a Journal backed by PostgreSQL.
func NewPostgresJournal(db *sql.DB) (api.Journal, error) {
	return pjournal.NewPostgresJournal(db)
}
